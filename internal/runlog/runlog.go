// Package runlog appends one line per processed document to the success and
// failure logs. Writes from concurrent pipelines are serialized per file so lines
// never interleave.
package runlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// File is an append-only log file guarded by a mutex.
type File struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// OpenFile opens path for appending, creating it and its directory if needed.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	return &File{path: path, f: f}, nil
}

// Path returns the file path.
func (l *File) Path() string {
	return l.path
}

// Append writes line in a single write call.
func (l *File) Append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("log %s is closed", l.path)
	}
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", l.path, err)
	}
	return nil
}

// Close closes the file. Further appends fail.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// Log pairs the success and failure logs of a batch.
type Log struct {
	success *File
	failure *File
	now     func() time.Time
}

// Open opens both logs.
func Open(successPath, failurePath string) (*Log, error) {
	s, err := OpenFile(successPath)
	if err != nil {
		return nil, err
	}
	f, err := OpenFile(failurePath)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &Log{success: s, failure: f, now: time.Now}, nil
}

// Success records a renamed document and its recognized text.
func (l *Log) Success(file, text string) error {
	return l.success.Append(FormatSuccess(l.now(), file, text))
}

// Failure records a quarantined document, the reason, and whatever text was
// recognized.
func (l *Log) Failure(file, message, text string) error {
	return l.failure.Append(FormatFailure(l.now(), file, message, text))
}

// Close closes both logs.
func (l *Log) Close() error {
	return errors.Join(l.success.Close(), l.failure.Close())
}

// FormatSuccess renders a success line.
func FormatSuccess(ts time.Time, file, text string) string {
	return fmt.Sprintf("[%s] [arquivo: %s, data:%s]\n", ts.UTC().Format(TimeFormat), file, Quote(text))
}

// FormatFailure renders a failure line.
func FormatFailure(ts time.Time, file, message, text string) string {
	return fmt.Sprintf("[%s] [arquivo: %s, error: %s, data:%s]\n", ts.UTC().Format(TimeFormat), file, message, Quote(text))
}

// Quote renders text as a JSON string literal without HTML escaping, so the
// whole recognized text stays on one log line.
func Quote(text string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(text); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
