// Package pipeline runs the batch: it scans the input directory, drives one
// pipeline per document through rasterization, OCR, field extraction and the
// rename-or-quarantine decision, and reports what happened to each file.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffix selects the documents to process.
const DefaultSuffix = ".pdf"

// Document is one input file. Its identity is the file name.
type Document struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Scan lists the regular files in dir whose names end with suffix (compared
// case-insensitively), skipping files that already carry failedPrefix. Results
// are sorted by name.
func Scan(dir, suffix, failedPrefix string) ([]Document, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	suffix = strings.ToLower(suffix)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var docs []Document
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), suffix) {
			continue
		}
		if failedPrefix != "" && strings.HasPrefix(name, failedPrefix) {
			continue
		}
		docs = append(docs, Document{Name: name, Path: filepath.Join(dir, name)})
	}
	return docs, nil
}
