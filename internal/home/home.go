// Package home resolves the working directory layout of a batch run: where the
// input PDFs live, where scratch page images go, and where the logs are written.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultInputDir holds the PDFs to process.
	DefaultInputDir = "arquivos"

	// DefaultScratchDir holds page images while they wait for OCR.
	DefaultScratchDir = "tmp"

	// DefaultSuccessLog and DefaultFailureLog are the append-only run logs.
	DefaultSuccessLog = "out.log"
	DefaultFailureLog = "falhas.log"

	// ConfigFileName is the default config file name.
	ConfigFileName = "notas.yaml"
)

// Layout names the parts of a working directory. Relative entries are resolved
// against the working directory; empty entries take the defaults.
type Layout struct {
	InputDir   string
	ScratchDir string
	SuccessLog string
	FailureLog string
}

// Dir represents a resolved working directory.
type Dir struct {
	path   string
	layout Layout
}

// New creates a Dir rooted at path. If path is empty, uses the current directory.
func New(path string, layout Layout) (*Dir, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	if layout.InputDir == "" {
		layout.InputDir = DefaultInputDir
	}
	if layout.ScratchDir == "" {
		layout.ScratchDir = DefaultScratchDir
	}
	if layout.SuccessLog == "" {
		layout.SuccessLog = DefaultSuccessLog
	}
	if layout.FailureLog == "" {
		layout.FailureLog = DefaultFailureLog
	}

	return &Dir{path: abs, layout: layout}, nil
}

func (d *Dir) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.path, p)
}

// Path returns the root path of the working directory.
func (d *Dir) Path() string {
	return d.path
}

// InputPath returns the directory scanned for PDFs.
func (d *Dir) InputPath() string {
	return d.resolve(d.layout.InputDir)
}

// ScratchPath returns the scratch directory for page images.
func (d *Dir) ScratchPath() string {
	return d.resolve(d.layout.ScratchDir)
}

// ScratchImagePath returns the scratch path for one rendered page of file.
// Page numbers are 1-indexed.
func (d *Dir) ScratchImagePath(file string, page int) string {
	return filepath.Join(d.ScratchPath(), fmt.Sprintf("%s.%04d.png", file, page))
}

// SuccessLogPath returns the path of the success log.
func (d *Dir) SuccessLogPath() string {
	return d.resolve(d.layout.SuccessLog)
}

// FailureLogPath returns the path of the failure log.
func (d *Dir) FailureLogPath() string {
	return d.resolve(d.layout.FailureLog)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists checks the input directory and creates the scratch directory.
func (d *Dir) EnsureExists() error {
	info, err := os.Stat(d.InputPath())
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", d.InputPath())
	}
	if err := os.MkdirAll(d.ScratchPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return nil
}

// ConfigExists returns true if the config file exists in the working directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
