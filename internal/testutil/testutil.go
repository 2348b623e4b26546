// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed in PATH", name)
	}
	return path
}

// Script writes an executable shell script named name into a temp dir and
// returns its path.
func Script(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// Workspace is a throwaway working directory laid out like a real run.
type Workspace struct {
	Root       string
	Input      string
	Scratch    string
	SuccessLog string
	FailureLog string
}

// NewWorkspace creates arquivos/ and tmp/ under a temp dir and places an
// empty PDF in arquivos/ for every name in files.
func NewWorkspace(t *testing.T, files ...string) *Workspace {
	t.Helper()
	root := t.TempDir()
	w := &Workspace{
		Root:       root,
		Input:      filepath.Join(root, "arquivos"),
		Scratch:    filepath.Join(root, "tmp"),
		SuccessLog: filepath.Join(root, "out.log"),
		FailureLog: filepath.Join(root, "falhas.log"),
	}
	for _, dir := range []string{w.Input, w.Scratch} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		w.AddFile(t, f)
	}
	return w
}

// AddFile places a placeholder PDF in the input dir.
func (w *Workspace) AddFile(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(w.Input, name), []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Files lists dir sorted by name.
func Files(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// ReadLines returns the lines of a log file, without the trailing newline.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
