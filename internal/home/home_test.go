package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-notas", Layout{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-notas" {
			t.Errorf("expected path /tmp/test-notas, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses current directory", func(t *testing.T) {
		dir, err := New("", Layout{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wd, _ := os.Getwd()
		if dir.Path() != wd {
			t.Errorf("expected path %s, got %s", wd, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-notas", Layout{})

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"InputPath", dir.InputPath(), "/tmp/test-notas/arquivos"},
		{"ScratchPath", dir.ScratchPath(), "/tmp/test-notas/tmp"},
		{"ScratchImagePath", dir.ScratchImagePath("nota1.pdf", 2), "/tmp/test-notas/tmp/nota1.pdf.0002.png"},
		{"SuccessLogPath", dir.SuccessLogPath(), "/tmp/test-notas/out.log"},
		{"FailureLogPath", dir.FailureLogPath(), "/tmp/test-notas/falhas.log"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-notas/notas.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tt.got)
			}
		})
	}
}

func TestDir_CustomLayout(t *testing.T) {
	dir, _ := New("/work", Layout{
		InputDir:   "in",
		ScratchDir: "/var/tmp/notas",
		SuccessLog: "logs/ok.log",
	})

	if got := dir.InputPath(); got != "/work/in" {
		t.Errorf("InputPath = %s", got)
	}
	if got := dir.ScratchPath(); got != "/var/tmp/notas" {
		t.Errorf("absolute ScratchPath should be kept, got %s", got)
	}
	if got := dir.SuccessLogPath(); got != "/work/logs/ok.log" {
		t.Errorf("SuccessLogPath = %s", got)
	}
	if got := dir.FailureLogPath(); got != "/work/falhas.log" {
		t.Errorf("FailureLogPath should default, got %s", got)
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()

	dir, err := New(tmpDir, Layout{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Input directory is required
	if err := dir.EnsureExists(); err == nil {
		t.Error("EnsureExists should fail without an input directory")
	}

	if err := os.Mkdir(filepath.Join(tmpDir, DefaultInputDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if _, err := os.Stat(dir.ScratchPath()); err != nil {
		t.Errorf("scratch directory should exist after EnsureExists: %v", err)
	}
}

func TestDir_EnsureExists_InputIsFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, DefaultInputDir), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	dir, _ := New(tmpDir, Layout{})
	if err := dir.EnsureExists(); err == nil {
		t.Error("EnsureExists should fail when input path is a file")
	}
}
