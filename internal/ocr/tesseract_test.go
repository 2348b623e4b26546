package ocr

import (
	"context"
	"testing"

	"github.com/otiai10/gosseract/v2"

	"github.com/jackzampolin/notas/internal/testutil"
)

// ensureTesseractAvailable checks that tesseract and the Portuguese data are installed.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	testutil.RequireBinary(t, "tesseract")
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		t.Skipf("cannot list tesseract languages: %v", err)
	}
	for _, l := range langs {
		if l == DefaultLanguage {
			return
		}
	}
	t.Skip("tesseract por traineddata not installed")
}

func TestTesseractEngine_MissingImage(t *testing.T) {
	ensureTesseractAvailable(t)

	e, err := NewTesseractEngine(DefaultLanguage)
	if err != nil {
		t.Fatalf("NewTesseractEngine() error = %v", err)
	}
	defer e.Close()

	if e.Name() != "tesseract" {
		t.Errorf("Name() = %q", e.Name())
	}
	if _, err := e.Recognize(context.Background(), "/nonexistent/page.png"); err == nil {
		t.Error("Recognize() on missing file should fail")
	}
}

func TestTesseractEngine_UnknownLanguage(t *testing.T) {
	ensureTesseractAvailable(t)

	if _, err := NewTesseractEngine("zzz"); err == nil {
		t.Error("NewTesseractEngine(zzz) should fail")
	}
}
