package ocr

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine wraps one gosseract client. The client keeps the Tesseract API
// initialized between images, which is what makes reuse across jobs worthwhile.
type TesseractEngine struct {
	client   *gosseract.Client
	language string
}

// NewTesseractEngine creates a Tesseract engine for language. It fails early
// when the trained data for language is not installed.
func NewTesseractEngine(language string) (Engine, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if langs, err := gosseract.GetAvailableLanguages(); err == nil && !slices.Contains(langs, language) {
		return nil, fmt.Errorf("tesseract language %q not installed (available: %s)", language, strings.Join(langs, ", "))
	}

	c := gosseract.NewClient()
	if err := c.SetLanguage(language); err != nil {
		c.Close()
		return nil, fmt.Errorf("set language: %w", err)
	}
	return &TesseractEngine{client: c, language: language}, nil
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image file.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Close releases the underlying Tesseract API.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}
