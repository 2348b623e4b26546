// Package ocr runs optical character recognition on page images through a fixed
// pool of reusable engines.
//
// Engines are expensive to construct (Tesseract loads its trained data on first
// use), so a Pool builds them once at startup and hands jobs to whichever engine
// is idle. Callers see a single blocking Submit that is safe for concurrent use.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// DefaultLanguage is the Tesseract language code used for NF-e documents.
const DefaultLanguage = "por"

// Engine recognizes text in an image file. An Engine is used by one job at a
// time and may keep state between jobs.
type Engine interface {
	// Name returns the engine identifier (e.g., "tesseract").
	Name() string

	// Recognize returns the text found in the image at imagePath.
	Recognize(ctx context.Context, imagePath string) (string, error)

	// Close releases the engine's resources.
	Close() error
}

// EngineFactory constructs one engine for the given language.
type EngineFactory func(language string) (Engine, error)

var (
	// ErrPoolClosed is returned by Submit and Shutdown once the pool has shut down.
	ErrPoolClosed = errors.New("ocr pool is shut down")

	// ErrJobTimeout is returned when recognition outlives the pool's job timeout.
	ErrJobTimeout = fmt.Errorf("ocr job timed out: %w", context.DeadlineExceeded)
)

// RecognizeError wraps a failure raised by an engine for one image.
type RecognizeError struct {
	Worker int
	Image  string
	Err    error
}

func (e *RecognizeError) Error() string {
	return fmt.Sprintf("recognize %s (worker %d): %v", e.Image, e.Worker, e.Err)
}

func (e *RecognizeError) Unwrap() error {
	return e.Err
}
