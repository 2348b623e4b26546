package pipeline

import (
	"fmt"

	"github.com/jackzampolin/notas/internal/filestate"
)

// RasterizationError means the PDF could not be turned into page images.
type RasterizationError struct {
	File string
	Err  error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterize %s: %v", e.File, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// OcrSubmissionError means a page image was not recognized.
type OcrSubmissionError struct {
	File string
	Page int
	Err  error
}

func (e *OcrSubmissionError) Error() string {
	return fmt.Sprintf("ocr %s page %d: %v", e.File, e.Page, e.Err)
}

func (e *OcrSubmissionError) Unwrap() error { return e.Err }

// ExtractionEmptyError means the recognized text held no customer name.
type ExtractionEmptyError struct {
	File string
}

func (e *ExtractionEmptyError) Error() string {
	return filestate.MsgNoName
}

// RenameError means the document could not be renamed to its target.
type RenameError struct {
	File   string
	Target string
	Err    error
}

func (e *RenameError) Error() string {
	return e.Err.Error()
}

func (e *RenameError) Unwrap() error { return e.Err }
