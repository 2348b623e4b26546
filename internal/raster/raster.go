// Package raster renders PDF pages to PNG images for OCR.
package raster

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI matches a 3x scale of the 72 dpi PDF user space.
const DefaultDPI = 216

// DefaultCommand is the poppler-utils renderer.
const DefaultCommand = "pdftoppm"

// Page is one rendered PDF page. Numbers are 1-indexed.
type Page struct {
	Number int
	Image  []byte // PNG
}

// Rasterizer turns a PDF into a lazy sequence of page images. The sequence
// yields a non-nil error at most once, after which it stops.
type Rasterizer interface {
	Pages(ctx context.Context, pdfPath string) iter.Seq2[Page, error]
}

// Poppler renders pages by invoking pdftoppm once per page.
type Poppler struct {
	command    string
	dpi        int
	logger     *slog.Logger
	countPages func(pdfPath string) (int, error)

	// Limits concurrent pdftoppm processes across all documents.
	sem chan struct{}
}

// PopplerConfig configures a Poppler rasterizer.
type PopplerConfig struct {
	Command string // Default: pdftoppm
	DPI     int    // Default: 216
	Workers int    // Concurrent renders (default: runtime.NumCPU())
	Logger  *slog.Logger
}

// NewPoppler creates a pdftoppm-backed rasterizer.
func NewPoppler(cfg PopplerConfig) *Poppler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	command := cfg.Command
	if command == "" {
		command = DefaultCommand
	}

	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Poppler{
		command:    command,
		dpi:        dpi,
		logger:     logger.With("component", "raster"),
		countPages: PageCount,
		sem:        make(chan struct{}, workers),
	}
}

// PageCount reads the number of pages in a PDF.
func PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// Pages renders the PDF one page at a time, in page order. Rendering stops as
// soon as the consumer stops ranging.
func (p *Poppler) Pages(ctx context.Context, pdfPath string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		count, err := p.countPages(pdfPath)
		if err != nil {
			yield(Page{}, err)
			return
		}
		if count == 0 {
			yield(Page{}, fmt.Errorf("PDF has no pages: %s", filepath.Base(pdfPath)))
			return
		}

		for n := 1; n <= count; n++ {
			if err := ctx.Err(); err != nil {
				yield(Page{}, err)
				return
			}
			img, err := p.renderPage(ctx, pdfPath, n)
			if err != nil {
				yield(Page{}, fmt.Errorf("failed to render page %d: %w", n, err))
				return
			}
			p.logger.Debug("rendered page", "file", filepath.Base(pdfPath), "page", n, "of", count, "bytes", len(img))
			if !yield(Page{Number: n, Image: img}, nil) {
				return
			}
		}
	}
}

// renderPage renders a single page from a PDF using pdftoppm (poppler-utils).
func (p *Poppler) renderPage(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	select {
	case p.sem <- struct{}{}: // acquire
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }() // release

	tmpDir, err := os.MkdirTemp("", "notas-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -singlefile: don't add page number suffix
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.command,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(p.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (output: %s)", p.command, err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%s did not create expected output: %w", p.command, err)
	}
	return data, nil
}
