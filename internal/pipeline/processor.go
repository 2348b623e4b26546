package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/notas/internal/extract"
	"github.com/jackzampolin/notas/internal/filestate"
	"github.com/jackzampolin/notas/internal/raster"
)

// Submitter recognizes a page image. *ocr.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, imagePath string) (string, error)
}

// Recorder appends the per-document log line. *runlog.Log satisfies it.
type Recorder interface {
	Success(file, text string) error
	Failure(file, message, text string) error
}

// Outcome is the result of one document's pipeline.
type Outcome struct {
	Document   Document             `json:"document" yaml:"document"`
	Transition filestate.Transition `json:"transition" yaml:"transition"`
	Fields     extract.Fields       `json:"fields" yaml:"fields"`
	Pages      int                  `json:"pages" yaml:"pages"`
	Duration   time.Duration        `json:"duration" yaml:"duration"`

	// Err is the typed cause of a quarantine, nil for renamed documents.
	Err error `json:"-" yaml:"-"`
	// QuarantineErr is set when the quarantine rename itself failed and the
	// document was left under its original name.
	QuarantineErr error `json:"-" yaml:"-"`
	// LogErr is set when the log line could not be appended.
	LogErr error `json:"-" yaml:"-"`
	// Interrupted is set when the batch was canceled before the document
	// reached a terminal state. The file keeps its name and nothing is logged,
	// so the next run picks it up again.
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
}

// Stranded reports whether the document is still under its original name.
func (o Outcome) Stranded() bool {
	return o.QuarantineErr != nil
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	OCR        Submitter
	Rasterizer raster.Rasterizer
	Machine    filestate.Machine
	Log        Recorder

	// InputDir is where documents are renamed in place.
	InputDir string
	// ScratchPath names the temporary image for a page.
	ScratchPath func(file string, page int) string

	Logger *slog.Logger
}

// Processor runs the pipeline for a single document. It is safe for
// concurrent use; renames are serialized so two documents never race for the
// same target name.
type Processor struct {
	ocr         Submitter
	rasterizer  raster.Rasterizer
	machine     filestate.Machine
	log         Recorder
	inputDir    string
	scratchPath func(file string, page int) string
	logger      *slog.Logger

	renameMu sync.Mutex
}

// NewProcessor validates cfg and returns a Processor.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	if cfg.OCR == nil {
		return nil, fmt.Errorf("ocr submitter is required")
	}
	if cfg.Rasterizer == nil {
		return nil, fmt.Errorf("rasterizer is required")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("run log is required")
	}
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("input dir is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	machine := cfg.Machine
	if machine.FailedPrefix == "" {
		machine = filestate.New("")
	}

	scratch := cfg.ScratchPath
	if scratch == nil {
		dir := os.TempDir()
		scratch = func(file string, page int) string {
			return filepath.Join(dir, fmt.Sprintf("%s.%04d.png", file, page))
		}
	}

	return &Processor{
		ocr:         cfg.OCR,
		rasterizer:  cfg.Rasterizer,
		machine:     machine,
		log:         cfg.Log,
		inputDir:    cfg.InputDir,
		scratchPath: scratch,
		logger:      logger.With("component", "processor"),
	}, nil
}

// Process drives doc to a terminal state. Errors never escape: they are
// recorded in the outcome, the document is quarantined, and a failure line is
// logged. If ctx is canceled before recognition finishes, the document is left
// untouched and reported as interrupted.
func (p *Processor) Process(ctx context.Context, doc Document) Outcome {
	start := time.Now()
	logger := p.logger.With("file", doc.Name)
	out := Outcome{Document: doc}

	text, pages, err := p.recognize(ctx, doc)
	out.Pages = pages

	if err != nil && ctx.Err() != nil {
		return p.interrupted(ctx, doc, pages, time.Since(start))
	}

	state := filestate.Outcome{File: doc.Name, Text: text, Err: err}
	if err == nil {
		state.Fields = extract.Extract(text)
	}
	out.Fields = state.Fields

	t := p.machine.Decide(state)
	switch t.State {
	case filestate.Named:
		var renameErr error
		if rerr := p.rename(doc.Name, t.Target); rerr != nil {
			renameErr = &RenameError{File: doc.Name, Target: t.Target, Err: rerr}
		}
		t = p.machine.AfterRename(t, renameErr)
		out.Err = renameErr
	case filestate.Quarantined:
		switch {
		case err != nil:
			out.Err = err
		case slices.Contains(t.Path, filestate.Unnamed):
			out.Err = &ExtractionEmptyError{File: doc.Name}
		default:
			out.Err = &OcrSubmissionError{File: doc.Name, Err: errors.New(filestate.MsgNoText)}
		}
	}

	if t.State == filestate.Quarantined {
		if qerr := p.rename(doc.Name, t.Target); qerr != nil {
			out.QuarantineErr = qerr
			logger.Error("failed to quarantine document", "target", t.Target, "error", qerr)
		}
	}
	out.Transition = t

	switch t.Log {
	case filestate.LogSuccess:
		out.LogErr = p.log.Success(doc.Name, t.Text)
	case filestate.LogFailure:
		out.LogErr = p.log.Failure(doc.Name, t.Message, t.Text)
	}
	if out.LogErr != nil {
		logger.Error("failed to append run log", "error", out.LogErr)
	}

	out.Duration = time.Since(start)
	if t.State == filestate.Renamed {
		logger.Info("document renamed", "target", t.Target, "pages", pages, "duration", out.Duration)
	} else {
		logger.Warn("document quarantined", "reason", t.Message, "path", t.Path, "duration", out.Duration)
	}
	return out
}

// interrupted reports a document the batch was canceled on. It stays Pending.
func (p *Processor) interrupted(ctx context.Context, doc Document, pages int, d time.Duration) Outcome {
	p.logger.Info("document left in place", "file", doc.Name, "cause", context.Cause(ctx))
	return Outcome{
		Document: doc,
		Transition: filestate.Transition{
			File:  doc.Name,
			State: filestate.Pending,
			Path:  []filestate.State{filestate.Pending},
		},
		Pages:       pages,
		Duration:    d,
		Interrupted: true,
	}
}

// recognize rasterizes every page, OCRs it through the pool, and joins the
// texts in page order. A panic anywhere in here is reported as an error.
func (p *Processor) recognize(ctx context.Context, doc Document) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &OcrSubmissionError{File: doc.Name, Page: pages, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var texts []string
	for page, perr := range p.rasterizer.Pages(ctx, doc.Path) {
		if perr != nil {
			return "", pages, &RasterizationError{File: doc.Name, Err: perr}
		}
		pages++

		pageText, serr := p.recognizePage(ctx, doc, page)
		if serr != nil {
			return "", pages, &OcrSubmissionError{File: doc.Name, Page: page.Number, Err: serr}
		}
		texts = append(texts, pageText)
	}

	if pages == 0 {
		return "", 0, &RasterizationError{File: doc.Name, Err: errors.New("document has no pages")}
	}
	return strings.Join(texts, "\n"), pages, nil
}

func (p *Processor) recognizePage(ctx context.Context, doc Document, page raster.Page) (string, error) {
	path := p.scratchPath(doc.Name, page.Number)
	if err := os.WriteFile(path, page.Image, 0o644); err != nil {
		return "", fmt.Errorf("failed to write scratch image: %w", err)
	}
	defer p.removeScratch(path)

	return p.ocr.Submit(ctx, path)
}

// removeScratch deletes a page image, retrying briefly since the OCR engine
// may still hold the file open on some platforms.
func (p *Processor) removeScratch(path string) {
	err := retry.Do(
		func() error {
			err := os.Remove(path)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		p.logger.Warn("failed to remove scratch image", "path", path, "error", err)
	}
}

// rename moves name to target within the input dir. It refuses to replace an
// existing file.
func (p *Processor) rename(name, target string) error {
	if filepath.Base(target) != target {
		return fmt.Errorf("invalid file name %q", target)
	}
	from := filepath.Join(p.inputDir, name)
	to := filepath.Join(p.inputDir, target)

	p.renameMu.Lock()
	defer p.renameMu.Unlock()

	if _, err := os.Lstat(to); err == nil {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(from, to)
}
