package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/notas/internal/filestate"
	"github.com/jackzampolin/notas/internal/metrics"
)

// Closer tears down the OCR pool once every pipeline has finished.
// *ocr.Pool satisfies it.
type Closer interface {
	Shutdown() error
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	RunID     string // Default: random UUID
	Processor *Processor
	Pool      Closer
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// Batch processes a set of documents concurrently, one pipeline per document.
type Batch struct {
	runID     string
	processor *Processor
	pool      Closer
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewBatch creates a batch.
func NewBatch(cfg BatchConfig) (*Batch, error) {
	if cfg.Processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{
		runID:     runID,
		processor: cfg.Processor,
		pool:      cfg.Pool,
		metrics:   cfg.Metrics,
		logger:    logger.With("component", "batch", "run_id", runID),
	}, nil
}

// RunID identifies this batch in logs and the summary.
func (b *Batch) RunID() string {
	return b.runID
}

// Run starts a pipeline for every document, waits for all of them, and then
// shuts the pool down. Document failures are reported in the summary; the
// returned error is only set when the pool fails to shut down cleanly.
func (b *Batch) Run(ctx context.Context, docs []Document) (*Summary, error) {
	start := time.Now()
	b.logger.Info("batch started", "documents", len(docs))

	// Document failures live in outcomes; pipeline goroutines always return nil
	// so one failed document never cancels its siblings.
	outcomes := make([]Outcome, len(docs))
	var g errgroup.Group
	for i, doc := range docs {
		g.Go(func() error {
			outcomes[i] = b.process(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	var shutdownErr error
	if b.pool != nil {
		if err := b.pool.Shutdown(); err != nil {
			shutdownErr = fmt.Errorf("failed to shut down ocr pool: %w", err)
		}
	}

	summary := NewSummary(b.runID, outcomes, time.Since(start))
	if b.metrics != nil {
		summary.OCR = b.metrics.Summarize()
	}

	b.logger.Info("batch finished",
		"renamed", summary.Renamed,
		"quarantined", summary.Quarantined,
		"stranded", summary.Stranded,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration)
	return summary, shutdownErr
}

// process guards the batch against a pipeline that panics outside the
// recognition stage: the document is still reported as quarantined.
func (b *Batch) process(ctx context.Context, doc Document) (out Outcome) {
	if ctx.Err() != nil {
		return b.processor.interrupted(ctx, doc, 0, 0)
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("pipeline panicked", "file", doc.Name, "panic", r)
			err := &OcrSubmissionError{File: doc.Name, Err: fmt.Errorf("panic: %v", r)}
			t := b.processor.machine.Decide(filestate.Outcome{File: doc.Name, Err: err})
			out = Outcome{Document: doc, Transition: t, Err: err}
			if qerr := b.processor.rename(doc.Name, t.Target); qerr != nil {
				out.QuarantineErr = qerr
			}
			out.LogErr = b.processor.log.Failure(doc.Name, t.Message, "")
		}
	}()
	return b.processor.Process(ctx, doc)
}
