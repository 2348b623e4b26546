package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/notas/internal/metrics"
)

// Pool manages a fixed set of OCR engines.
// All workers share a single queue - natural load balancing via Go channel semantics.
type Pool struct {
	name       string
	logger     *slog.Logger
	metrics    *metrics.Recorder
	jobTimeout time.Duration

	engines []Engine

	// Single shared queue (all workers pull from this)
	queue chan *job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	nextID    atomic.Uint64
	inFlight  atomic.Int32
	completed atomic.Int64
	failed    atomic.Int64
}

// PoolConfig configures a new pool.
type PoolConfig struct {
	Name       string
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Size       int           // Number of engines (default: 1)
	QueueSize  int           // Pending job buffer (default: 1000)
	Language   string        // Tesseract language (default: por)
	JobTimeout time.Duration // Per-job recognition limit, zero disables
	Factory    EngineFactory // Default: NewTesseractEngine
}

// PoolStatus reports a pool's current state.
type PoolStatus struct {
	Name       string `json:"name" yaml:"name"`
	Workers    int    `json:"workers" yaml:"workers"`
	InFlight   int    `json:"in_flight" yaml:"in_flight"`
	QueueDepth int    `json:"queue_depth" yaml:"queue_depth"`
	Completed  int64  `json:"completed" yaml:"completed"`
	Failed     int64  `json:"failed" yaml:"failed"`
	Closed     bool   `json:"closed" yaml:"closed"`
}

type job struct {
	id        uint64
	ctx       context.Context
	imagePath string
	enqueued  time.Time
	result    chan jobResult // buffered, written exactly once
}

type jobResult struct {
	text string
	err  error
}

// NewPool constructs every engine up front and starts one worker per engine.
// If any engine fails to construct, the ones already built are closed.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "ocr"
	}

	size := cfg.Size
	if size <= 0 {
		size = 1
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}

	factory := cfg.Factory
	if factory == nil {
		factory = NewTesseractEngine
	}

	p := &Pool{
		name:       name,
		logger:     logger.With("pool", name, "workers", size),
		metrics:    cfg.Metrics,
		jobTimeout: cfg.JobTimeout,
		queue:      make(chan *job, queueSize),
	}

	start := time.Now()
	p.logger.Info("creating ocr engines", "language", language)
	for i := 0; i < size; i++ {
		if err := ctx.Err(); err != nil {
			p.closeEngines()
			return nil, err
		}
		e, err := factory(language)
		if err != nil {
			p.closeEngines()
			return nil, fmt.Errorf("create engine %d: %w", i, err)
		}
		p.engines = append(p.engines, e)
	}
	p.logger.Info("ocr engines created", "duration", time.Since(start))

	for i, e := range p.engines {
		p.wg.Add(1)
		go p.worker(i, e)
	}

	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Size returns the number of engines in the pool.
func (p *Pool) Size() int {
	return len(p.engines)
}

// Submit queues the image for recognition and blocks until an engine has
// processed it. It is safe for concurrent use. Engine failures are returned to
// this caller only; the engine stays in the pool.
func (p *Pool) Submit(ctx context.Context, imagePath string) (string, error) {
	j := &job{
		id:        p.nextID.Add(1),
		ctx:       ctx,
		imagePath: imagePath,
		enqueued:  time.Now(),
		result:    make(chan jobResult, 1),
	}

	if err := p.enqueue(ctx, j); err != nil {
		return "", err
	}

	select {
	case r := <-j.result:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, j *job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- j:
		p.logger.Debug("ocr pool accepted job", "job_id", j.id, "image", j.imagePath, "queue_len", len(p.queue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker services jobs from the shared queue until Shutdown closes it.
func (p *Pool) worker(id int, e Engine) {
	defer p.wg.Done()
	p.logger.Debug("ocr worker started", "worker_id", id)

	for j := range p.queue {
		p.inFlight.Add(1)
		p.process(id, e, j)
		p.inFlight.Add(-1)
	}
}

// process runs one job on engine e. With a job timeout the submitter is answered
// at the deadline, but the engine stays bound to the job until it returns.
func (p *Pool) process(id int, e Engine, j *job) {
	queued := time.Since(j.enqueued)

	if err := j.ctx.Err(); err != nil {
		p.logger.Debug("ocr job abandoned before start", "worker_id", id, "job_id", j.id)
		p.finish(j, jobResult{err: err})
		return
	}

	start := time.Now()
	done := make(chan jobResult, 1)
	go func() { done <- p.recognize(id, e, j) }()

	var timeout <-chan time.Time
	if p.jobTimeout > 0 {
		timer := time.NewTimer(p.jobTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-done:
		p.metrics.RecordJob(e.Name(), j.imagePath, id, queued, time.Since(start), res.err)
		if res.err != nil {
			p.logger.Debug("ocr job failed", "worker_id", id, "job_id", j.id, "error", res.err)
		} else {
			p.logger.Debug("ocr job completed", "worker_id", id, "job_id", j.id, "chars", len(res.text))
		}
		p.finish(j, res)

	case <-timeout:
		p.logger.Warn("ocr job timed out", "worker_id", id, "job_id", j.id, "image", j.imagePath, "timeout", p.jobTimeout)
		p.finish(j, jobResult{err: &RecognizeError{Worker: id, Image: j.imagePath, Err: ErrJobTimeout}})
		<-done
		p.metrics.RecordJob(e.Name(), j.imagePath, id, queued, time.Since(start), ErrJobTimeout)
	}
}

func (p *Pool) finish(j *job, res jobResult) {
	if res.err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	j.result <- res
}

// recognize calls the engine, converting errors and panics into a RecognizeError.
func (p *Pool) recognize(id int, e Engine, j *job) (res jobResult) {
	defer func() {
		if r := recover(); r != nil {
			res = jobResult{err: &RecognizeError{Worker: id, Image: j.imagePath, Err: fmt.Errorf("engine panic: %v", r)}}
		}
	}()

	text, err := e.Recognize(j.ctx, j.imagePath)
	if err != nil {
		return jobResult{err: &RecognizeError{Worker: id, Image: j.imagePath, Err: err}}
	}
	return jobResult{text: text}
}

// Shutdown stops accepting jobs, waits for queued and in-flight jobs to drain,
// then closes every engine. It must be called once, after all submitters are
// done; later calls return ErrPoolClosed.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.logger.Info("ocr pool draining", "queue_len", len(p.queue), "in_flight", p.inFlight.Load())
	p.wg.Wait()

	err := p.closeEngines()
	p.logger.Info("ocr pool stopped", "completed", p.completed.Load(), "failed", p.failed.Load())
	return err
}

func (p *Pool) closeEngines() error {
	var errs []error
	for i, e := range p.engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Status returns current pool status.
func (p *Pool) Status() PoolStatus {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return PoolStatus{
		Name:       p.name,
		Workers:    len(p.engines),
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
		Closed:     closed,
	}
}
