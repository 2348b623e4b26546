package metrics

import (
	"sync"
	"time"
)

// Recorder keeps metrics in memory for the lifetime of a batch. It is safe for
// concurrent use; a nil Recorder discards everything.
type Recorder struct {
	runID string

	mu      sync.Mutex
	metrics []Metric
}

// NewRecorder creates a recorder that stamps every metric with runID.
func NewRecorder(runID string) *Recorder {
	return &Recorder{runID: runID}
}

// Record stores a single metric.
func (r *Recorder) Record(m Metric) {
	if r == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.RunID == "" {
		m.RunID = r.runID
	}
	if m.TotalSeconds == 0 {
		m.TotalSeconds = m.QueueSeconds + m.ExecutionSeconds
	}

	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

// RecordJob records a finished OCR job from its queue and execution durations.
func (r *Recorder) RecordJob(provider, item string, worker int, queued, executed time.Duration, err error) {
	m := Metric{
		ItemKey:          item,
		Provider:         provider,
		Worker:           worker,
		QueueSeconds:     queued.Seconds(),
		ExecutionSeconds: executed.Seconds(),
		Success:          err == nil,
	}
	if err != nil {
		m.ErrorType = ErrorType(err)
	}
	r.Record(m)
}

// List returns a copy of every recorded metric.
func (r *Recorder) List() []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}
