package pipeline

import (
	"time"

	"github.com/jackzampolin/notas/internal/filestate"
	"github.com/jackzampolin/notas/internal/metrics"
)

// Summary reports what happened to every document in a batch.
type Summary struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	Documents   int             `json:"documents" yaml:"documents"`
	Renamed     int             `json:"renamed" yaml:"renamed"`
	Quarantined int             `json:"quarantined" yaml:"quarantined"`
	Stranded    int             `json:"stranded" yaml:"stranded"`
	Interrupted int             `json:"interrupted" yaml:"interrupted"`
	LogErrors   int             `json:"log_errors" yaml:"log_errors"`
	Duration    time.Duration   `json:"duration" yaml:"duration"`
	Outcomes    []Outcome       `json:"outcomes" yaml:"outcomes"`
	OCR         metrics.Summary `json:"ocr" yaml:"ocr"`
}

// NewSummary counts outcomes by terminal state. A stranded document failed to
// be quarantined and is counted as both quarantined and stranded. Documents
// that never reached a terminal state are counted as interrupted.
func NewSummary(runID string, outcomes []Outcome, duration time.Duration) *Summary {
	s := &Summary{
		RunID:     runID,
		Documents: len(outcomes),
		Duration:  duration,
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		if !o.Transition.State.Terminal() {
			s.Interrupted++
			continue
		}
		switch o.Transition.State {
		case filestate.Renamed:
			s.Renamed++
		case filestate.Quarantined:
			s.Quarantined++
		}
		if o.Stranded() {
			s.Stranded++
		}
		if o.LogErr != nil {
			s.LogErrors++
		}
	}
	return s
}

// Pending returns the outcomes left untouched by a canceled batch.
func (s *Summary) Pending() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if !o.Transition.State.Terminal() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that ended in quarantine.
func (s *Summary) Failed() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Transition.State == filestate.Quarantined {
			out = append(out, o)
		}
	}
	return out
}
