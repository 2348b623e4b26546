// Package metrics records timing of OCR jobs run during a batch.
package metrics

import "time"

// Metric is a single recorded OCR job.
type Metric struct {
	// Attribution
	RunID   string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	ItemKey string `json:"item_key,omitempty" yaml:"item_key,omitempty"` // scratch image path

	// Engine info
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Worker   int    `json:"worker" yaml:"worker"`

	// Timing
	QueueSeconds     float64 `json:"queue_seconds,omitempty" yaml:"queue_seconds,omitempty"`
	ExecutionSeconds float64 `json:"execution_seconds,omitempty" yaml:"execution_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds,omitempty" yaml:"total_seconds,omitempty"`

	// Status
	Success   bool   `json:"success" yaml:"success"`
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}
