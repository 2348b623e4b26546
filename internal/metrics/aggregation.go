package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Summary aggregates recorded metrics.
type Summary struct {
	Count          int           `json:"count" yaml:"count"`
	SuccessCount   int           `json:"success_count" yaml:"success_count"`
	ErrorCount     int           `json:"error_count" yaml:"error_count"`
	TotalTime      time.Duration `json:"total_time" yaml:"total_time"`
	AvgTimeSeconds float64       `json:"avg_time_seconds" yaml:"avg_time_seconds"`
	AvgQueueSecs   float64       `json:"avg_queue_seconds" yaml:"avg_queue_seconds"`
	LatencyP50     float64       `json:"latency_p50" yaml:"latency_p50"`
	LatencyP95     float64       `json:"latency_p95" yaml:"latency_p95"`
	LatencyMax     float64       `json:"latency_max" yaml:"latency_max"`
}

// Summarize aggregates everything recorded so far.
func (r *Recorder) Summarize() Summary {
	metrics := r.List()

	s := Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	var queued float64
	latencies := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		s.TotalTime += time.Duration(m.ExecutionSeconds * float64(time.Second))
		queued += m.QueueSeconds
		latencies = append(latencies, m.ExecutionSeconds)
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
	}

	s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
	s.AvgQueueSecs = queued / float64(s.Count)

	sort.Float64s(latencies)
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	s.LatencyMax = latencies[len(latencies)-1]

	return s
}

// percentile calculates the p-th percentile of sorted values.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * (len(sorted) - 1)) / 100
	return sorted[idx]
}

// ErrorType classifies an error for aggregation.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return fmt.Sprintf("%T", err)
	}
}
