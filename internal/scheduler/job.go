package scheduler

import (
	"context"
	"time"
)

// Job is one schedulable unit of work.
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included.
	Schedule() string
}

// JobResult records one execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyCap = 100

// JobHistory keeps the most recent executions of one job.
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, evicting the oldest beyond the cap.
func (h *JobHistory) AddResult(r JobResult) {
	h.Results = append(h.Results, r)
	if len(h.Results) > historyCap {
		h.Results = h.Results[len(h.Results)-historyCap:]
	}
}

// SuccessRate returns the fraction of successful runs in [0, 1].
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	ok := 0
	for _, r := range h.Results {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(h.Results))
}

// Last returns the most recent result, if any.
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}
