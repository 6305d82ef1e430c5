package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/aegis-backtest/pkg/logger"
)

// Scheduler runs registered jobs on their cron schedules with retry and
// per-job history.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	history map[string]*JobHistory
	mu      sync.RWMutex

	maxRetries int
	retryDelay time.Duration
}

// New creates an empty scheduler. Schedules use the six-field cron
// syntax (seconds first).
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log,
		jobs:       make(map[string]Job),
		history:    make(map[string]*JobHistory),
		maxRetries: 3,
		retryDelay: time.Minute,
	}
}

// AddJob registers a job under its declared schedule. Names must be
// unique.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %s already exists", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// Start begins dispatching jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts dispatch and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob triggers a registered job immediately, outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job %s not found", name)
	}

	go s.runJob(job)
	return nil
}

// runJob executes one job, retrying transient failures, and records the
// outcome in the job's history.
func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	started := time.Now()

	s.logger.WithField("job", name).Info("Job started")

	lastErr := s.attempt(job)

	result := JobResult{
		JobName:   name,
		StartTime: started,
		EndTime:   time.Now(),
		Success:   lastErr == nil,
	}
	result.Duration = result.EndTime.Sub(started)
	if lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	if lastErr == nil {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": result.Duration,
		}).Info("Job completed")
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"duration": result.Duration,
		"error":    lastErr.Error(),
	}).Error("Job failed after all retries")
}

// attempt runs the job up to 1+maxRetries times and returns the last
// error, or nil on the first success.
func (s *Scheduler) attempt(job Job) error {
	var lastErr error
	for try := 0; try <= s.maxRetries; try++ {
		lastErr = job.Run(context.Background())
		if lastErr == nil {
			return nil
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     job.Name(),
			"attempt": try + 1,
			"error":   lastErr.Error(),
		}).Warn("Job attempt failed")

		if try < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}
	return lastErr
}

// GetJobHistory returns the recorded runs of one job.
func (s *Scheduler) GetJobHistory(name string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[name]
	if !ok {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return h, nil
}

// GetAllJobs returns the registered job names, sorted.
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
