package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/user/routerpulse/internal/util"
)

// Job is a named periodic task. Failed runs retry at half the interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	mu         sync.RWMutex
	lastRun    time.Time
	nextRun    time.Time
	lastError  error
	errorCount int
	running    bool
}

// JobStatus is a read-only projection of a job's state.
type JobStatus struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run"`
	LastError  string        `json:"last_error,omitempty"`
	ErrorCount int           `json:"error_count"`
	Running    bool          `json:"running"`
}

// Scheduler runs the polling jobs off a one-second ticker until its context
// is cancelled.
type Scheduler struct {
	ctx  context.Context
	mu   sync.RWMutex
	jobs []*Job
}

// NewScheduler creates a scheduler bound to ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{ctx: ctx}
}

// AddJob registers a job. The first run happens almost immediately.
func (s *Scheduler) AddJob(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.nextRun = time.Now().Add(time.Second)
	s.jobs = append(s.jobs, job)
}

// Run drives the scheduler loop. Blocks until the context is cancelled.
func (s *Scheduler) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	util.Info("Scheduler started with %d jobs", len(s.jobs))

	for {
		select {
		case <-s.ctx.Done():
			util.Info("Scheduler stopping")
			return
		case now := <-ticker.C:
			s.checkJobs(now)
		}
	}
}

func (s *Scheduler) checkJobs(now time.Time) {
	s.mu.RLock()
	jobs := s.jobs
	s.mu.RUnlock()

	for _, job := range jobs {
		job.mu.RLock()
		due := !job.running && now.After(job.nextRun)
		job.mu.RUnlock()

		if due {
			go s.runJob(job)
		}
	}
}

func (s *Scheduler) runJob(job *Job) {
	job.mu.Lock()
	if job.running {
		job.mu.Unlock()
		return
	}
	job.running = true
	job.lastRun = time.Now()
	job.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, job.Interval)
	err := job.Run(ctx)
	cancel()

	job.mu.Lock()
	job.running = false
	if err != nil {
		job.lastError = err
		job.errorCount++
		util.Warn("Job %s failed: %v", job.Name, err)
		job.nextRun = time.Now().Add(job.Interval / 2)
	} else {
		job.lastError = nil
		job.nextRun = time.Now().Add(job.Interval)
	}
	job.mu.Unlock()
}

// JobStatuses returns the current state of every registered job.
func (s *Scheduler) JobStatuses() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, len(s.jobs))
	for i, job := range s.jobs {
		job.mu.RLock()
		status := JobStatus{
			Name:       job.Name,
			Interval:   job.Interval,
			LastRun:    job.lastRun,
			NextRun:    job.nextRun,
			ErrorCount: job.errorCount,
			Running:    job.running,
		}
		if job.lastError != nil {
			status.LastError = job.lastError.Error()
		}
		job.mu.RUnlock()
		statuses[i] = status
	}
	return statuses
}
