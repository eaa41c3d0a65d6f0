// Package scheduler runs the periodic maintenance work of the deadline
// engine. Jobs are registered once at startup and executed on their
// schedule until the worker shuts down.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is a unit of periodic work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the scheduler
	// is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// Schedule decides when a job runs.
type Schedule interface {
	// Next returns the next run time after t.
	Next(t time.Time) time.Time

	// String returns a human-readable representation of the schedule.
	String() string
}

var (
	ErrNilJob                  = fmt.Errorf("job cannot be nil")
	ErrNilSchedule             = fmt.Errorf("schedule cannot be nil")
	ErrJobAlreadyExists        = fmt.Errorf("job already exists")
	ErrJobNotFound             = fmt.Errorf("job not found")
	ErrSchedulerAlreadyRunning = fmt.Errorf("scheduler is already running")
	ErrSchedulerNotRunning     = fmt.Errorf("scheduler is not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler executes registered jobs when they come due. Jobs run on
// their own goroutines; Stop waits for in-flight runs to finish.
type Scheduler struct {
	mu sync.RWMutex

	logger *slog.Logger

	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// New creates a scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger.With("component", "scheduler"),
		jobs:   make(map[string]*scheduledJob),
	}
}

// Register adds a job with its schedule. The first run happens one full
// schedule interval after registration, not immediately.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now().UTC()),
	}
	s.jobs[name] = sj

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
		"next_run", sj.nextRun.Format(time.RFC3339),
	)
	return nil
}

// Start begins the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop cancels the loop and waits for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).String())
	return nil
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(time.Now().UTC())
		}
	}
}

func (s *Scheduler) dispatchDue(now time.Time) {
	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.nextRun.IsZero() && now.After(sj.nextRun) {
			sj.lastRun = now
			sj.nextRun = sj.schedule.Next(now)
			sj.runCount++
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.runJob(sj)
	}
}

func (s *Scheduler) runJob(sj *scheduledJob) {
	defer s.wg.Done()

	name := sj.job.Name()
	started := time.Now()
	s.logger.Debug("job started", "job", name)

	err := sj.job.Run(s.ctx)
	duration := time.Since(started)

	if err != nil {
		s.mu.Lock()
		sj.failCount++
		s.mu.Unlock()
		s.logger.Error("job failed",
			"job", name,
			"duration", duration.String(),
			"error", err,
		)
		return
	}

	s.logger.Info("job completed", "job", name, "duration", duration.String())
}

// RunNow executes a job immediately, outside its schedule. Used at
// startup to bring readers up to date without waiting a full interval.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) error {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	started := time.Now()
	err := sj.job.Run(ctx)

	s.mu.Lock()
	sj.lastRun = started
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("job %s: %w", jobName, err)
	}
	s.logger.Info("manual run completed", "job", jobName, "duration", time.Since(started).String())
	return nil
}

// JobInfo describes a registered job for diagnostics.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
}

// ListJobs returns the registered jobs and their run counters.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		infos = append(infos, JobInfo{
			Name:        name,
			Description: sj.job.Description(),
			Schedule:    sj.schedule.String(),
			LastRun:     sj.lastRun,
			NextRun:     sj.nextRun,
			RunCount:    sj.runCount,
			FailCount:   sj.failCount,
		})
	}
	return infos
}
