package interfaces

import (
	"context"
	"time"
)

// JobHandler is the unit of work run on each scheduler tick
type JobHandler func(ctx context.Context) error

// JobStatus represents the current status of the scheduled job
type JobStatus struct {
	Schedule  string
	IsRunning bool
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
	Runs      int
	Skipped   int // Ticks dropped because the previous run was still in progress
}

// SchedulerService runs the digest on a cron schedule
type SchedulerService interface {
	// Start registers handler under cronExpr and starts the scheduler
	Start(ctx context.Context, cronExpr string, handler JobHandler) error

	// Stop halts the scheduler and waits for an in-flight run
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// TriggerNow runs the handler immediately
	TriggerNow()

	// Status returns a snapshot of the job state
	Status() JobStatus
}
