package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
)

// Service runs a single digest job on a cron schedule. A tick that fires
// while the previous run is still in progress is skipped.
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	handler  interfaces.JobHandler
	schedule string
	cronID   cron.EntryID
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu           sync.Mutex // Protects the fields below
	running      bool
	isProcessing bool
	lastRun      *time.Time
	lastError    string
	runs         int
	skipped      int
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the handler under cronExpr and starts the scheduler
func (s *Service) Start(ctx context.Context, cronExpr string, handler interfaces.JobHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if err := common.ValidateJobSchedule(cronExpr); err != nil {
		return err
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.handler = handler
	s.schedule = cronExpr

	cronID, err := s.cron.AddFunc(cronExpr, s.runScheduledTask)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cronID = cronID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("next_run", s.cron.Entry(cronID).Next.Format(time.RFC3339)).
		Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight run to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	s.cancel()
	<-stopCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is started
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow runs the handler immediately, honoring the overlap guard
func (s *Service) TriggerNow() {
	s.runScheduledTask()
}

// Status returns a snapshot of the job state
func (s *Service) Status() interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.JobStatus{
		Schedule:  s.schedule,
		IsRunning: s.isProcessing,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Runs:      s.runs,
		Skipped:   s.skipped,
	}
	if s.running {
		next := s.cron.Entry(s.cronID).Next
		status.NextRun = &next
	}
	return status
}

func (s *Service) runScheduledTask() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("Scheduler stopped, ignoring trigger")
		return
	}
	if s.isProcessing {
		s.skipped++
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous digest run still in progress, skipping tick")
		return
	}
	s.isProcessing = true
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Recovered from panic in scheduled run")
			s.finish(fmt.Errorf("panic: %v", r))
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	err := s.handler(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled digest run failed")
	}
	s.finish(err)
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.lastRun = &now
	s.runs++
	s.isProcessing = false
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}
