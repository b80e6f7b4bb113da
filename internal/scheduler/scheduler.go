package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// Runner is the analysis entry point the scheduler drives. Run refreshes the
// location list before analyzing.
type Runner interface {
	Run(ctx context.Context, startDate, endDate string) (models.AnalysisRun, error)
}

// Scheduler refreshes the location list and re-runs the default analysis on a
// cron schedule.
type Scheduler struct {
	runner    Runner
	logger    *zap.Logger
	schedule  string
	startDate string
	endDate   string
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	busy      bool
	mu        sync.Mutex
	lastRun   time.Time
	lastRunID string
	lastError string
}

func NewScheduler(runner Runner, schedule, startDate, endDate string, timeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		logger:    logger,
		schedule:  schedule,
		startDate: startDate,
		endDate:   endDate,
		timeout:   timeout,
	}
}

// Start registers the refresh job. An empty schedule leaves the scheduler idle.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("Scheduled refresh disabled")
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		return err
	}

	s.cron = c
	s.entryID = id
	s.running = true
	c.Start()

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", c.Entry(id).Next))

	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.logger.Debug("Skipping refresh, previous run still in progress")
		return
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	s.logger.Info("Starting scheduled analysis refresh",
		zap.String("start_date", s.startDate),
		zap.String("end_date", s.endDate))

	ctx := context.Background()
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run, err := s.runner.Run(ctx, s.startDate, s.endDate)

	s.mu.Lock()
	s.lastRun = startTime
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastRunID = run.ID
		s.lastError = ""
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, models.ErrSuperseded):
		s.logger.Info("Scheduled analysis superseded by a newer run")
	case err != nil:
		s.logger.Error("Scheduled analysis failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
	default:
		s.logger.Info("Scheduled analysis completed",
			zap.String("run_id", run.ID),
			zap.String("source", string(run.Source)),
			zap.Duration("duration", time.Since(startTime)))
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-c.Stop().Done()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering analysis refresh")
	go s.runRefresh()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":     s.running,
		"busy":        s.busy,
		"schedule":    s.schedule,
		"start_date":  s.startDate,
		"end_date":    s.endDate,
		"last_run":    s.lastRun,
		"last_run_id": s.lastRunID,
		"last_error":  s.lastError,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
