package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	// RunHour and RunMinute are the local time of day to fire, 24h clock
	RunHour   int
	RunMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// Location is the zone the time of day and the previous day are computed in
	Location *time.Location

	// MaxRetries is passed to every submitted job
	MaxRetries int
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		RunHour:       2, // 2am
		RunMinute:     0,
		CheckInterval: time.Minute,
		Location:      time.UTC,
		MaxRetries:    3,
	}
}

// CronTrigger submits a job for the previous day once per day, at or after the configured time.
// A process started after the run time catches up on its first check.
type CronTrigger struct {
	config    CronTriggerConfig
	jobType   JobType
	scheduler *Scheduler
	clock     clock.Clock
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	cfg CronTriggerConfig,
	jobType JobType,
	scheduler *Scheduler,
	clk clock.Clock,
	logger *zap.Logger,
) *CronTrigger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &CronTrigger{
		config:    cfg,
		jobType:   jobType,
		scheduler: scheduler,
		clock:     clk,
		logger:    logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	ticker := c.clock.NewTicker(c.config.CheckInterval)
	c.wg.Add(1)
	go c.runLoop(ctx, ticker)

	c.logger.Info("Cron trigger started",
		zap.String("job_type", string(c.jobType)),
		zap.Int("run_hour", c.config.RunHour),
		zap.Int("run_minute", c.config.RunMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context, ticker *clock.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// shouldRun reports whether now is at or past today's run time
func (c *CronTrigger) shouldRun(now time.Time) bool {
	local := now.In(c.config.Location)
	runAt := time.Date(local.Year(), local.Month(), local.Day(),
		c.config.RunHour, c.config.RunMinute, 0, 0, c.config.Location)
	return !local.Before(runAt)
}

func (c *CronTrigger) checkAndTrigger() {
	now := c.clock.Now()
	today := attendance.DayOf(now, c.config.Location)

	c.mu.Lock()
	if c.lastRunDate == today.Date() || !c.shouldRun(now) {
		c.mu.Unlock()
		return
	}
	c.lastRunDate = today.Date()
	c.mu.Unlock()

	c.logger.Info("Triggering daily job",
		zap.String("job_type", string(c.jobType)),
		zap.String("date", today.Previous().Date()))
	if err := c.TriggerDay(today.Previous()); err != nil {
		c.logger.Error("Failed to schedule daily job", zap.Error(err))
	}
}

// TriggerDay submits a job for an arbitrary day, e.g. to backfill a missed export
func (c *CronTrigger) TriggerDay(day attendance.DayWindow) error {
	return c.scheduler.SubmitJob(NewJob(c.jobType, day, c.config.MaxRetries))
}

// LastRunDate returns the date the trigger last fired, empty before the first run
func (c *CronTrigger) LastRunDate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRunDate
}
