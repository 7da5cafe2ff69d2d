package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appsettlement "github.com/trading/backend/internal/application/settlement"
)

// cronTickerInterval is the interval at which the scheduler checks
// whether the daily run is due
const cronTickerInterval = 1 * time.Minute

// Config holds settlement scheduler configuration
type Config struct {
	Enabled           bool
	DailyCronSchedule string
	JobTimeout        time.Duration
}

// DefaultConfig returns the default scheduler configuration, running at
// 2:00 AM daily
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		DailyCronSchedule: "0 2 * * *",
		JobTimeout:        30 * time.Minute,
	}
}

// ParseCronSchedule parses a "minute hour * * *" cron expression.
// Only the daily hour and minute fields are honored; anything else
// falls back to 2:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 2
	minute = 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, perr := parseCronField(parts[0]); perr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, perr := parseCronField(parts[1]); perr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 2, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 2, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

func parseCronField(s string) (int, error) {
	val := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid cron field %q", s)
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// SettlementScheduler triggers the daily reconciliation batch. Each
// firing reconciles the previous calendar day; reconciliation itself is
// idempotent per merchant and date, so a duplicate firing is harmless.
type SettlementScheduler struct {
	config  Config
	hour    int
	minute  int
	service *appsettlement.SettlementService
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewSettlementScheduler creates a new SettlementScheduler
func NewSettlementScheduler(config Config, service *appsettlement.SettlementService, logger *zap.Logger) (*SettlementScheduler, error) {
	hour, minute, err := ParseCronSchedule(config.DailyCronSchedule)
	if err != nil {
		return nil, err
	}

	return &SettlementScheduler{
		config:  config,
		hour:    hour,
		minute:  minute,
		service: service,
		logger:  logger,
	}, nil
}

// Start starts the scheduler loop. Safe to call when already running.
func (s *SettlementScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info("settlement scheduler disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("settlement scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.Timep("next_run_at", s.nextRunAt))

	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *SettlementScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("settlement scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("settlement scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow triggers a reconciliation run for the given date immediately,
// outside the cron cadence
func (s *SettlementScheduler) RunNow(ctx context.Context, date time.Time) (*appsettlement.RunSummary, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	return s.service.RunDaily(runCtx, date)
}

// NextRunAt returns the next scheduled firing time
func (s *SettlementScheduler) NextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

func (s *SettlementScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runDaily(ctx, now)
				s.calculateNextRunTime()
			}
		}
	}
}

func (s *SettlementScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.hour && now.Minute() == s.minute
}

func (s *SettlementScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runDaily reconciles yesterday for every merchant
func (s *SettlementScheduler) runDaily(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	yesterday := now.UTC().AddDate(0, 0, -1)

	s.logger.Info("starting daily settlement run", zap.Time("date", yesterday))

	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if _, err := s.service.RunDaily(runCtx, yesterday); err != nil {
		s.logger.Error("daily settlement run failed", zap.Error(err))
	}
}
