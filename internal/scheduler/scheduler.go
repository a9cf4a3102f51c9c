package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/config"
	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/service/notify"
	"github.com/mamadbah2/sitestock/internal/service/reporting"
	"github.com/mamadbah2/sitestock/internal/service/stock"
)

const jobTimeout = 2 * time.Minute

// Reporter publishes the daily reports.
type Reporter interface {
	PublishValuation(ctx context.Context) error
	AppendHistory(ctx context.Context) error
	LowStockSummary(ctx context.Context) string
}

// Inventory yields the current stock snapshot.
type Inventory interface {
	Snapshot(ctx context.Context) []models.InventoryItem
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	reporter  Reporter
	inventory Inventory
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, inventory Inventory, notifier notify.Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if _, err := cron.ParseStandard(cfg.CronSchedule); err != nil {
		return nil, fmt.Errorf("parse report schedule %q: %w", cfg.CronSchedule, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  cfg.CronSchedule,
		reporter:  reporter,
		inventory: inventory,
		notifier:  notifier,
		logger:    logger,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunDailyReport(ctx)
	})
	if err != nil {
		s.logger.Error("failed to schedule daily report", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunDailyReport publishes the valuation and history sheets and raises a
// warning notice when items are running low.
func (s *Scheduler) RunDailyReport(ctx context.Context) {
	s.logger.Info("running daily stock report")

	if err := s.reporter.PublishValuation(ctx); err != nil {
		s.logSheetsError("failed to publish valuation", err)
	}
	if err := s.reporter.AppendHistory(ctx); err != nil {
		s.logSheetsError("failed to append history", err)
	}

	low := stock.LowStock(s.inventory.Snapshot(ctx))
	if len(low) == 0 {
		return
	}
	s.notifier.Notify(ctx, models.Notice{
		Title:       "Low Stock Alert",
		Description: s.reporter.LowStockSummary(ctx),
		Severity:    models.SeverityWarning,
	})
}

func (s *Scheduler) logSheetsError(msg string, err error) {
	if errors.Is(err, reporting.ErrSheetsDisabled) {
		s.logger.Debug("sheets disabled, skipping", zap.String("job", msg))
		return
	}
	s.logger.Error(msg, zap.Error(err))
}
