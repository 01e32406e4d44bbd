// Package scheduler periodically rebuilds the most recent complete
// period for a configured product.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/engine"
)

// Scheduler owns the periodic rebuild job. Each run builds the most
// recent window that ends no later than today and logs the resulting
// coverage; the raster itself is discarded, since downstream consumers
// fetch through the API on their own cadence.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *engine.Engine
	product   *config.ProductConfig
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a scheduler for the configured product.
func New(eng *engine.Engine, products *config.ProductRegistry, cfg config.ScheduleConfig, logger *slog.Logger) (*Scheduler, error) {
	p, ok := products.Get(cfg.Product)
	if !ok {
		return nil, fmt.Errorf("schedule product %q is not a known product", cfg.Product)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    eng,
		product:   p,
		interval:  cfg.Interval,
		logger:    logger,
	}, nil
}

// Start schedules the rebuild job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule rebuild job: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduled periodic rebuild",
		slog.String("product", s.product.ID),
		slog.Duration("interval", s.interval),
	)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	start, end := LatestWindow(s.product, time.Now().UTC())

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	result, err := s.engine.Build(ctx, s.product.ID, start, end)
	if err != nil {
		s.logger.Error("scheduled rebuild failed",
			slog.String("product", s.product.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("scheduled rebuild complete",
		slog.String("product", s.product.ID),
		slog.String("period_start", result.PeriodStart.Format("2006-01-02")),
		slog.Int("cells_missing", len(result.MissingCells)),
		slog.Float64("valid_fraction", result.Raster.ValidFraction()),
	)
}

// LatestWindow returns the most recent complete period for a product
// as of now: the window of PeriodDays days ending on the current UTC
// day.
func LatestWindow(p *config.ProductConfig, now time.Time) (start, end time.Time) {
	end = now.UTC().Truncate(24 * time.Hour)
	start = end.AddDate(0, 0, -p.PeriodDays)
	return start, end
}
