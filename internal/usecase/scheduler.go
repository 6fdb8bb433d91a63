package usecase

import (
	"context"
	"log/slog"
	"time"

	"ArticleAugmenter/internal/logging"
	"ArticleAugmenter/internal/ports"
)

// Poller re-runs a batch on every scheduler tick.
type Poller struct {
	driver ports.Scheduler
	batch  *Batch
	ref    string
	report func([]Report)
	logger *slog.Logger
}

// NewPoller wires a scheduler with the batch for ref. report receives the
// result of every successful run and may be nil.
func NewPoller(driver ports.Scheduler, batch *Batch, ref string, report func([]Report), logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Poller{driver: driver, batch: batch, ref: ref, report: report, logger: logger}
}

// Start registers the batch with the scheduler.
func (p *Poller) Start(ctx context.Context) error {
	if p.driver == nil || p.batch == nil {
		return nil
	}

	job := func(trigger time.Time) {
		reports, err := p.batch.Process(ctx, p.ref)
		if err != nil {
			p.logger.Warn("poll failed", "ref", p.ref, "trigger", trigger, "error", err)
			return
		}
		if p.report != nil {
			p.report(reports)
		}
	}

	return p.driver.Start(ctx, job)
}

// Stop tears down the underlying scheduler.
func (p *Poller) Stop(ctx context.Context) error {
	if p.driver == nil {
		return nil
	}
	return p.driver.Stop(ctx)
}
