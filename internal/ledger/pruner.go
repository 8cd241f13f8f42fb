package ledger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/byoncocare/oncobot/pkg/logging"
)

// Pruner deletes expired ledger rows on a schedule.
type Pruner struct {
	ledger    *Ledger
	retention time.Duration
	logger    *logging.Logger
	cron      *cron.Cron
}

func NewPruner(ledger *Ledger, retention time.Duration, logger *logging.Logger) *Pruner {
	return &Pruner{
		ledger:    ledger,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start schedules a daily prune and returns immediately. Call Stop on
// shutdown.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc("@daily", p.runOnce)
	if err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *Pruner) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := p.ledger.Prune(ctx, p.retention)
	if err != nil {
		p.logger.Error("ledger prune failed", "error", err)
		return
	}
	p.logger.Info("ledger pruned", "removed", removed, "retention", p.retention.String())
}
