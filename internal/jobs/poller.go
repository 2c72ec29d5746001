package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/devcorner/tvdash/internal/core/ports"
)

// Poller refreshes every registered dashboard on a fixed schedule so TV
// screens always read warm caches. Each dashboard applies its own TTL, a
// poll tick on fresh data is a no-op.
type Poller struct {
	registry ports.DashboardRegistry
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewPoller creates a poller for the given registry
func NewPoller(registry ports.DashboardRegistry, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		registry: registry,
		interval: interval,
		cron:     cron.New(),
		logger:   logger.With("component", "poller"),
	}
}

// Start warms the caches once and then begins the polling schedule.
func (p *Poller) Start(ctx context.Context) error {
	// Warm-up runs in the background, startup must not block on Jira
	go p.RefreshAll(ctx)

	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := p.cron.AddFunc(spec, func() {
		p.RefreshAll(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule dashboard polling: %w", err)
	}

	p.cron.Start()
	p.logger.Info("dashboard polling started", "interval", p.interval.String())
	return nil
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (p *Poller) Stop() {
	stopCtx := p.cron.Stop()
	<-stopCtx.Done()
	p.logger.Info("dashboard polling stopped")
}

// RefreshAll refreshes every dashboard in registration order. A failing
// dashboard is logged and skipped, the rest still refresh.
func (p *Poller) RefreshAll(ctx context.Context) {
	for _, dashboard := range p.registry.All() {
		if err := dashboard.Refresh(ctx, false); err != nil {
			p.logger.Error("dashboard refresh failed",
				"dashboard", dashboard.Name(),
				"error", err,
			)
		}
	}
}
