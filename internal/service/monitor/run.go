package monitor

import (
	"context"
	"time"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
)

// DefaultTickInterval is the period of timeout and expiry checks.
const DefaultTickInterval = time.Second

// Run consumes advertisements in arrival order, interleaved with ticks, until ctx is done.
// The buzzer is silenced and released on every return path.
// A closed advertisements channel stops event intake but not the ticks,
// so a scanner that ends is eventually reported as signal loss.
func (c *Controller) Run(ctx context.Context, advertisements <-chan proximity.Advertisement, tick time.Duration) error {
	ctx = logger.WithName(ctx, "monitor")

	defer c.shutdown(context.WithoutCancel(ctx))

	if tick <= 0 {
		tick = DefaultTickInterval
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Monitoring tag", "target", c.filter.Target, "tick", tick.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, stopping monitor")
			return nil
		case adv, ok := <-advertisements:
			if !ok {
				logger.Warnf(ctx, "Advertisement stream closed, only timeouts are evaluated from now on")

				advertisements = nil

				continue
			}

			c.HandleAdvertisement(ctx, adv)
		case now := <-ticker.C:
			c.Tick(ctx, now)
		}
	}
}
