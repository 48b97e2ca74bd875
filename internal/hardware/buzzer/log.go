package buzzer

import (
	"context"
	"sync"

	"github.com/oshokin/tag-guard/internal/logger"
)

// LogActuator stands in for the hardware in dry runs: it only logs intensity changes.
type LogActuator struct {
	ctx context.Context //nolint:containedctx // Carries the logger, not a deadline.

	mu      sync.Mutex
	history []int
}

// NewLogActuator returns an actuator logging through the logger in ctx.
func NewLogActuator(ctx context.Context) *LogActuator {
	return &LogActuator{ctx: logger.WithName(ctx, "buzzer")}
}

// SetIntensity records and logs percent.
func (a *LogActuator) SetIntensity(percent int) error {
	if err := validatePercent(percent); err != nil {
		return err
	}

	a.mu.Lock()
	a.history = append(a.history, percent)
	a.mu.Unlock()

	if percent > 0 {
		logger.InfoKV(a.ctx, "BEEP (dry run)", "percent", percent)
	} else {
		logger.DebugKV(a.ctx, "Buzzer silent (dry run)")
	}

	return nil
}

// History returns every intensity applied so far.
func (a *LogActuator) History() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]int(nil), a.history...)
}

// Close is a no-op.
func (*LogActuator) Close() error {
	return nil
}
