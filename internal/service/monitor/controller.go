package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
	"github.com/oshokin/tag-guard/internal/metrics"
)

// Buzzer is the local actuator sounding an alert.
type Buzzer interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
	Close() error
}

// Notifier delivers remote alerts. SendAlert must return without waiting for delivery.
type Notifier interface {
	SendAlert(ctx context.Context, reason proximity.Reason)
}

// Settings holds the decision parameters of the controller.
type Settings struct {
	// Target is the advertised name of the tracked tag.
	Target string
	// RSSIThreshold is the dBm value a sample must exceed to be safe.
	RSSIThreshold int
	// DangerThreshold is the consecutive weak samples that raise a distance alert.
	DangerThreshold uint
	// AlertDuration is the length of one alert episode.
	AlertDuration time.Duration
	// SignalLossTimeout is the silence that raises a signal-lost alert.
	SignalLossTimeout time.Duration
}

// Controller decides when to raise and clear alerts.
type Controller struct {
	filter        proximity.Filter
	classifier    proximity.Classifier
	timeout       proximity.TimeoutMonitor
	alertDuration time.Duration

	buzzer   Buzzer
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time

	// mu guards state and alert; every transition happens with it held.
	mu    sync.Mutex
	state proximity.State
	alert proximity.Alert
}

// NewController creates an idle controller. m may be nil.
func NewController(settings Settings, buzzer Buzzer, notifier Notifier, m *metrics.Metrics) *Controller {
	return &Controller{
		filter: proximity.Filter{Target: settings.Target},
		classifier: proximity.Classifier{
			Threshold: settings.RSSIThreshold,
			Danger:    settings.DangerThreshold,
		},
		timeout:       proximity.TimeoutMonitor{Timeout: settings.SignalLossTimeout},
		alertDuration: settings.AlertDuration,
		buzzer:        buzzer,
		notifier:      notifier,
		metrics:       m,
		now:           time.Now,
	}
}

// HandleAdvertisement processes one scanner record.
// It returns the verdict and false when the record was not from the tag.
func (c *Controller) HandleAdvertisement(ctx context.Context, adv proximity.Advertisement) (proximity.Verdict, bool) {
	event, ok := c.filter.Accept(adv)
	if !ok {
		c.metrics.IgnoreAdvertisement()
		return proximity.VerdictSafe, false
	}

	now := event.ObservedAt
	if now.IsZero() {
		now = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeout.OnEvent(&c.state, now)
	c.state.LastRSSI = event.RSSI

	count, verdict := c.classifier.Classify(c.state.ConsecutiveWeak, event.RSSI)
	c.state.ConsecutiveWeak = count
	c.metrics.ObserveSample(event.RSSI, count)

	switch verdict {
	case proximity.VerdictSafe:
		logger.DebugKV(ctx, "Tag sample", "rssi", event.RSSI)
		c.observeSafe(ctx, now)
	case proximity.VerdictWeak:
		logger.InfoKV(ctx, "Weak tag sample", "rssi", event.RSSI, "consecutive_weak", count)
	case proximity.VerdictDistanceTrigger:
		logger.WarnKV(ctx, "Tag too far", "rssi", event.RSSI, "consecutive_weak", count)
		c.trigger(ctx, proximity.ReasonDistanceWeak, now)
	}

	return verdict, true
}

// Tick runs the periodic checks: signal loss first, then expiry.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout.Expired(c.state, now) {
		if c.alert.Idle() {
			logger.WarnKV(ctx, "Tag signal lost", "silence", c.timeout.Silence(c.state, now).Truncate(time.Second))
		}

		c.trigger(ctx, proximity.ReasonSignalLost, now)
	}

	c.tickExpire(ctx, now)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() proximity.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return proximity.Snapshot{
		Target: c.filter.Target,
		State:  c.state,
		Alert:  c.alert,
		At:     c.now(),
	}
}

// trigger starts an episode unless one is already active.
func (c *Controller) trigger(ctx context.Context, reason proximity.Reason, now time.Time) {
	if c.alert.Active {
		return
	}

	c.alert = proximity.Alert{
		Active:      true,
		Reason:      reason,
		TriggeredAt: now,
		ExpiresAt:   now.Add(c.alertDuration),
	}

	logger.WarnKV(ctx, "Alert triggered", "reason", reason, "duration", c.alertDuration)
	c.metrics.AlertStarted(reason.String())

	if err := c.buzzer.On(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to start buzzer", "error", err)
	}

	c.notifier.SendAlert(ctx, reason)
}

// observeSafe ends an active episode as soon as the tag reads safe again.
func (c *Controller) observeSafe(ctx context.Context, now time.Time) {
	if c.alert.Idle() {
		return
	}

	logger.InfoKV(ctx, "Alert cleared by safe reading", "remaining", c.alert.Remaining(now))
	c.clear(ctx, metrics.ClearedBySafe)
}

// tickExpire ends an active episode once its window is over.
func (c *Controller) tickExpire(ctx context.Context, now time.Time) {
	if c.alert.Idle() || now.Before(c.alert.ExpiresAt) {
		return
	}

	logger.InfoKV(ctx, "Alert expired", "reason", c.alert.Reason, "duration", c.alertDuration)
	c.clear(ctx, metrics.ClearedByExpiry)
}

// clear moves to Idle and silences the buzzer.
func (c *Controller) clear(ctx context.Context, cause string) {
	c.alert = proximity.Alert{}
	c.metrics.AlertEnded(cause)

	if err := c.buzzer.Off(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to stop buzzer", "error", err)
	}
}

// shutdown silences and releases the buzzer.
func (c *Controller) shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.alert.Active {
		c.alert = proximity.Alert{}
		c.metrics.AlertEnded(metrics.ClearedByStop)
	}

	if err := c.buzzer.Off(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to stop buzzer on shutdown", "error", err)
	}

	if err := c.buzzer.Close(); err != nil {
		logger.ErrorKV(ctx, "Failed to release buzzer", "error", err)
	}
}
