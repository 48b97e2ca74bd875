package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
	"github.com/oshokin/tag-guard/internal/metrics"
)

const (
	// DefaultQueueSize bounds alerts waiting for the worker.
	DefaultQueueSize = 8
	// DefaultSendTimeout bounds one delivery attempt.
	DefaultSendTimeout = 10 * time.Second
)

// job is one queued alert.
type job struct {
	id     uuid.UUID
	reason proximity.Reason
	queued time.Time
}

// Dispatcher sends alerts on a background worker.
type Dispatcher struct {
	sender      Sender
	metrics     *metrics.Metrics
	queue       chan job
	sendTimeout time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize overrides the queue capacity.
func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan job, size)
		}
	}
}

// WithSendTimeout overrides the per-attempt timeout.
func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithMetrics records attempt outcomes in m.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher for sender. Run must be started for alerts to leave.
func NewDispatcher(sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		queue:       make(chan job, DefaultQueueSize),
		sendTimeout: DefaultSendTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// SendAlert queues an alert and returns immediately. A full queue drops the alert.
func (d *Dispatcher) SendAlert(ctx context.Context, reason proximity.Reason) {
	j := job{
		id:     uuid.New(),
		reason: reason,
		queued: time.Now(),
	}

	select {
	case d.queue <- j:
		logger.DebugKV(ctx, "Push queued", "dispatch_id", j.id, "reason", reason)
	default:
		d.metrics.Notification(metrics.OutcomeDropped)
		logger.WarnKV(ctx, "Push queue full, alert dropped", "dispatch_id", j.id, "reason", reason)
	}
}

// Run delivers queued alerts until ctx is done. Alerts still queued at that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "notify")

	for {
		select {
		case <-ctx.Done():
			if pending := len(d.queue); pending > 0 {
				logger.WarnKV(ctx, "Discarding undelivered pushes", "pending", pending)
			}

			return nil
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

// deliver makes the single attempt for j.
func (d *Dispatcher) deliver(ctx context.Context, j job) {
	ctx = logger.WithFields(ctx, "dispatch_id", j.id, "reason", j.reason)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := d.sender.Send(sendCtx, MessageFor(j.reason))

	switch {
	case err == nil:
		d.metrics.Notification(metrics.OutcomeDelivered)
		logger.InfoKV(ctx, "Push delivered", "latency", time.Since(j.queued))
	case errors.Is(err, ErrDisabled):
		d.metrics.Notification(metrics.OutcomeDropped)
		logger.WarnKV(ctx, "Push skipped, buzzer-only alerting", "error", err)
	default:
		d.metrics.Notification(metrics.OutcomeFailed)
		logger.ErrorKV(ctx, "Push delivery failed", "error", err)
	}
}
