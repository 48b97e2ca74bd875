package buzzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/tag-guard/internal/logger"
)

// Actuator is a PWM output that can be set to an intensity between 0 and 100 percent.
type Actuator interface {
	SetIntensity(percent int) error
	Close() error
}

const (
	// DefaultOnPercent is the duty cycle of a sounding buzzer.
	DefaultOnPercent = 50
	// maxPercent is the upper bound of an intensity.
	maxPercent = 100
)

var (
	// ErrInvalidIntensity is returned for intensities outside 0..100.
	ErrInvalidIntensity = errors.New("intensity must be between 0 and 100 percent")
	// ErrClosed is returned after the buzzer has been released.
	ErrClosed = errors.New("buzzer is closed")
)

// Buzzer switches an actuator between silent and sounding.
type Buzzer struct {
	actuator  Actuator
	onPercent int

	mu      sync.Mutex
	current int
	closed  bool
}

// New wraps actuator; onPercent outside 1..100 falls back to DefaultOnPercent.
func New(actuator Actuator, onPercent int) *Buzzer {
	if onPercent <= 0 || onPercent > maxPercent {
		onPercent = DefaultOnPercent
	}

	return &Buzzer{
		actuator:  actuator,
		onPercent: onPercent,
	}
}

// On starts the tone.
func (b *Buzzer) On(ctx context.Context) error {
	return b.set(ctx, b.onPercent)
}

// Off silences the buzzer.
func (b *Buzzer) Off(ctx context.Context) error {
	return b.set(ctx, 0)
}

// Sounding reports whether the last applied intensity is non-zero.
func (b *Buzzer) Sounding() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.current > 0
}

// Close silences and releases the actuator. Further calls are no-ops.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	silenceErr := b.actuator.SetIntensity(0)
	b.current = 0

	return errors.Join(silenceErr, b.actuator.Close())
}

// set applies percent to the actuator.
func (b *Buzzer) set(ctx context.Context, percent int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	if err := b.actuator.SetIntensity(percent); err != nil {
		return fmt.Errorf("set buzzer intensity to %d%%: %w", percent, err)
	}

	logger.DebugKV(ctx, "Buzzer intensity applied", "percent", percent)

	b.current = percent

	return nil
}

// validatePercent checks an intensity is within bounds.
func validatePercent(percent int) error {
	if percent < 0 || percent > maxPercent {
		return fmt.Errorf("%d: %w", percent, ErrInvalidIntensity)
	}

	return nil
}
