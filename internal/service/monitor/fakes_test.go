package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
)

var errTestBuzzer = errors.New("test buzzer failure")

// fakeBuzzer counts actuator calls.
type fakeBuzzer struct {
	mu sync.Mutex
	// on is the number of On calls.
	on int
	// off is the number of Off calls.
	off int
	// closed is the number of Close calls.
	closed int
	// calls records the call order.
	calls []string
	// failOn makes On return an error.
	failOn bool
}

func (b *fakeBuzzer) On(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.on++
	b.calls = append(b.calls, "on")

	if b.failOn {
		return errTestBuzzer
	}

	return nil
}

func (b *fakeBuzzer) Off(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.off++
	b.calls = append(b.calls, "off")

	return nil
}

func (b *fakeBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed++
	b.calls = append(b.calls, "close")

	return nil
}

// counts returns on, off and close counters.
func (b *fakeBuzzer) counts() (on, off, closed int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.on, b.off, b.closed
}

// fakeNotifier records dispatched reasons.
type fakeNotifier struct {
	mu      sync.Mutex
	reasons []proximity.Reason
}

func (n *fakeNotifier) SendAlert(_ context.Context, reason proximity.Reason) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.reasons = append(n.reasons, reason)
}

// sent returns a copy of the dispatched reasons.
func (n *fakeNotifier) sent() []proximity.Reason {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]proximity.Reason(nil), n.reasons...)
}
