package proximity

import "time"

// TimeoutMonitor detects total signal loss.
type TimeoutMonitor struct {
	// Timeout is the silence that counts as loss; exactly Timeout is not yet lost.
	Timeout time.Duration
}

// OnEvent records an accepted detection at now.
func (TimeoutMonitor) OnEvent(state *State, now time.Time) {
	state.LastSeenAt = now
	state.EverSeen = true
}

// Expired reports whether the tag, once seen, has been silent for longer than Timeout.
func (m TimeoutMonitor) Expired(state State, now time.Time) bool {
	return state.EverSeen && now.Sub(state.LastSeenAt) > m.Timeout
}

// Silence returns the time since the last detection, zero if never seen.
func (TimeoutMonitor) Silence(state State, now time.Time) time.Duration {
	if !state.EverSeen {
		return 0
	}

	return now.Sub(state.LastSeenAt)
}
