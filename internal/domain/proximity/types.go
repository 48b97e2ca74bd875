package proximity

import "time"

// Reason tells why an alert was raised.
type Reason int

const (
	// ReasonDistanceWeak is raised after enough consecutive weak samples.
	ReasonDistanceWeak Reason = iota + 1
	// ReasonSignalLost is raised when the tag has been silent for too long.
	ReasonSignalLost
)

// String returns the wire and log name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonDistanceWeak:
		return "distance_weak"
	case ReasonSignalLost:
		return "signal_lost"
	default:
		return "unknown"
	}
}

// Advertisement is a raw record reported by the scanning collaborator.
type Advertisement struct {
	// Name is the advertised local name of the device.
	Name string
	// RSSI is the received signal strength in dBm.
	RSSI int
	// ObservedAt is when the advertisement was received.
	ObservedAt time.Time
}

// DetectionEvent is an advertisement of the tracked tag.
type DetectionEvent struct {
	TagMatched bool
	RSSI       int
	ObservedAt time.Time
}

// State is the proximity bookkeeping of the tracked tag.
type State struct {
	// ConsecutiveWeak counts weak samples since the last safe one.
	ConsecutiveWeak uint
	// LastSeenAt is the time of the last accepted event.
	LastSeenAt time.Time
	// EverSeen is false until the tag is detected for the first time.
	EverSeen bool
	// LastRSSI is the signal strength of the last accepted event.
	LastRSSI int
}

// Alert is the alert lifecycle state. The zero value is Idle.
type Alert struct {
	// Active is true while an alert episode is in progress.
	Active bool
	// Reason is the trigger of the active episode.
	Reason Reason
	// TriggeredAt is when the episode began.
	TriggeredAt time.Time
	// ExpiresAt is when the episode ends on its own.
	ExpiresAt time.Time
}

// Idle reports whether no alert is in progress.
func (a Alert) Idle() bool {
	return !a.Active
}

// Remaining returns how long the active episode still lasts at now, zero when idle or expired.
func (a Alert) Remaining(now time.Time) time.Duration {
	if !a.Active || !now.Before(a.ExpiresAt) {
		return 0
	}

	return a.ExpiresAt.Sub(now)
}

// Snapshot is a point-in-time copy of the controller state, used for status reporting.
type Snapshot struct {
	// Target is the tracked tag name.
	Target string
	// State is the proximity bookkeeping.
	State State
	// Alert is the alert lifecycle state.
	Alert Alert
	// At is when the snapshot was taken.
	At time.Time
}
