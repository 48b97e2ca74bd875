package proximity

import "math"

// Verdict is the classification of one sample.
type Verdict int

const (
	// VerdictSafe means the tag is close; the weak counter resets.
	VerdictSafe Verdict = iota
	// VerdictWeak is a weak sample below the danger count.
	VerdictWeak
	// VerdictDistanceTrigger is a weak sample at or above the danger count.
	VerdictDistanceTrigger
)

// String returns a readable verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "safe"
	case VerdictWeak:
		return "weak"
	case VerdictDistanceTrigger:
		return "distance_trigger"
	default:
		return "unknown"
	}
}

// Classifier debounces weak signal samples.
type Classifier struct {
	// Threshold is the dBm value a sample must exceed to be safe.
	Threshold int
	// Danger is the consecutive weak count that yields a trigger.
	Danger uint
}

// Classify returns the new weak counter and the verdict for rssi.
// The counter keeps growing past Danger and saturates instead of wrapping.
func (c Classifier) Classify(count uint, rssi int) (uint, Verdict) {
	if rssi > c.Threshold {
		return 0, VerdictSafe
	}

	if count < math.MaxUint {
		count++
	}

	if count >= c.Danger {
		return count, VerdictDistanceTrigger
	}

	return count, VerdictWeak
}
