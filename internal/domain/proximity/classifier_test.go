package proximity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// stockClassifier mirrors the default settings.
var stockClassifier = Classifier{Threshold: -75, Danger: 5} //nolint:gochecknoglobals // Shared test fixture.

// TestClassify_ResetsOnlyOnSafe checks the counter resets exactly on samples above the threshold.
func TestClassify_ResetsOnlyOnSafe(t *testing.T) {
	t.Parallel()

	samples := []int{-80, -76, -75, -74, -90, -60, -75, -75}
	want := []uint{1, 2, 3, 0, 1, 0, 1, 2}

	var count uint
	for i, rssi := range samples {
		var verdict Verdict

		count, verdict = stockClassifier.Classify(count, rssi)
		require.Equal(t, want[i], count, "sample %d (%d dBm)", i, rssi)
		require.Equal(t, rssi > -75, verdict == VerdictSafe, "sample %d", i)
	}
}

// TestClassify_TriggersAtDangerCount verifies the sequence -60, then five -80 samples.
func TestClassify_TriggersAtDangerCount(t *testing.T) {
	t.Parallel()

	var (
		count    uint
		verdicts []Verdict
	)

	for _, rssi := range []int{-60, -80, -80, -80, -80, -80, -80} {
		var v Verdict

		count, v = stockClassifier.Classify(count, rssi)
		verdicts = append(verdicts, v)
	}

	require.Equal(t, []Verdict{
		VerdictSafe,
		VerdictWeak, VerdictWeak, VerdictWeak, VerdictWeak,
		VerdictDistanceTrigger,
		VerdictDistanceTrigger,
	}, verdicts)
	require.Equal(t, uint(6), count)
}

// TestClassify_Saturates ensures the counter never wraps to zero.
func TestClassify_Saturates(t *testing.T) {
	t.Parallel()

	count, v := stockClassifier.Classify(math.MaxUint, -100)
	require.Equal(t, uint(math.MaxUint), count)
	require.Equal(t, VerdictDistanceTrigger, v)
}

// TestVerdictAndReasonStrings covers the log names.
func TestVerdictAndReasonStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "distance_trigger", VerdictDistanceTrigger.String())
	require.Equal(t, "distance_weak", ReasonDistanceWeak.String())
	require.Equal(t, "signal_lost", ReasonSignalLost.String())
	require.Equal(t, "unknown", Reason(0).String())
}
