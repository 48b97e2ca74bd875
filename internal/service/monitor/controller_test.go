package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/metrics"
)

const testTag = "CHILD_TAG"

// stockSettings mirrors the default configuration.
func stockSettings() Settings {
	return Settings{
		Target:            testTag,
		RSSIThreshold:     -75,
		DangerThreshold:   5,
		AlertDuration:     3 * time.Second,
		SignalLossTimeout: 10 * time.Second,
	}
}

// newTestController returns a controller wired to fakes.
func newTestController() (*Controller, *fakeBuzzer, *fakeNotifier) {
	buzzer := new(fakeBuzzer)
	notifier := new(fakeNotifier)

	return NewController(stockSettings(), buzzer, notifier, nil), buzzer, notifier
}

// feed sends rssi samples of the tag one second apart starting at start and returns the verdicts.
func feed(c *Controller, start time.Time, samples ...int) []proximity.Verdict {
	verdicts := make([]proximity.Verdict, 0, len(samples))

	for i, rssi := range samples {
		v, _ := c.HandleAdvertisement(context.Background(), proximity.Advertisement{
			Name:       testTag,
			RSSI:       rssi,
			ObservedAt: start.Add(time.Duration(i) * time.Second),
		})
		verdicts = append(verdicts, v)
	}

	return verdicts
}

// TestController_DistanceTriggerOnSixthSample feeds -60 then five -80 samples.
func TestController_DistanceTriggerOnSixthSample(t *testing.T) {
	t.Parallel()

	c, buzzer, notifier := newTestController()
	start := time.Unix(1_700_000_000, 0)

	feed(c, start, -60, -80, -80, -80, -80)

	on, _, _ := buzzer.counts()
	require.Zero(t, on, "no alert before the fifth weak sample")
	require.True(t, c.Snapshot().Alert.Idle())

	feed(c, start.Add(5*time.Second), -80)

	snap := c.Snapshot()
	require.True(t, snap.Alert.Active)
	require.Equal(t, proximity.ReasonDistanceWeak, snap.Alert.Reason)
	require.Equal(t, start.Add(5*time.Second), snap.Alert.TriggeredAt)
	require.Equal(t, start.Add(8*time.Second), snap.Alert.ExpiresAt)
	require.Equal(t, uint(5), snap.State.ConsecutiveWeak)

	on, _, _ = buzzer.counts()
	require.Equal(t, 1, on)
	require.Equal(t, []proximity.Reason{proximity.ReasonDistanceWeak}, notifier.sent())
}

// TestController_NoRetriggerWhileActive checks extra weak samples are deduplicated.
func TestController_NoRetriggerWhileActive(t *testing.T) {
	t.Parallel()

	c, buzzer, notifier := newTestController()
	start := time.Unix(1_700_000_000, 0)

	verdicts := feed(c, start, -80, -80, -80, -80, -80, -81, -90, -99)
	require.Equal(t, proximity.VerdictDistanceTrigger, verdicts[len(verdicts)-1])

	on, _, _ := buzzer.counts()
	require.Equal(t, 1, on)
	require.Len(t, notifier.sent(), 1)
	require.Equal(t, uint(8), c.Snapshot().State.ConsecutiveWeak)
}

// TestController_SafeReadingClearsImmediately verifies the reading-based clear path.
func TestController_SafeReadingClearsImmediately(t *testing.T) {
	t.Parallel()

	c, buzzer, _ := newTestController()
	start := time.Unix(1_700_000_000, 0)

	feed(c, start, -80, -80, -80, -80, -80)
	require.True(t, c.Snapshot().Alert.Active)

	// 100ms into a 3s window.
	v, ok := c.HandleAdvertisement(context.Background(), proximity.Advertisement{
		Name:       testTag,
		RSSI:       -60,
		ObservedAt: start.Add(4*time.Second + 100*time.Millisecond),
	})
	require.True(t, ok)
	require.Equal(t, proximity.VerdictSafe, v)

	snap := c.Snapshot()
	require.True(t, snap.Alert.Idle())
	require.Zero(t, snap.State.ConsecutiveWeak)
	require.Equal(t, []string{"on", "off"}, buzzer.calls)
}

// TestController_ExpiresAfterDuration checks the time-based clear path and its idempotence.
func TestController_ExpiresAfterDuration(t *testing.T) {
	t.Parallel()

	c, buzzer, _ := newTestController()
	start := time.Unix(1_700_000_000, 0)

	feed(c, start, -80, -80, -80, -80, -80)
	triggeredAt := c.Snapshot().Alert.TriggeredAt

	c.Tick(context.Background(), triggeredAt.Add(3*time.Second-time.Millisecond))
	require.True(t, c.Snapshot().Alert.Active)

	c.Tick(context.Background(), triggeredAt.Add(3*time.Second))
	require.True(t, c.Snapshot().Alert.Idle())

	c.Tick(context.Background(), triggeredAt.Add(4*time.Second))

	on, off, _ := buzzer.counts()
	require.Equal(t, 1, on)
	require.Equal(t, 1, off)
}

// TestController_SignalLossFiresOnce covers the timeout trigger and its dedup.
func TestController_SignalLossFiresOnce(t *testing.T) {
	t.Parallel()

	c, buzzer, notifier := newTestController()
	start := time.Unix(1_700_000_000, 0)

	feed(c, start, -60)

	c.Tick(context.Background(), start.Add(10*time.Second))
	require.True(t, c.Snapshot().Alert.Idle(), "exactly 10s of silence is not a loss")

	c.Tick(context.Background(), start.Add(11*time.Second))
	c.Tick(context.Background(), start.Add(12*time.Second))
	c.Tick(context.Background(), start.Add(13*time.Second))

	snap := c.Snapshot()
	require.True(t, snap.Alert.Active)
	require.Equal(t, proximity.ReasonSignalLost, snap.Alert.Reason)

	on, _, _ := buzzer.counts()
	require.Equal(t, 1, on)
	require.Equal(t, []proximity.Reason{proximity.ReasonSignalLost}, notifier.sent())

	// A fresh safe reading proves the tag is back.
	feed(c, start.Add(13500*time.Millisecond), -55)
	require.True(t, c.Snapshot().Alert.Idle())
}

// TestController_NeverSeenNeverLost ensures the timeout is armed by the first detection only.
func TestController_NeverSeenNeverLost(t *testing.T) {
	t.Parallel()

	c, buzzer, _ := newTestController()
	start := time.Unix(1_700_000_000, 0)

	for i := range 30 {
		c.Tick(context.Background(), start.Add(time.Duration(i)*time.Second))
	}

	on, _, _ := buzzer.counts()
	require.Zero(t, on)
}

// TestController_ConcurrentTriggersDedup fires the distance and timeout triggers together.
func TestController_ConcurrentTriggersDedup(t *testing.T) {
	t.Parallel()

	for range 50 {
		c, buzzer, notifier := newTestController()
		start := time.Unix(1_700_000_000, 0)

		feed(c, start, -80, -80, -80, -80)

		lastSeen := start.Add(3 * time.Second)

		var wg sync.WaitGroup

		wg.Go(func() {
			// A late record still carrying the last-seen time: fifth weak sample.
			c.HandleAdvertisement(context.Background(), proximity.Advertisement{
				Name:       testTag,
				RSSI:       -85,
				ObservedAt: lastSeen,
			})
		})
		wg.Go(func() {
			c.Tick(context.Background(), lastSeen.Add(11*time.Second))
		})
		wg.Wait()

		on, _, _ := buzzer.counts()
		require.Equal(t, 1, on)
		require.Len(t, notifier.sent(), 1)
	}
}

// TestController_IgnoresOtherDevices ensures foreign advertisements leave state untouched.
func TestController_IgnoresOtherDevices(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewController(stockSettings(), new(fakeBuzzer), new(fakeNotifier), m)

	_, ok := c.HandleAdvertisement(context.Background(), proximity.Advertisement{Name: "PHONE", RSSI: -90})
	require.False(t, ok)

	snap := c.Snapshot()
	require.False(t, snap.State.EverSeen)
	require.Zero(t, snap.State.ConsecutiveWeak)
	require.InDelta(t, 1, testutil.ToFloat64(m.AdvertisementsIgnored), 0)
}

// TestController_BuzzerFailureKeepsStateMachine verifies actuator errors do not block alerting.
func TestController_BuzzerFailureKeepsStateMachine(t *testing.T) {
	t.Parallel()

	buzzer := &fakeBuzzer{failOn: true}
	notifier := new(fakeNotifier)
	c := NewController(stockSettings(), buzzer, notifier, nil)

	feed(c, time.Unix(1_700_000_000, 0), -80, -80, -80, -80, -80)

	require.True(t, c.Snapshot().Alert.Active)
	require.Len(t, notifier.sent(), 1)
}

// TestController_ZeroObservedAtUsesClock checks records without a timestamp get the controller time.
func TestController_ZeroObservedAtUsesClock(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestController()
	fixed := time.Unix(1_800_000_000, 0)
	c.now = func() time.Time { return fixed }

	c.HandleAdvertisement(context.Background(), proximity.Advertisement{Name: testTag, RSSI: -50})

	snap := c.Snapshot()
	require.Equal(t, fixed, snap.State.LastSeenAt)
	require.Equal(t, -50, snap.State.LastRSSI)
}
