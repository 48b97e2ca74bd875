package buzzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

// TestBuzzer_OnOff verifies the on/off mapping to intensities.
func TestBuzzer_OnOff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	actuator := NewLogActuator(ctx)
	b := New(actuator, 0)

	require.NoError(t, b.On(ctx))
	require.True(t, b.Sounding())
	require.NoError(t, b.Off(ctx))
	require.False(t, b.Sounding())

	require.Equal(t, []int{DefaultOnPercent, 0}, actuator.History())
}

// TestBuzzer_CloseSilencesOnce checks Close silences the actuator and blocks later use.
func TestBuzzer_CloseSilencesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	actuator := NewLogActuator(ctx)
	b := New(actuator, 70)

	require.NoError(t, b.On(ctx))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.ErrorIs(t, b.On(ctx), ErrClosed)

	require.Equal(t, []int{70, 0}, actuator.History())
}

// TestLogActuator_RejectsOutOfRange covers intensity validation.
func TestLogActuator_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	a := NewLogActuator(context.Background())
	require.ErrorIs(t, a.SetIntensity(101), ErrInvalidIntensity)
	require.ErrorIs(t, a.SetIntensity(-1), ErrInvalidIntensity)
	require.Empty(t, a.History())
}

// TestDutyFor checks percentage to duty conversion.
func TestDutyFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, gpio.DutyMax/100*50, dutyFor(50))
	require.Equal(t, gpio.DutyMax/100*100, dutyFor(100))
	require.InDelta(t, float64(gpio.DutyHalf), float64(dutyFor(50)), float64(gpio.DutyMax)/100)
}
