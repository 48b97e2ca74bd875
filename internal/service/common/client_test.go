//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/tag-guard/internal/api/grpc/guard"
	"github.com/oshokin/tag-guard/internal/domain/proximity"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestRegisterDevice_EmptyToken asserts that an empty token is rejected locally.
func TestRegisterDevice_EmptyToken(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.RegisterDevice(context.Background(), "", nil)
	require.Error(t, err)
}

// TestFormatStatus renders idle, unseen and alerting documents.
func TestFormatStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<nil status>", FormatStatus(nil))

	unseen, err := api.StatusToStruct(proximity.Snapshot{Target: "CHILD_TAG"})
	require.NoError(t, err)
	require.Equal(t, "CHILD_TAG: not detected yet", FormatStatus(unseen))

	now := time.Unix(1_700_000_000, 0)
	alerting, err := api.StatusToStruct(proximity.Snapshot{
		Target: "CHILD_TAG",
		State:  proximity.State{EverSeen: true, LastSeenAt: now, LastRSSI: -82, ConsecutiveWeak: 5},
		Alert:  proximity.Alert{Active: true, Reason: proximity.ReasonDistanceWeak, TriggeredAt: now, ExpiresAt: now.Add(3 * time.Second)},
		At:     now.Add(500 * time.Millisecond),
	})
	require.NoError(t, err)
	require.Equal(t,
		"CHILD_TAG: -82 dBm, last seen 0.5s ago, 5 weak in a row, ALERT (too far) until 2023-11-14T22:13:23Z",
		FormatStatus(alerting),
	)

	idle := &structpb.Struct{Fields: map[string]*structpb.Value{
		api.FieldTarget:   structpb.NewStringValue("CHILD_TAG"),
		api.FieldEverSeen: structpb.NewBoolValue(true),
		api.FieldLastRSSI: structpb.NewNumberValue(-60),
	}}
	require.Equal(t, "CHILD_TAG: -60 dBm, last seen 0.0s ago, 0 weak in a row, no alert", FormatStatus(idle))
}
