//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/tag-guard/internal/api/grpc/guard"
	"github.com/oshokin/tag-guard/internal/config"
	"github.com/oshokin/tag-guard/internal/domain/device"
	"github.com/oshokin/tag-guard/internal/domain/proximity"
	repository "github.com/oshokin/tag-guard/internal/repository/device"
)

// Client wraps the GuardService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// api is the GuardService client.
	api api.GuardClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errTokenRequired is returned when registering without a token.
	errTokenRequired = errors.New("token must be provided")
)

// Dial establishes a gRPC connection to the tag-guard daemon.
// The status endpoint is meant for localhost or a trusted LAN, so transport is insecure.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial tag-guard daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewGuardClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the current status document.
func (c *Client) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return resp, nil
}

// RegisterDevice stores token as the push target on the daemon.
func (c *Client) RegisterDevice(ctx context.Context, token string, actor *device.Actor) (*device.Registration, error) {
	if token == "" {
		return nil, errTokenRequired
	}

	request, err := repository.ToStruct(&device.Registration{Token: token, Actor: actor})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.RegisterDevice(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}

	return repository.FromStruct(response)
}

// FormatStatus renders a status document as a single readable line.
func FormatStatus(document *structpb.Struct) string {
	if document == nil {
		return "<nil status>"
	}

	fields := document.GetFields()
	target := fields[api.FieldTarget].GetStringValue()

	if !fields[api.FieldEverSeen].GetBoolValue() {
		return fmt.Sprintf("%s: not detected yet", target)
	}

	line := fmt.Sprintf("%s: %.0f dBm, last seen %.1fs ago, %.0f weak in a row",
		target,
		fields[api.FieldLastRSSI].GetNumberValue(),
		fields[api.FieldSilenceSeconds].GetNumberValue(),
		fields[api.FieldConsecutiveWeak].GetNumberValue(),
	)

	if !fields[api.FieldAlertActive].GetBoolValue() {
		return line + ", no alert"
	}

	reason := fields[api.FieldReason].GetStringValue()
	if reason == proximity.ReasonSignalLost.String() {
		reason = "signal lost"
	} else if reason == proximity.ReasonDistanceWeak.String() {
		reason = "too far"
	}

	return fmt.Sprintf("%s, ALERT (%s) until %s", line, reason, fields[api.FieldExpiresAt].GetStringValue())
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
