package device

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyToken is returned when a registration carries no push token.
var ErrEmptyToken = errors.New("device token is empty")

// Actor identifies who registered a device.
type Actor struct {
	// Hostname is the machine the registration came from.
	Hostname string
	// Username is the system user who registered.
	Username string
}

// Clone returns a copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Registration is the push target currently receiving alerts.
type Registration struct {
	// Token is the FCM registration token of the phone.
	Token string
	// RegisteredAt is when the token was stored.
	RegisteredAt time.Time
	// Actor is who registered the token.
	Actor *Actor
}

// NewRegistration validates token and builds a registration stamped at now.
func NewRegistration(token string, actor *Actor, now time.Time) (*Registration, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	return &Registration{
		Token:        token,
		RegisteredAt: now,
		Actor:        actor.Clone(),
	}, nil
}

// Clone returns a copy of the registration.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}

	return &Registration{
		Token:        r.Token,
		RegisteredAt: r.RegisteredAt,
		Actor:        r.Actor.Clone(),
	}
}

// MaskedToken returns the token with its middle elided, for logs.
func (r *Registration) MaskedToken() string {
	const visible = 6

	if r == nil || len(r.Token) <= 2*visible {
		return "***"
	}

	return r.Token[:visible] + "..." + r.Token[len(r.Token)-visible:]
}
