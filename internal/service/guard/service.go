package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/tag-guard/internal/domain/device"
	"github.com/oshokin/tag-guard/internal/domain/proximity"
	"github.com/oshokin/tag-guard/internal/logger"
	"github.com/oshokin/tag-guard/internal/notify"
	repo "github.com/oshokin/tag-guard/internal/repository/device"
)

// snapshotter provides the monitor state.
type snapshotter interface {
	Snapshot() proximity.Snapshot
}

// service answers status queries and owns the push target registration.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of the registration.
	repo repo.Repository
	// fallbackToken is the configured static device token.
	fallbackToken string
	// monitor provides status snapshots once attached.
	monitor snapshotter
	// now is the registration clock.
	now func() time.Time

	// mu protects registration and monitor.
	mu           sync.RWMutex
	registration *device.Registration
}

// newService creates a service backed by the provided repository.
func newService(ctx context.Context, repository repo.Repository, fallbackToken string) (*service, error) {
	s := &service{
		repo:          repository,
		fallbackToken: fallbackToken,
		now:           time.Now,
	}

	if repository == nil {
		return s, nil
	}

	registration, err := repository.Load(ctx)
	switch {
	case err == nil:
		s.registration = registration
		logger.InfoKV(ctx, "Push target loaded", "token", registration.MaskedToken(), "actor", registration.Actor)
	case errors.Is(err, repo.ErrNotFound):
		// No phone registered yet.
	default:
		return nil, fmt.Errorf("load device registration: %w", err)
	}

	return s, nil
}

// attach connects the monitor whose state Status reports.
func (s *service) attach(monitor snapshotter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.monitor = monitor
}

// Status returns the current monitor snapshot.
func (s *service) Status(_ context.Context) proximity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.monitor == nil {
		return proximity.Snapshot{At: s.now()}
	}

	return s.monitor.Snapshot()
}

// RegisterDevice replaces the push target and persists it.
func (s *service) RegisterDevice(ctx context.Context, token string, actor *device.Actor) (*device.Registration, error) {
	registration, err := device.NewRegistration(token, actor, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, registration); err != nil {
			logger.Errorf(ctx, "Failed to persist device registration: %v", err)

			return nil, fmt.Errorf("persist registration: %w", err)
		}
	}

	s.registration = registration

	logger.InfoKV(ctx, "Push target registered", "token", registration.MaskedToken(), "actor", registration.Actor)

	return registration.Clone(), nil
}

// DeviceToken resolves the push target: the registered phone, else the configured token.
func (s *service) DeviceToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.registration != nil {
		return s.registration.Token, nil
	}

	if s.fallbackToken != "" {
		return s.fallbackToken, nil
	}

	return "", notify.ErrNoDeviceToken
}
