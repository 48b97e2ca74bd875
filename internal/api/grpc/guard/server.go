package guard

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/tag-guard/internal/domain/device"
	"github.com/oshokin/tag-guard/internal/domain/proximity"
	repository "github.com/oshokin/tag-guard/internal/repository/device"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Status(ctx context.Context) proximity.Snapshot
	RegisterDevice(ctx context.Context, token string, actor *domain.Actor) (*domain.Registration, error)
}

// Field names of status documents.
const (
	FieldTarget          = "target"
	FieldAlertActive     = "alert_active"
	FieldReason          = "reason"
	FieldTriggeredAt     = "triggered_at"
	FieldExpiresAt       = "expires_at"
	FieldEverSeen        = "ever_seen"
	FieldLastSeenAt      = "last_seen_at"
	FieldLastRSSI        = "last_rssi"
	FieldConsecutiveWeak = "consecutive_weak"
	FieldSilenceSeconds  = "silence_seconds"
)

// Server implements GuardService.
type Server struct {
	// service provides the business logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetStatus returns the current proximity and alert state.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	document, err := StatusToStruct(s.service.Status(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to render status")
	}

	return document, nil
}

// RegisterDevice stores the push token carried in the "token" field.
func (s *Server) RegisterDevice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	registration, err := repository.FromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	stored, err := s.service.RegisterDevice(ctx, registration.Token, registration.Actor)

	switch {
	case errors.Is(err, domain.ErrEmptyToken):
		return nil, status.Error(codes.InvalidArgument, "token is required")
	case err != nil:
		return nil, status.Error(codes.Internal, "unable to persist registration")
	}

	document, err := repository.ToStruct(stored)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to render registration")
	}

	return document, nil
}

// StatusToStruct renders a snapshot as a status document.
func StatusToStruct(snapshot proximity.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{
		FieldTarget:          snapshot.Target,
		FieldAlertActive:     snapshot.Alert.Active,
		FieldEverSeen:        snapshot.State.EverSeen,
		FieldConsecutiveWeak: snapshot.State.ConsecutiveWeak,
	}

	if snapshot.Alert.Active {
		fields[FieldReason] = snapshot.Alert.Reason.String()
		fields[FieldTriggeredAt] = formatTime(snapshot.Alert.TriggeredAt)
		fields[FieldExpiresAt] = formatTime(snapshot.Alert.ExpiresAt)
	}

	if snapshot.State.EverSeen {
		fields[FieldLastSeenAt] = formatTime(snapshot.State.LastSeenAt)
		fields[FieldLastRSSI] = snapshot.State.LastRSSI
		fields[FieldSilenceSeconds] = snapshot.At.Sub(snapshot.State.LastSeenAt).Seconds()
	}

	return structpb.NewStruct(fields)
}

// formatTime renders t for status documents.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
