package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/tag-guard/internal/config"
	domain "github.com/oshokin/tag-guard/internal/domain/device"
)

// Repository defines persistence operations for the device registration.
type Repository interface {
	Load(ctx context.Context) (*domain.Registration, error)
	Save(ctx context.Context, registration *domain.Registration) error
}

// FileRepository persists the registration to a JSON file on disk.
// The document is a protobuf Struct rendered with protojson, the same shape the
// gRPC API returns for a registration.
type FileRepository struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu serialises access to the file.
	mu sync.Mutex
}

// Keys of the stored document.
const (
	keyToken        = "token"
	keyRegisteredAt = "registered_at"
	keyHostname     = "hostname"
	keyUsername     = "username"
)

var (
	// ErrNotFound is returned when no device has been registered yet.
	ErrNotFound = errors.New("device registration not found")
	// errMalformed is returned when the stored document lacks a token.
	errMalformed = errors.New("malformed device registration")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the registration from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read device file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode device file: %w", err)
	}

	return FromStruct(&document)
}

// Save writes the registration to disk.
func (r *FileRepository) Save(_ context.Context, registration *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := ToStruct(registration)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode device registration: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write device file: %w", err)
	}

	return nil
}

// FromStruct converts a protobuf Struct into a Registration.
func FromStruct(document *structpb.Struct) (*domain.Registration, error) {
	fields := document.GetFields()

	token := fields[keyToken].GetStringValue()
	if token == "" {
		return nil, errMalformed
	}

	registration := &domain.Registration{Token: token}

	if raw := fields[keyRegisteredAt].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse registered_at: %w", err)
		}

		registration.RegisteredAt = ts
	}

	hostname := fields[keyHostname].GetStringValue()
	username := fields[keyUsername].GetStringValue()

	if hostname != "" || username != "" {
		registration.Actor = &domain.Actor{
			Hostname: hostname,
			Username: username,
		}
	}

	return registration, nil
}

// ToStruct converts a Registration into a protobuf Struct.
func ToStruct(registration *domain.Registration) (*structpb.Struct, error) {
	if registration == nil || registration.Token == "" {
		return nil, domain.ErrEmptyToken
	}

	fields := map[string]any{
		keyToken: registration.Token,
	}

	if !registration.RegisteredAt.IsZero() {
		fields[keyRegisteredAt] = registration.RegisteredAt.UTC().Format(time.RFC3339Nano)
	}

	if registration.Actor != nil {
		fields[keyHostname] = registration.Actor.Hostname
		fields[keyUsername] = registration.Actor.Username
	}

	document, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build device document: %w", err)
	}

	return document, nil
}
