package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ServiceAccount is the subset of a Google service account key used for FCM.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

var (
	// ErrNoCredentials is returned when no credentials file is configured.
	ErrNoCredentials = errors.New("no credentials file configured")
	// ErrInvalidCredentials is returned for keys missing required fields.
	ErrInvalidCredentials = errors.New("invalid service account credentials")
)

// LoadServiceAccount reads and checks a service account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	if path == "" {
		return nil, ErrNoCredentials
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var account ServiceAccount
	if err = json.Unmarshal(contents, &account); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}

	if account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, fmt.Errorf("%w: client_email and private_key are required", ErrInvalidCredentials)
	}

	if account.TokenURI == "" {
		account.TokenURI = DefaultTokenURI
	}

	return &account, nil
}
