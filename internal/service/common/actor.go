//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/tag-guard/internal/domain/device"
)

// DetectActor gathers host and user information recorded with a registration.
func DetectActor() (*device.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &device.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
