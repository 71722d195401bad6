//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/oshokin/desktop-installer/internal/domain/build"
)

// DetectActor gathers process, host and user information recorded in the build lock.
func DetectActor() (*build.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &build.Actor{
		PID:       os.Getpid(),
		Hostname:  hostname,
		Username:  currentUser.Username,
		StartedAt: time.Now().UTC(),
	}, nil
}

// DetectHostPlatform returns the platform built when no platform is requested explicitly.
func DetectHostPlatform() build.Platform {
	return build.HostPlatform(runtime.GOOS)
}
