package build

import "time"

// Actor identifies who started a build.
type Actor struct {
	// PID is the process ID of the running orchestrator.
	PID int `yaml:"pid"`
	// Hostname is the machine name the build runs on.
	Hostname string `yaml:"hostname"`
	// Username is the system user who started the build.
	Username string `yaml:"username"`
	// StartedAt is when the build started.
	StartedAt time.Time `yaml:"started_at"`
}

// Clone returns a copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}
