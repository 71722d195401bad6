package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActorClone verifies that Clone returns a copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{
		PID:       4242,
		Hostname:  "build-agent-01",
		Username:  "ci",
		StartedAt: time.Now().UTC(),
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
}
