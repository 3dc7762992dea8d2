//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestPostEvent_RejectsOutbound refuses kinds the service publishes itself.
func TestPostEvent_RejectsOutbound(t *testing.T) {
	t.Parallel()

	c := new(Client)

	err := c.PostEvent(context.Background(), domain.KindStartAlarm)
	require.ErrorIs(t, err, domain.ErrUnknownEventKind)
}

// TestWatch_RequiresHandler rejects a nil handler before dialing the stream.
func TestWatch_RequiresHandler(t *testing.T) {
	t.Parallel()

	c := new(Client)

	require.ErrorIs(t, c.Watch(context.Background(), nil), errWatchHandlerRequired)
}
