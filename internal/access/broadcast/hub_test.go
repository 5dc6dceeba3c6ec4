package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan domain.TerminationSignal) domain.TerminationSignal {
	t.Helper()
	select {
	case sig, ok := <-ch:
		require.True(t, ok, "channel closed")
		return sig
	case <-time.After(2 * time.Second):
		t.Fatal("no signal received")
		return domain.TerminationSignal{}
	}
}

func requireQuiet(t *testing.T, ch <-chan domain.TerminationSignal) {
	t.Helper()
	select {
	case sig := <-ch:
		t.Fatalf("unexpected signal %+v", sig)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDelivers(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, err := h.Subscribe(ctx, "alice")
	require.NoError(t, err)
	alice2, err := h.Subscribe(ctx, "alice")
	require.NoError(t, err)
	bob, err := h.Subscribe(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 2, h.Subscribers("alice"))

	require.NoError(t, h.Publish(ctx, domain.TerminationSignal{UserID: "alice", Reason: "offboarded"}))

	require.Equal(t, "offboarded", recv(t, alice).Reason)
	require.Equal(t, "offboarded", recv(t, alice2).Reason)
	requireQuiet(t, bob)
}

func TestHubAtMostOnce(t *testing.T) {
	h := NewHub()
	h.Buffer = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Nobody listening yet, the signal is gone.
	require.NoError(t, h.Publish(ctx, domain.TerminationSignal{UserID: "alice", Reason: "early"}))

	ch, err := h.Subscribe(ctx, "alice")
	require.NoError(t, err)
	requireQuiet(t, ch)

	// A full queue doesn't block the publisher.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 5 {
			_ = h.Publish(ctx, domain.TerminationSignal{UserID: "alice"})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}

	recv(t, ch)
	requireQuiet(t, ch)
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := h.Subscribe(ctx, "alice")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
	require.Zero(t, h.Subscribers("alice"))

	// Publishing to a departed subscriber is fine.
	require.NoError(t, h.Publish(context.Background(), domain.TerminationSignal{UserID: "alice"}))
}
