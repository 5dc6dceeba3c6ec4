package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisBroadcaster(t *testing.T) {
	rdb := newRedis(t)
	b := NewRedis(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "alice")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "bob")
	require.NoError(t, err)

	issued := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	// junk on the channel is skipped
	require.NoError(t, rdb.Publish(ctx, Channel("alice"), "{not json").Err())
	require.NoError(t, b.Publish(ctx, domain.TerminationSignal{UserID: "alice", IssuedAt: issued, Reason: "offboarded"}))

	sig := recv(t, ch)
	require.Equal(t, "alice", sig.UserID)
	require.Equal(t, "offboarded", sig.Reason)
	require.True(t, issued.Equal(sig.IssuedAt))
	requireQuiet(t, other)

	cancel()
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestRedisBroadcasterUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	b := NewRedis(rdb)
	ctx := context.Background()

	require.Error(t, b.Publish(ctx, domain.TerminationSignal{UserID: "alice"}))
	_, err := b.Subscribe(ctx, "alice")
	require.Error(t, err)
}

func TestRedisNotifier(t *testing.T) {
	rdb := newRedis(t)
	n := NewRedisNotifier(rdb)
	ctx := context.Background()

	until := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	for _, email := range []string{"first@acme.test", "second@acme.test"} {
		require.NoError(t, n.NotifyAdmins(ctx, domain.AdminNotice{
			Kind:        domain.NoticeAccountLocked,
			CompanyID:   "acme",
			Email:       email,
			LockedUntil: &until,
			Recipients:  []string{"admin@acme.test"},
		}))
	}

	items, err := rdb.LRange(ctx, NoticeQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 2)

	var newest domain.AdminNotice
	require.NoError(t, json.Unmarshal([]byte(items[0]), &newest))
	require.Equal(t, "second@acme.test", newest.Email)
	require.Equal(t, []string{"admin@acme.test"}, newest.Recipients)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, n.NotifyAdmins(context.Background(), domain.AdminNotice{
		Kind:  domain.NoticeAccountLocked,
		Email: "user@acme.test",
	}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "admin notice", line["msg"])
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "user@acme.test", line["email"])
	require.NotContains(t, line, "locked_until")
}
