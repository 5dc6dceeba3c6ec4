package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the per user termination channels.
const ChannelPrefix = "tenantgate:sessions:"

// Channel is the pub/sub channel carrying the signals of userID.
func Channel(userID string) string {
	return ChannelPrefix + userID
}

// Redis is a Broadcaster on Redis pub/sub, so that a termination on one
// instance reaches clients connected to any other.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Ping reports whether Redis answers.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Publish(ctx context.Context, sig domain.TerminationSignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}

	receivers, err := r.client.Publish(ctx, Channel(sig.UserID), payload).Result()
	if err != nil {
		return fmt.Errorf("publish signal: %w", err)
	}

	slogx.FromContext(ctx).Debug("termination signal published",
		"user_id", sig.UserID,
		"receivers", receivers,
	)
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning,
// so a signal published after Subscribe returns is not missed.
func (r *Redis) Subscribe(ctx context.Context, userID string) (<-chan domain.TerminationSignal, error) {
	ps := r.client.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan domain.TerminationSignal, defaultBuffer)
	go func() {
		defer close(out)
		defer func() { _ = ps.Close() }()

		l := slogx.FromContext(ctx)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var sig domain.TerminationSignal
				if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil {
					l.Warn("ignoring malformed termination signal", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- sig:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
