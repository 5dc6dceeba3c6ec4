package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// NoticeQueue is the Redis list a mail worker drains with BRPOP.
	NoticeQueue = "tenantgate:admin-notices"

	noticeQueueMax = 10000
)

// RedisNotifier queues admin notices on a Redis list. Delivery to the
// recipients is someone else's job.
type RedisNotifier struct {
	client redis.UniversalClient
	key    string
}

func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client, key: NoticeQueue}
}

func (n *RedisNotifier) NotifyAdmins(ctx context.Context, notice domain.AdminNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	// Newest first, oldest trimmed once the worker falls far behind.
	_, err = n.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, n.key, payload)
		p.LTrim(ctx, n.key, 0, noticeQueueMax-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("queue notice: %w", err)
	}
	return nil
}

// LogNotifier writes notices to the log. It is the fallback when no Redis is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyAdmins(ctx context.Context, notice domain.AdminNotice) error {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("kind", notice.Kind),
		slog.String("company_id", notice.CompanyID),
		slog.String("user_id", notice.UserID),
		slog.String("email", notice.Email),
		slog.String("reason", notice.Reason),
		slog.Any("recipients", notice.Recipients),
	}
	if notice.LockedUntil != nil {
		attrs = append(attrs, slog.Time("locked_until", *notice.LockedUntil))
	}
	l.LogAttrs(ctx, slog.LevelWarn, "admin notice", attrs...)
	return nil
}
