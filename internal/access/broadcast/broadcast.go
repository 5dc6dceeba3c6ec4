// Package broadcast carries session termination signals from the service
// that revokes a session to the clients that are still holding it, and
// delivers lock notices to administrators.
package broadcast

import (
	"context"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

// Broadcaster is a per user topic of termination signals. Delivery is at
// most once: a subscriber that is not listening when a signal is published
// never sees it, so revocation itself must never depend on it.
type Broadcaster interface {
	Publish(ctx context.Context, sig domain.TerminationSignal) error

	// Subscribe returns a channel of signals for userID. The channel is
	// closed once ctx is done.
	Subscribe(ctx context.Context, userID string) (<-chan domain.TerminationSignal, error)
}
