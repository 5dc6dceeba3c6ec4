package broadcast

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

const defaultBuffer = 4

// Hub is an in-process Broadcaster for single instance deployments.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.TerminationSignal]struct{}

	// Buffer is the per subscriber queue length.
	Buffer int
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[chan domain.TerminationSignal]struct{}),
		Buffer: defaultBuffer,
	}
}

// Publish hands sig to every current subscriber of sig.UserID without
// blocking. A subscriber with a full queue misses the signal.
func (h *Hub) Publish(ctx context.Context, sig domain.TerminationSignal) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for ch := range h.subs[sig.UserID] {
		select {
		case ch <- sig:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slogx.FromContext(ctx).Warn("termination signal dropped for slow subscribers",
			"user_id", sig.UserID,
			"dropped", dropped,
		)
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan domain.TerminationSignal, error) {
	buf := h.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	ch := make(chan domain.TerminationSignal, buf)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan domain.TerminationSignal]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[userID], ch)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers counts the live subscriptions of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
