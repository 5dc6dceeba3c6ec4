package service

import (
	"context"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

// Notifier delivers notices to administrators. It is fire and forget from
// the caller's point of view, errors are only logged.
type Notifier interface {
	NotifyAdmins(ctx context.Context, n domain.AdminNotice) error
}

// Publisher carries termination signals to the live clients of a user.
type Publisher interface {
	Publish(ctx context.Context, sig domain.TerminationSignal) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n domain.AdminNotice) error

func (f NotifierFunc) NotifyAdmins(ctx context.Context, n domain.AdminNotice) error {
	return f(ctx, n)
}
