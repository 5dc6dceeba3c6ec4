package domain

import "time"

// TerminationSignal tells live clients of a user to drop their session. It
// only exists on the broadcast channel.
type TerminationSignal struct {
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
	Reason   string    `json:"reason,omitempty"`
}
