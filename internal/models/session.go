package models

import "time"

// Session is a time-bounded bearer credential tied to one account.
// Token is the secret presented by clients; it is distinct from the
// session's own ID.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its expiry at the given
// instant. Validity is always recomputed, never cached.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
