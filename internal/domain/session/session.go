package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an authenticated session.
type Session struct {
	ID         int64      `json:"id"`
	SessionID  uuid.UUID  `json:"sessionId"`
	TokenHash  string     `json:"-"`
	UserID     uuid.UUID  `json:"userId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	UserAgent  *string    `json:"userAgent,omitempty"`
	IPAddress  *string    `json:"ipAddress,omitempty"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Touch records activity on the session. When less than half the TTL
// remains the expiry slides forward, so a conductor running a long
// dispute is not logged out mid-session.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastSeenAt = &now
	if now.Add(ttl / 2).After(s.ExpiresAt) {
		s.ExpiresAt = now.Add(ttl)
	}
}
