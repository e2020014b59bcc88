package session

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for sessions.
type Repository interface {
	Create(ctx context.Context, session *Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteByID(ctx context.Context, sessionID uuid.UUID) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// Touch persists the session's last_seen_at and expires_at columns.
	Touch(ctx context.Context, session *Session) error
	DeleteExpired(ctx context.Context) (int, error)
}
