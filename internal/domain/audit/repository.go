package audit

import (
	"context"

	"github.com/google/uuid"
)

// Filter controls audit queries.
type Filter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
}

// Repository defines append-only persistence for the audit trail.
type Repository interface {
	Create(ctx context.Context, log *Log) error
	GetByID(ctx context.Context, auditID uuid.UUID) (*Log, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Log, error)
}
