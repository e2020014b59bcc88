package tender

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for tenders.
type Repository interface {
	Create(ctx context.Context, t *Tender) error
	Update(ctx context.Context, t *Tender) error
	GetByID(ctx context.Context, tenderID uuid.UUID) (*Tender, error)
	List(ctx context.Context, limit, offset int) ([]*Tender, error)
}
