package resource

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for resources and counter-arguments.
type Repository interface {
	Create(ctx context.Context, r *Resource) error
	Update(ctx context.Context, r *Resource) error
	GetByID(ctx context.Context, resourceID uuid.UUID) (*Resource, error)
	GetByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*Resource, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*Resource, error)
	CreateCounterArgument(ctx context.Context, ca *CounterArgument) error
	ListCounterArguments(ctx context.Context, resourceID uuid.UUID) ([]*CounterArgument, error)
}
