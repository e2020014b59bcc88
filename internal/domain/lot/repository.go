package lot

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for lots. Transition is a
// compare-and-swap: it only applies when the stored status still equals
// from, returning false otherwise, which serializes racing transitions.
type Repository interface {
	Create(ctx context.Context, l *Lot) error
	GetByID(ctx context.Context, lotID uuid.UUID) (*Lot, error)
	ListByTender(ctx context.Context, tenderID uuid.UUID) ([]*Lot, error)
	// Transition writes l's status together with its winner,
	// justification and deadline columns, and the winner participation
	// row when given, in one transaction. A transition and the writes
	// that belong to it land together or not at all.
	Transition(ctx context.Context, l *Lot, from Status, winner *Participation) (bool, error)
}

// ParticipationRepository defines persistence for lot participations.
type ParticipationRepository interface {
	Create(ctx context.Context, p *Participation) error
	GetByID(ctx context.Context, participationID uuid.UUID) (*Participation, error)
	GetBySupplier(ctx context.Context, lotID, supplierID uuid.UUID) (*Participation, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*Participation, error)
	CountByLot(ctx context.Context, lotID uuid.UUID, status *ParticipationStatus) (int, error)
	Update(ctx context.Context, p *Participation) error
}
