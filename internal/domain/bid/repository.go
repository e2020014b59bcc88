package bid

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for bids. The active-bid queries only
// consider participations whose status is CLASSIFIED or WINNER; ranking
// ties break by earliest submission time.
type Repository interface {
	Create(ctx context.Context, b *Bid) error
	GetByID(ctx context.Context, bidID uuid.UUID) (*Bid, error)
	// UpdateStatus writes b's status flip, guarded on the stored row
	// still being PENDING. It returns ErrNotPending when the flip
	// already happened, so confirm and cancel racing each other apply
	// at most one of the two.
	UpdateStatus(ctx context.Context, b *Bid) error
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)
	// LatestActiveByParticipation returns the participation's current
	// authoritative bid, or nil.
	LatestActiveByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*Bid, error)
	// BestActive returns the best active bid on the lot among classified
	// participations: minimum value, or maximum when highestWins is set.
	BestActive(ctx context.Context, lotID uuid.UUID, highestWins bool) (*Bid, error)
	// PendingByParticipation returns the participation's pending bid, if any.
	PendingByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*Bid, error)
	// SupersedeActive marks all currently active bids of the participation
	// as superseded, except keep. Returns the number of rows changed.
	SupersedeActive(ctx context.Context, lotID, participationID, keep uuid.UUID) (int, error)
}
