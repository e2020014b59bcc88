package bid

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents bid status. A bid enters PENDING on submission and
// becomes ACTIVE only after the confirmation countdown elapses without
// cancellation. SUPERSEDED marks a previously active bid replaced by a
// newer active bid from the same participation.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusActive     Status = "ACTIVE"
	StatusCancelled  Status = "CANCELLED"
	StatusSuperseded Status = "SUPERSEDED"
)

var (
	ErrNotPending     = errors.New("bid is not pending")
	ErrNotCompetitive = errors.New("bid does not satisfy minimum improvement policy")
	ErrInvalidValue   = errors.New("bid value must be positive")
	ErrNotSubmitter   = errors.New("only the submitting supplier can cancel a bid")
)

// Bid is immutable once confirmed; the only mutation is the single status
// flip pending->active or pending->cancelled.
type Bid struct {
	ID              int64      `json:"id"`
	BidID           uuid.UUID  `json:"bidId"`
	LotID           uuid.UUID  `json:"lotId"`
	ParticipationID uuid.UUID  `json:"participationId"`
	Value           float64    `json:"value"`
	Status          Status     `json:"status"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
}

// New creates a pending bid.
func New(lotID, participationID uuid.UUID, value float64) (*Bid, error) {
	if value <= 0 {
		return nil, ErrInvalidValue
	}
	return &Bid{
		BidID:           uuid.New(),
		LotID:           lotID,
		ParticipationID: participationID,
		Value:           value,
		Status:          StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}, nil
}

// Confirm flips the bid to active once the countdown elapsed.
func (b *Bid) Confirm() error {
	if b.Status != StatusPending {
		return ErrNotPending
	}
	b.Status = StatusActive
	now := time.Now().UTC()
	b.ConfirmedAt = &now
	return nil
}

// Cancel discards a still-pending bid.
func (b *Bid) Cancel() error {
	if b.Status != StatusPending {
		return ErrNotPending
	}
	b.Status = StatusCancelled
	now := time.Now().UTC()
	b.CancelledAt = &now
	return nil
}
