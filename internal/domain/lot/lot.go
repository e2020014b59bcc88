package lot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lot lifecycle phase.
type Status string

const (
	StatusWaiting         Status = "WAITING"
	StatusProposalsOpened Status = "PROPOSALS_OPENED"
	StatusInDispute       Status = "IN_DISPUTE"
	StatusDisputeEnded    Status = "DISPUTE_ENDED"
	StatusNegotiation     Status = "NEGOTIATION"
	StatusWinnerDeclared  Status = "WINNER_DECLARED"
	StatusResourcePhase   Status = "RESOURCE_PHASE"
	StatusAdjudicated     Status = "ADJUDICATED"
	StatusHomologated     Status = "HOMOLOGATED"
	StatusRevoked         Status = "REVOKED"
	StatusCanceled        Status = "CANCELED"
)

var (
	ErrInvalidTransition      = errors.New("invalid lot status transition")
	ErrTerminalState          = errors.New("lot is in a terminal state")
	ErrNoClassifiedSuppliers  = errors.New("no classified suppliers on lot")
	ErrNoActiveBids           = errors.New("no active bids on lot")
	ErrNoWinner               = errors.New("lot has no declared winner")
	ErrJustificationRequired  = errors.New("justification is required")
	ErrParticipationNotOnLot  = errors.New("participation does not belong to lot")
	ErrInvalidParticipation   = errors.New("invalid participation status transition")
	ErrSupplierAlreadyJoined  = errors.New("supplier already has a participation on lot")
)

// Lot is one disputed unit within a tender. Status is mutated only through
// validated transitions; writes race through a compare-and-swap on status.
type Lot struct {
	ID             int64     `json:"id"`
	LotID          uuid.UUID `json:"lotId"`
	TenderID       uuid.UUID `json:"tenderId"`
	Number         int       `json:"number"`
	Description    string    `json:"description"`
	EstimatedValue float64   `json:"estimatedValue"`
	Status         Status    `json:"status"`

	WinnerParticipationID *uuid.UUID `json:"winnerParticipationId,omitempty"`
	WinnerJustification   *string    `json:"winnerJustification,omitempty"`

	ManifestationDeadline   *time.Time `json:"manifestationDeadline,omitempty"`
	ResourceDeadline        *time.Time `json:"resourceDeadline,omitempty"`
	CounterArgumentDeadline *time.Time `json:"counterArgumentDeadline,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// transitions is the legal edge set of the lot lifecycle. Revocation and
// cancellation from other states require the force path (CanForceTo).
var transitions = map[Status][]Status{
	StatusWaiting:         {StatusProposalsOpened},
	StatusProposalsOpened: {StatusInDispute},
	StatusInDispute:       {StatusDisputeEnded},
	StatusDisputeEnded:    {StatusNegotiation, StatusWinnerDeclared},
	StatusNegotiation:     {StatusWinnerDeclared},
	StatusWinnerDeclared:  {StatusResourcePhase, StatusAdjudicated, StatusRevoked, StatusCanceled},
	StatusResourcePhase:   {StatusAdjudicated, StatusRevoked, StatusCanceled},
	StatusAdjudicated:     {StatusHomologated, StatusRevoked, StatusCanceled},
	StatusHomologated:     {},
	StatusRevoked:         {},
	StatusCanceled:        {},
}

// IsTerminal reports whether the lot can no longer be mutated.
func (l *Lot) IsTerminal() bool {
	return l.Status == StatusHomologated || l.Status == StatusRevoked || l.Status == StatusCanceled
}

// CanTransitionTo validates a lot status transition.
func (l *Lot) CanTransitionTo(target Status) bool {
	for _, s := range transitions[l.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo applies a validated status transition.
func (l *Lot) TransitionTo(target Status) error {
	if l.IsTerminal() {
		return ErrTerminalState
	}
	if !l.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	l.Status = target
	return nil
}

// CanForceTo reports whether an authority override may move the lot to
// target. Only revocation and cancellation can be forced, and never out
// of a terminal state.
func (l *Lot) CanForceTo(target Status) bool {
	if l.IsTerminal() {
		return false
	}
	return target == StatusRevoked || target == StatusCanceled
}

// ForceTo applies an authority override transition.
func (l *Lot) ForceTo(target Status) error {
	if l.IsTerminal() {
		return ErrTerminalState
	}
	if !l.CanForceTo(target) {
		return ErrInvalidTransition
	}
	l.Status = target
	return nil
}

// ValidStatus reports whether s is a known lot status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}
