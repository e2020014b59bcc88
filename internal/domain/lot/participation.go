package lot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParticipationStatus represents a supplier's standing on a lot.
type ParticipationStatus string

const (
	ParticipationClassified   ParticipationStatus = "CLASSIFIED"
	ParticipationDisqualified ParticipationStatus = "DISQUALIFIED"
	ParticipationWinner       ParticipationStatus = "WINNER"
	ParticipationEliminated   ParticipationStatus = "ELIMINATED"
)

// Participation links a supplier to a lot. Company identity is only shown
// to the auctioneer during an active dispute; other participants see the
// anonymized alias. Rows are never deleted, only status-transitioned.
type Participation struct {
	ID               int64               `json:"id"`
	ParticipationID  uuid.UUID           `json:"participationId"`
	LotID            uuid.UUID           `json:"lotId"`
	SupplierID       uuid.UUID           `json:"supplierId"`
	CompanyName      string              `json:"companyName"`
	Alias            string              `json:"alias"`
	InitialProposal  float64             `json:"initialProposal"`
	Status           ParticipationStatus `json:"status"`
	DisqualifyReason *string             `json:"disqualifyReason,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

var participationTransitions = map[ParticipationStatus][]ParticipationStatus{
	ParticipationClassified:   {ParticipationDisqualified, ParticipationWinner, ParticipationEliminated},
	ParticipationDisqualified: {ParticipationClassified},
	ParticipationWinner:       {ParticipationEliminated},
	ParticipationEliminated:   {},
}

// CanTransitionTo validates a participation status transition.
func (p *Participation) CanTransitionTo(target ParticipationStatus) bool {
	for _, s := range participationTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Disqualify marks the participation disqualified with a justification.
func (p *Participation) Disqualify(reason string) error {
	if reason == "" {
		return ErrJustificationRequired
	}
	if !p.CanTransitionTo(ParticipationDisqualified) {
		return ErrInvalidParticipation
	}
	p.Status = ParticipationDisqualified
	p.DisqualifyReason = &reason
	return nil
}

// Reclassify reverses a disqualification.
func (p *Participation) Reclassify() error {
	if !p.CanTransitionTo(ParticipationClassified) {
		return ErrInvalidParticipation
	}
	p.Status = ParticipationClassified
	p.DisqualifyReason = nil
	return nil
}

// MarkWinner assigns the arrematante status at dispute close.
func (p *Participation) MarkWinner() error {
	if !p.CanTransitionTo(ParticipationWinner) {
		return ErrInvalidParticipation
	}
	p.Status = ParticipationWinner
	return nil
}

// NewAlias builds the anonymized supplier code shown during dispute.
func NewAlias(ordinal int) string {
	return fmt.Sprintf("FORNECEDOR %d", ordinal)
}
