package resource

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase represents the appeal sub-workflow phase. Phases advance
// monotonically and never regress.
type Phase string

const (
	PhaseManifested Phase = "MANIFESTED"
	PhaseSubmitted  Phase = "SUBMITTED"
	PhaseJudged     Phase = "JUDGED"
)

// Decision is the auctioneer's terminal ruling on a resource.
type Decision string

const (
	DecisionProcedente   Decision = "PROCEDENTE"
	DecisionImprocedente Decision = "IMPROCEDENTE"
)

var (
	ErrPhaseViolation      = errors.New("resource action attempted out of phase")
	ErrDeadlinePassed      = errors.New("deadline has passed")
	ErrOwnResource         = errors.New("appellant cannot counter-argue own resource")
	ErrWinnerCannotAppeal  = errors.New("declared winner cannot appeal the result")
	ErrInvalidDecision     = errors.New("invalid resource decision")
	ErrContentRequired     = errors.New("content is required")
)

// DeadlineError is a DeadlinePassed rejection that carries the deadline
// that was missed, so the caller can surface it.
type DeadlineError struct {
	Deadline time.Time
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("deadline has passed (%s)", e.Deadline.UTC().Format(time.RFC3339))
}

func (e *DeadlineError) Unwrap() error { return ErrDeadlinePassed }

// PastDeadline builds a DeadlineError when now is beyond deadline.
func PastDeadline(now time.Time, deadline *time.Time) error {
	if deadline == nil {
		return nil
	}
	if now.After(*deadline) {
		return &DeadlineError{Deadline: *deadline}
	}
	return nil
}

// Resource is a post-winner-declaration appeal attached to a lot.
type Resource struct {
	ID              int64     `json:"id"`
	ResourceID      uuid.UUID `json:"resourceId"`
	LotID           uuid.UUID `json:"lotId"`
	ParticipationID uuid.UUID `json:"participationId"`
	Phase           Phase     `json:"phase"`
	Content         *string   `json:"content,omitempty"`
	AttachmentURL   *string   `json:"attachmentUrl,omitempty"`

	Decision              *Decision `json:"decision,omitempty"`
	DecisionJustification *string   `json:"decisionJustification,omitempty"`

	ManifestedAt time.Time  `json:"manifestedAt"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	JudgedAt     *time.Time `json:"judgedAt,omitempty"`
}

// NewManifestation creates a resource in the manifested phase.
func NewManifestation(lotID, participationID uuid.UUID) *Resource {
	return &Resource{
		ResourceID:      uuid.New(),
		LotID:           lotID,
		ParticipationID: participationID,
		Phase:           PhaseManifested,
		ManifestedAt:    time.Now().UTC(),
	}
}

// Submit records the appeal content and advances to submitted.
func (r *Resource) Submit(content string, attachmentURL *string) error {
	if r.Phase != PhaseManifested {
		return ErrPhaseViolation
	}
	if content == "" {
		return ErrContentRequired
	}
	r.Phase = PhaseSubmitted
	r.Content = &content
	r.AttachmentURL = attachmentURL
	now := time.Now().UTC()
	r.SubmittedAt = &now
	return nil
}

// Judge records the terminal decision. Re-judgment is rejected.
func (r *Resource) Judge(decision Decision, justification string) error {
	if r.Phase != PhaseSubmitted {
		return ErrPhaseViolation
	}
	if decision != DecisionProcedente && decision != DecisionImprocedente {
		return ErrInvalidDecision
	}
	if justification == "" {
		return ErrContentRequired
	}
	r.Phase = PhaseJudged
	r.Decision = &decision
	r.DecisionJustification = &justification
	now := time.Now().UTC()
	r.JudgedAt = &now
	return nil
}

// CounterArgument is a rebuttal filed against a resource by another
// participant. Many per resource are allowed.
type CounterArgument struct {
	ID                int64     `json:"id"`
	CounterArgumentID uuid.UUID `json:"counterArgumentId"`
	ResourceID        uuid.UUID `json:"resourceId"`
	ParticipationID   uuid.UUID `json:"participationId"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"createdAt"`
}
