package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the audited entity.
type EntityType string

const (
	EntityTypeTender        EntityType = "TENDER"
	EntityTypeLot           EntityType = "LOT"
	EntityTypeParticipation EntityType = "PARTICIPATION"
	EntityTypeBid           EntityType = "BID"
	EntityTypeResource      EntityType = "RESOURCE"
	EntityTypeUser          EntityType = "USER"
)

// Action identifies what was done.
type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionUpdate     Action = "UPDATE"
	ActionTransition Action = "TRANSITION"
	ActionDisqualify Action = "DISQUALIFY"
	ActionJudge      Action = "JUDGE"
	ActionOverride   Action = "OVERRIDE"
)

// Entry is the caller-facing input to the audit trail.
type Entry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRole  string
	Reason     string
}

// Log is a persisted audit record of one privileged act.
type Log struct {
	ID         int64      `json:"id"`
	AuditID    uuid.UUID  `json:"auditId"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Action     Action     `json:"action"`
	Actor      string     `json:"actor"`
	ActorRole  string     `json:"actorRole,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Signature  *string    `json:"signature,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewLog builds a log record from an entry.
func NewLog(entry *Entry) (*Log, error) {
	if entry == nil {
		return nil, errors.New("audit entry is required")
	}
	if entry.EntityType == "" || entry.EntityID == "" || entry.Action == "" {
		return nil, errors.New("audit entry requires entity type, entity id and action")
	}
	actor := entry.Actor
	if actor == "" {
		actor = "system"
	}
	return &Log{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      actor,
		ActorRole:  entry.ActorRole,
		Reason:     entry.Reason,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
