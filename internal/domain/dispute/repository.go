package dispute

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository defines ordered append-only persistence for session
// messages. Create assigns Message.Seq from the tender's sequence.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListByTender(ctx context.Context, tenderID uuid.UUID, includePrivate bool, limit, offset int) ([]*Message, error)
}

// EventRepository defines append-only persistence for session events.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	ListByTender(ctx context.Context, tenderID uuid.UUID, limit, offset int) ([]*Event, error)
}
