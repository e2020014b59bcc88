package dispute

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MessageKind distinguishes chat from system-generated messages.
type MessageKind string

const (
	KindChat   MessageKind = "CHAT"
	KindSystem MessageKind = "SYSTEM"
)

// SystemSender is the label used for system-generated messages.
const SystemSender = "Sistema"

// EventType describes the dispute session event feed.
type EventType string

const (
	EventLotStatusChanged     EventType = "LOT_STATUS_CHANGED"
	EventBidSubmitted         EventType = "BID_SUBMITTED"
	EventBidConfirmed         EventType = "BID_CONFIRMED"
	EventBidCancelled         EventType = "BID_CANCELLED"
	EventMessagePosted        EventType = "MESSAGE_POSTED"
	EventSupplierDisqualified EventType = "SUPPLIER_DISQUALIFIED"
	EventSupplierReclassified EventType = "SUPPLIER_RECLASSIFIED"
	EventResourcePhaseChanged EventType = "RESOURCE_PHASE_CHANGED"
	EventResourceJudged       EventType = "RESOURCE_JUDGED"
	EventCountdownStarted     EventType = "COUNTDOWN_STARTED"
	EventCountdownCancelled   EventType = "COUNTDOWN_CANCELLED"
)

var (
	ErrChatDisabled   = errors.New("chat is disabled for this tender")
	ErrClientNotFound = errors.New("stream client not found")
	ErrChannelFull    = errors.New("stream client channel full")
)

// Message is one entry of the ordered, append-only session log. Seq is
// assigned by the store at insert time and totally orders messages within
// a tender. Immutable once created.
type Message struct {
	ID          int64       `json:"id"`
	MessageID   uuid.UUID   `json:"messageId"`
	TenderID    uuid.UUID   `json:"tenderId"`
	LotID       *uuid.UUID  `json:"lotId,omitempty"`
	SenderID    *uuid.UUID  `json:"senderId,omitempty"`
	SenderLabel string      `json:"senderLabel"`
	Content     string      `json:"content"`
	Kind        MessageKind `json:"kind"`
	Private     bool        `json:"private"`
	Seq         int64       `json:"seq"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// NewSystemMessage creates a system message for the session log.
func NewSystemMessage(tenderID uuid.UUID, lotID *uuid.UUID, content string, private bool) *Message {
	return &Message{
		MessageID:   uuid.New(),
		TenderID:    tenderID,
		LotID:       lotID,
		SenderLabel: SystemSender,
		Content:     content,
		Kind:        KindSystem,
		Private:     private,
		CreatedAt:   time.Now().UTC(),
	}
}

// Event is the append-only session event feed backing subscriptions.
// Reconnecting clients re-fetch the full ordered history.
type Event struct {
	ID        int64           `json:"id"`
	EventID   uuid.UUID       `json:"eventId"`
	TenderID  uuid.UUID       `json:"tenderId"`
	LotID     *uuid.UUID      `json:"lotId,omitempty"`
	Type      EventType       `json:"type"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// StreamClient represents an active SSE subscription to a tender session.
type StreamClient struct {
	ClientID    string
	UserID      *string
	TenderID    uuid.UUID
	ConnectedAt time.Time
	MessageChan chan *StreamMessage
}

// NewStreamClient creates a stream client scoped to one tender.
func NewStreamClient(clientID string, userID *string, tenderID uuid.UUID) *StreamClient {
	return &StreamClient{
		ClientID:    clientID,
		UserID:      userID,
		TenderID:    tenderID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *StreamMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *StreamClient) Close() {
	close(c.MessageChan)
}

// StreamMessage is one frame pushed to subscribed clients.
type StreamMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewStreamMessage creates a stream frame.
func NewStreamMessage(event string, data json.RawMessage) *StreamMessage {
	return &StreamMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
