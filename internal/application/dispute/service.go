package dispute

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/sse"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/ws"
)

// Service is the session event bus: it appends chat/system messages and
// feed events and fans them out to subscribed participants. Every message
// also lands on the event feed as MESSAGE_POSTED, so one multiplexed
// channel carries chat, bids and status changes.
type Service struct {
	msgRepo    dispute.MessageRepository
	eventRepo  dispute.EventRepository
	tenderRepo tender.Repository
	sseHub     *sse.Hub
	wsHub      *ws.Hub
	logger     zerolog.Logger
}

// NewService creates the session feed service. The hubs may be nil (in
// tests); persistence still applies.
func NewService(
	msgRepo dispute.MessageRepository,
	eventRepo dispute.EventRepository,
	tenderRepo tender.Repository,
	sseHub *sse.Hub,
	wsHub *ws.Hub,
	logger zerolog.Logger,
) *Service {
	return &Service{
		msgRepo:    msgRepo,
		eventRepo:  eventRepo,
		tenderRepo: tenderRepo,
		sseHub:     sseHub,
		wsHub:      wsHub,
		logger:     logger.With().Str("service", "dispute").Logger(),
	}
}

// PostMessageInput carries one chat message.
type PostMessageInput struct {
	TenderID    uuid.UUID
	LotID       *uuid.UUID
	Actor       user.Actor
	SenderLabel string
	Content     string
}

// PostMessage appends a chat message to the session log. Suppliers post
// under their anonymized alias; the auctioneer may post even when chat is
// disabled for participants.
func (s *Service) PostMessage(ctx context.Context, in PostMessageInput) (*dispute.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	t, err := s.tenderRepo.GetByID(ctx, in.TenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tender %s: %w", in.TenderID, domain.ErrNotFound)
	}
	if !t.ChatEnabled && !in.Actor.CanConduct() {
		return nil, dispute.ErrChatDisabled
	}

	label := strings.TrimSpace(in.SenderLabel)
	if label == "" {
		label = in.Actor.Name
	}
	senderID := in.Actor.UserID
	m := &dispute.Message{
		MessageID:   uuid.New(),
		TenderID:    in.TenderID,
		LotID:       in.LotID,
		SenderID:    &senderID,
		SenderLabel: label,
		Content:     content,
		Kind:        dispute.KindChat,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.msgRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.emitMessage(ctx, m, in.Actor.ActorString())
	return m, nil
}

// PostSystem appends a system message. Private messages are delivered only
// to targetUser (and conductors); they never reach the public feed.
func (s *Service) PostSystem(ctx context.Context, tenderID uuid.UUID, lotID *uuid.UUID, content string, private bool, targetUser *string) (*dispute.Message, error) {
	m := dispute.NewSystemMessage(tenderID, lotID, content, private)
	if err := s.msgRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	if private {
		s.deliverPrivate(m, targetUser)
		return m, nil
	}
	s.emitMessage(ctx, m, "system")
	return m, nil
}

// Emit appends an event to the session feed and broadcasts it.
func (s *Service) Emit(ctx context.Context, tenderID uuid.UUID, lotID *uuid.UUID, eventType dispute.EventType, actor string, payload interface{}) error {
	var payloadRaw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		payloadRaw = b
	}
	event := &dispute.Event{
		EventID:   uuid.New(),
		TenderID:  tenderID,
		LotID:     lotID,
		Type:      eventType,
		Actor:     actorOrSystem(actor),
		Payload:   payloadRaw,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return err
	}
	s.broadcast(tenderID, event)
	return nil
}

// SetChatEnabled toggles participant chat for a tender and announces it.
func (s *Service) SetChatEnabled(ctx context.Context, tenderID uuid.UUID, actor user.Actor, enabled bool) error {
	if !actor.CanConduct() {
		return user.ErrUnauthorized
	}
	t, err := s.tenderRepo.GetByID(ctx, tenderID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("tender %s: %w", tenderID, domain.ErrNotFound)
	}
	if t.ChatEnabled == enabled {
		return nil
	}
	t.ChatEnabled = enabled
	t.UpdatedAt = time.Now().UTC()
	if err := s.tenderRepo.Update(ctx, t); err != nil {
		return err
	}
	notice := "Chat habilitado pelo pregoeiro."
	if !enabled {
		notice = "Chat desabilitado pelo pregoeiro."
	}
	_, err = s.PostSystem(ctx, tenderID, nil, notice, false, nil)
	return err
}

// ListMessages returns the ordered session log. Private messages are only
// included for conductors.
func (s *Service) ListMessages(ctx context.Context, tenderID uuid.UUID, actor user.Actor, limit, offset int) ([]*dispute.Message, error) {
	return s.msgRepo.ListByTender(ctx, tenderID, actor.CanConduct(), limit, offset)
}

// ListEvents returns the ordered event feed for reconnect resync.
func (s *Service) ListEvents(ctx context.Context, tenderID uuid.UUID, limit, offset int) ([]*dispute.Event, error) {
	return s.eventRepo.ListByTender(ctx, tenderID, limit, offset)
}

func (s *Service) emitMessage(ctx context.Context, m *dispute.Message, actor string) {
	err := s.Emit(ctx, m.TenderID, m.LotID, dispute.EventMessagePosted, actor, map[string]interface{}{
		"messageId":   m.MessageID,
		"senderLabel": m.SenderLabel,
		"content":     m.Content,
		"kind":        m.Kind,
		"seq":         m.Seq,
		"createdAt":   m.CreatedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("tender_id", m.TenderID.String()).Msg("failed to emit message event")
	}
}

func (s *Service) deliverPrivate(m *dispute.Message, targetUser *string) {
	if s.sseHub == nil || targetUser == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.sseHub.BroadcastToUser(*targetUser, dispute.NewStreamMessage("session", data))
}

func (s *Service) broadcast(tenderID uuid.UUID, event *dispute.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal session event")
		return
	}
	if s.sseHub != nil {
		s.sseHub.BroadcastToTender(tenderID, dispute.NewStreamMessage("session", data))
	}
	if s.wsHub != nil {
		s.wsHub.BroadcastToTender(tenderID, data)
	}
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "system"
	}
	return actor
}
