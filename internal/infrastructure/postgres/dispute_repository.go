package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
)

// MessageRepository implements dispute.MessageRepository. Seq is assigned
// per tender inside the insert; the unique (tender_id, seq) constraint
// rejects the rare concurrent collision, which the caller may retry.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m *dispute.Message) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO session_messages
		(message_id, tender_id, lot_id, sender_id, sender_label, content, kind, private, seq, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,
			(SELECT COALESCE(MAX(seq),0)+1 FROM session_messages WHERE tender_id=$2),
			$9)
		RETURNING id, seq
	`, m.MessageID, m.TenderID, m.LotID, m.SenderID, m.SenderLabel, m.Content, m.Kind, m.Private, m.CreatedAt)
	return row.Scan(&m.ID, &m.Seq)
}

func (r *MessageRepository) ListByTender(ctx context.Context, tenderID uuid.UUID, includePrivate bool, limit, offset int) ([]*dispute.Message, error) {
	query := `
		SELECT id, message_id, tender_id, lot_id, sender_id, sender_label, content, kind, private, seq, created_at
		FROM session_messages WHERE tender_id=$1`
	if !includePrivate {
		query += ` AND private=false`
	}
	query += ` ORDER BY seq ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, tenderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []*dispute.Message
	for rows.Next() {
		var m dispute.Message
		var lotID, senderID *uuid.UUID
		if err := rows.Scan(&m.ID, &m.MessageID, &m.TenderID, &lotID, &senderID, &m.SenderLabel, &m.Content, &m.Kind, &m.Private, &m.Seq, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.LotID = lotID
		m.SenderID = senderID
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// EventRepository implements dispute.EventRepository.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Create(ctx context.Context, e *dispute.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_events
		(event_id, tender_id, lot_id, type, actor, payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.EventID, e.TenderID, e.LotID, e.Type, e.Actor, e.Payload, e.CreatedAt)
	return err
}

func (r *EventRepository) ListByTender(ctx context.Context, tenderID uuid.UUID, limit, offset int) ([]*dispute.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, tender_id, lot_id, type, actor, payload, created_at
		FROM session_events WHERE tender_id=$1 ORDER BY id ASC LIMIT $2 OFFSET $3
	`, tenderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*dispute.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*dispute.Event, error) {
	var e dispute.Event
	var lotID *uuid.UUID
	var payload json.RawMessage
	if err := row.Scan(&e.ID, &e.EventID, &e.TenderID, &lotID, &e.Type, &e.Actor, &payload, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.LotID = lotID
	if len(payload) > 0 {
		e.Payload = payload
	}
	return &e, nil
}
