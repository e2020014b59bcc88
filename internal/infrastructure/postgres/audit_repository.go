package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Create(ctx context.Context, log *audit.Log) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor, actor_role, reason, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, log.AuditID, log.EntityType, log.EntityID, log.Action, log.Actor, log.ActorRole, log.Reason, log.Signature, log.CreatedAt)
	return err
}

func (r *AuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.Log, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, audit_id, entity_type, entity_id, action, actor, actor_role, reason, signature, created_at
		FROM audit_logs WHERE audit_id=$1
	`, auditID)
	return scanAuditLog(row)
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, error) {
	query := `SELECT id, audit_id, entity_type, entity_id, action, actor, actor_role, reason, signature, created_at FROM audit_logs`
	args := []interface{}{}
	idx := 1
	if filter.EntityType != nil {
		query += " WHERE entity_type=$" + itoa(idx)
		args = append(args, *filter.EntityType)
		idx++
	}
	if filter.EntityID != nil {
		query += addWhere(query) + " entity_id=$" + itoa(idx)
		args = append(args, *filter.EntityID)
		idx++
	}
	if filter.Action != nil {
		query += addWhere(query) + " action=$" + itoa(idx)
		args = append(args, *filter.Action)
		idx++
	}
	if filter.Actor != nil {
		query += addWhere(query) + " actor=$" + itoa(idx)
		args = append(args, *filter.Actor)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []*audit.Log
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanAuditLog(row pgx.Row) (*audit.Log, error) {
	var l audit.Log
	var signature *string
	if err := row.Scan(&l.ID, &l.AuditID, &l.EntityType, &l.EntityID, &l.Action, &l.Actor, &l.ActorRole, &l.Reason, &signature, &l.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	l.Signature = signature
	return &l, nil
}
