package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
)

// TenderRepository implements tender.Repository. The bid policy is stored
// as jsonb so policy additions do not need schema changes.
type TenderRepository struct {
	pool *pgxpool.Pool
}

func NewTenderRepository(pool *pgxpool.Pool) *TenderRepository {
	return &TenderRepository{pool: pool}
}

func (r *TenderRepository) Create(ctx context.Context, t *tender.Tender) error {
	policy, err := json.Marshal(t.Policy)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tenders
		(tender_id, number, agency, title, criteria, policy, status, chat_enabled, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, t.TenderID, t.Number, t.Agency, t.Title, t.Criteria, policy, t.Status, t.ChatEnabled, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *TenderRepository) Update(ctx context.Context, t *tender.Tender) error {
	policy, err := json.Marshal(t.Policy)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE tenders
		SET number=$1, agency=$2, title=$3, criteria=$4, policy=$5, status=$6, chat_enabled=$7, updated_at=$8
		WHERE tender_id=$9
	`, t.Number, t.Agency, t.Title, t.Criteria, policy, t.Status, t.ChatEnabled, t.UpdatedAt, t.TenderID)
	return err
}

func (r *TenderRepository) GetByID(ctx context.Context, tenderID uuid.UUID) (*tender.Tender, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tender_id, number, agency, title, criteria, policy, status, chat_enabled, created_by, created_at, updated_at
		FROM tenders WHERE tender_id=$1
	`, tenderID)
	return scanTender(row)
}

func (r *TenderRepository) List(ctx context.Context, limit, offset int) ([]*tender.Tender, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tender_id, number, agency, title, criteria, policy, status, chat_enabled, created_by, created_at, updated_at
		FROM tenders ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenders []*tender.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func scanTender(row pgx.Row) (*tender.Tender, error) {
	var t tender.Tender
	var policy json.RawMessage
	var createdBy *string
	if err := row.Scan(&t.ID, &t.TenderID, &t.Number, &t.Agency, &t.Title, &t.Criteria, &policy, &t.Status, &t.ChatEnabled, &createdBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(policy) > 0 {
		if err := json.Unmarshal(policy, &t.Policy); err != nil {
			return nil, err
		}
	}
	t.CreatedBy = createdBy
	return &t, nil
}
