package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/resource"
)

// ResourceRepository implements resource.Repository.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func (r *ResourceRepository) Create(ctx context.Context, res *resource.Resource) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO resources
		(resource_id, lot_id, participation_id, phase, content, attachment_url, manifested_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, res.ResourceID, res.LotID, res.ParticipationID, res.Phase, res.Content, res.AttachmentURL, res.ManifestedAt)
	return err
}

func (r *ResourceRepository) Update(ctx context.Context, res *resource.Resource) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE resources
		SET phase=$1, content=$2, attachment_url=$3, decision=$4, decision_justification=$5, submitted_at=$6, judged_at=$7
		WHERE resource_id=$8
	`, res.Phase, res.Content, res.AttachmentURL, res.Decision, res.DecisionJustification, res.SubmittedAt, res.JudgedAt, res.ResourceID)
	return err
}

func (r *ResourceRepository) GetByID(ctx context.Context, resourceID uuid.UUID) (*resource.Resource, error) {
	row := r.pool.QueryRow(ctx, resourceColumns+` FROM resources WHERE resource_id=$1`, resourceID)
	return scanResource(row)
}

func (r *ResourceRepository) GetByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*resource.Resource, error) {
	row := r.pool.QueryRow(ctx, resourceColumns+` FROM resources WHERE lot_id=$1 AND participation_id=$2`, lotID, participationID)
	return scanResource(row)
}

func (r *ResourceRepository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*resource.Resource, error) {
	rows, err := r.pool.Query(ctx, resourceColumns+` FROM resources WHERE lot_id=$1 ORDER BY manifested_at ASC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resources []*resource.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *ResourceRepository) CreateCounterArgument(ctx context.Context, ca *resource.CounterArgument) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO counter_arguments
		(counter_argument_id, resource_id, participation_id, content, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, ca.CounterArgumentID, ca.ResourceID, ca.ParticipationID, ca.Content, ca.CreatedAt)
	return err
}

func (r *ResourceRepository) ListCounterArguments(ctx context.Context, resourceID uuid.UUID) ([]*resource.CounterArgument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, counter_argument_id, resource_id, participation_id, content, created_at
		FROM counter_arguments WHERE resource_id=$1 ORDER BY created_at ASC
	`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cas []*resource.CounterArgument
	for rows.Next() {
		var ca resource.CounterArgument
		if err := rows.Scan(&ca.ID, &ca.CounterArgumentID, &ca.ResourceID, &ca.ParticipationID, &ca.Content, &ca.CreatedAt); err != nil {
			return nil, err
		}
		cas = append(cas, &ca)
	}
	return cas, rows.Err()
}

const resourceColumns = `
	SELECT id, resource_id, lot_id, participation_id, phase, content, attachment_url, decision, decision_justification, manifested_at, submitted_at, judged_at`

func scanResource(row pgx.Row) (*resource.Resource, error) {
	var res resource.Resource
	var content, attachment, justification *string
	var decision *resource.Decision
	var submitted, judged *time.Time
	if err := row.Scan(&res.ID, &res.ResourceID, &res.LotID, &res.ParticipationID, &res.Phase, &content, &attachment, &decision, &justification, &res.ManifestedAt, &submitted, &judged); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	res.Content = content
	res.AttachmentURL = attachment
	res.Decision = decision
	res.DecisionJustification = justification
	res.SubmittedAt = submitted
	res.JudgedAt = judged
	return &res, nil
}
