package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
)

// LotRepository implements lot.Repository.
type LotRepository struct {
	pool *pgxpool.Pool
}

func NewLotRepository(pool *pgxpool.Pool) *LotRepository {
	return &LotRepository{pool: pool}
}

func (r *LotRepository) Create(ctx context.Context, l *lot.Lot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lots
		(lot_id, tender_id, number, description, estimated_value, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, l.LotID, l.TenderID, l.Number, l.Description, l.EstimatedValue, l.Status, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r *LotRepository) GetByID(ctx context.Context, lotID uuid.UUID) (*lot.Lot, error) {
	row := r.pool.QueryRow(ctx, lotColumns+` FROM lots WHERE lot_id=$1`, lotID)
	return scanLot(row)
}

func (r *LotRepository) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]*lot.Lot, error) {
	rows, err := r.pool.Query(ctx, lotColumns+` FROM lots WHERE tender_id=$1 ORDER BY number ASC`, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lots []*lot.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// Transition applies the status change only when the stored status still
// equals from; the affected row count tells racing commands apart. The
// lot's result columns and the winner participation row ride in the same
// transaction, so a transition never lands half-applied.
func (r *LotRepository) Transition(ctx context.Context, l *lot.Lot, from lot.Status, winner *lot.Participation) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE lots
		SET status=$1,
		    winner_participation_id=$2, winner_justification=$3,
		    manifestation_deadline=$4, resource_deadline=$5, counter_argument_deadline=$6,
		    updated_at=$7
		WHERE lot_id=$8 AND status=$9
	`, l.Status,
		l.WinnerParticipationID, l.WinnerJustification,
		l.ManifestationDeadline, l.ResourceDeadline, l.CounterArgumentDeadline,
		l.UpdatedAt, l.LotID, from)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() == 0 {
		return false, nil
	}
	if winner != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE participations SET status=$1, disqualify_reason=$2, updated_at=$3
			WHERE participation_id=$4
		`, winner.Status, winner.DisqualifyReason, winner.UpdatedAt, winner.ParticipationID); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

const lotColumns = `
	SELECT id, lot_id, tender_id, number, description, estimated_value, status,
	       winner_participation_id, winner_justification,
	       manifestation_deadline, resource_deadline, counter_argument_deadline,
	       created_at, updated_at`

func scanLot(row pgx.Row) (*lot.Lot, error) {
	var l lot.Lot
	var winnerID *uuid.UUID
	var winnerJust *string
	var manifest, resource, counter *time.Time
	if err := row.Scan(&l.ID, &l.LotID, &l.TenderID, &l.Number, &l.Description, &l.EstimatedValue, &l.Status,
		&winnerID, &winnerJust, &manifest, &resource, &counter, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	l.WinnerParticipationID = winnerID
	l.WinnerJustification = winnerJust
	l.ManifestationDeadline = manifest
	l.ResourceDeadline = resource
	l.CounterArgumentDeadline = counter
	return &l, nil
}

// ParticipationRepository implements lot.ParticipationRepository.
type ParticipationRepository struct {
	pool *pgxpool.Pool
}

func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{pool: pool}
}

func (r *ParticipationRepository) Create(ctx context.Context, p *lot.Participation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO participations
		(participation_id, lot_id, supplier_id, company_name, alias, initial_proposal, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ParticipationID, p.LotID, p.SupplierID, p.CompanyName, p.Alias, p.InitialProposal, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ParticipationRepository) GetByID(ctx context.Context, participationID uuid.UUID) (*lot.Participation, error) {
	row := r.pool.QueryRow(ctx, participationColumns+` FROM participations WHERE participation_id=$1`, participationID)
	return scanParticipation(row)
}

func (r *ParticipationRepository) GetBySupplier(ctx context.Context, lotID, supplierID uuid.UUID) (*lot.Participation, error) {
	row := r.pool.QueryRow(ctx, participationColumns+` FROM participations WHERE lot_id=$1 AND supplier_id=$2`, lotID, supplierID)
	return scanParticipation(row)
}

func (r *ParticipationRepository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*lot.Participation, error) {
	rows, err := r.pool.Query(ctx, participationColumns+` FROM participations WHERE lot_id=$1 ORDER BY created_at ASC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var parts []*lot.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (r *ParticipationRepository) CountByLot(ctx context.Context, lotID uuid.UUID, status *lot.ParticipationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM participations WHERE lot_id=$1`
	args := []interface{}{lotID}
	if status != nil {
		query += ` AND status=$2`
		args = append(args, *status)
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ParticipationRepository) Update(ctx context.Context, p *lot.Participation) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE participations
		SET company_name=$1, alias=$2, initial_proposal=$3, status=$4, disqualify_reason=$5, updated_at=$6
		WHERE participation_id=$7
	`, p.CompanyName, p.Alias, p.InitialProposal, p.Status, p.DisqualifyReason, p.UpdatedAt, p.ParticipationID)
	return err
}

const participationColumns = `
	SELECT id, participation_id, lot_id, supplier_id, company_name, alias, initial_proposal, status, disqualify_reason, created_at, updated_at`

func scanParticipation(row pgx.Row) (*lot.Participation, error) {
	var p lot.Participation
	var reason *string
	if err := row.Scan(&p.ID, &p.ParticipationID, &p.LotID, &p.SupplierID, &p.CompanyName, &p.Alias, &p.InitialProposal, &p.Status, &reason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.DisqualifyReason = reason
	return &p, nil
}
