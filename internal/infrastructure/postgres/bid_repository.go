package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/bid"
)

// BidRepository implements bid.Repository. Active-bid queries join
// participations so bids from disqualified suppliers never rank.
type BidRepository struct {
	pool *pgxpool.Pool
}

func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

func (r *BidRepository) Create(ctx context.Context, b *bid.Bid) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bids
		(bid_id, lot_id, participation_id, value, status, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, b.BidID, b.LotID, b.ParticipationID, b.Value, b.Status, b.SubmittedAt)
	return err
}

func (r *BidRepository) GetByID(ctx context.Context, bidID uuid.UUID) (*bid.Bid, error) {
	row := r.pool.QueryRow(ctx, bidColumns+` FROM bids WHERE bid_id=$1`, bidID)
	return scanBid(row)
}

// UpdateStatus applies the pending->active or pending->cancelled flip.
// The status guard keeps a retraction racing the confirmation countdown
// from overwriting the flip that landed first.
func (r *BidRepository) UpdateStatus(ctx context.Context, b *bid.Bid) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE bids SET status=$1, confirmed_at=$2, cancelled_at=$3
		WHERE bid_id=$4 AND status=$5
	`, b.Status, b.ConfirmedAt, b.CancelledAt, b.BidID, bid.StatusPending)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return bid.ErrNotPending
	}
	return nil
}

func (r *BidRepository) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*bid.Bid, error) {
	rows, err := r.pool.Query(ctx, bidColumns+` FROM bids WHERE lot_id=$1 ORDER BY submitted_at DESC`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bids []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (r *BidRepository) LatestActiveByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*bid.Bid, error) {
	row := r.pool.QueryRow(ctx, bidColumns+`
		FROM bids
		WHERE lot_id=$1 AND participation_id=$2 AND status=$3
		ORDER BY confirmed_at DESC LIMIT 1
	`, lotID, participationID, bid.StatusActive)
	return scanBid(row)
}

func (r *BidRepository) BestActive(ctx context.Context, lotID uuid.UUID, highestWins bool) (*bid.Bid, error) {
	order := "b.value ASC"
	if highestWins {
		order = "b.value DESC"
	}
	row := r.pool.QueryRow(ctx, `
		SELECT b.id, b.bid_id, b.lot_id, b.participation_id, b.value, b.status, b.submitted_at, b.confirmed_at, b.cancelled_at
		FROM bids b
		JOIN participations p ON p.participation_id = b.participation_id
		WHERE b.lot_id=$1 AND b.status=$2 AND p.status IN ($3,$4)
		ORDER BY `+order+`, b.submitted_at ASC
		LIMIT 1
	`, lotID, bid.StatusActive, "CLASSIFIED", "WINNER")
	return scanBid(row)
}

func (r *BidRepository) PendingByParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*bid.Bid, error) {
	row := r.pool.QueryRow(ctx, bidColumns+`
		FROM bids
		WHERE lot_id=$1 AND participation_id=$2 AND status=$3
		ORDER BY submitted_at DESC LIMIT 1
	`, lotID, participationID, bid.StatusPending)
	return scanBid(row)
}

func (r *BidRepository) SupersedeActive(ctx context.Context, lotID, participationID, keep uuid.UUID) (int, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE bids SET status=$1 WHERE lot_id=$2 AND participation_id=$3 AND status=$4 AND bid_id<>$5
	`, bid.StatusSuperseded, lotID, participationID, bid.StatusActive, keep)
	if err != nil {
		return 0, err
	}
	return int(res.RowsAffected()), nil
}

const bidColumns = `
	SELECT id, bid_id, lot_id, participation_id, value, status, submitted_at, confirmed_at, cancelled_at`

func scanBid(row pgx.Row) (*bid.Bid, error) {
	var b bid.Bid
	var confirmed, cancelled *time.Time
	if err := row.Scan(&b.ID, &b.BidID, &b.LotID, &b.ParticipationID, &b.Value, &b.Status, &b.SubmittedAt, &confirmed, &cancelled); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.ConfirmedAt = confirmed
	b.CancelledAt = cancelled
	return &b, nil
}
