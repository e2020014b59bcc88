package bid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/audit"
	appDispute "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/dispute"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
	domainBid "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/bid"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
	domainLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/infrastructure/countdown"
)

// DefaultConfirmWait is the countdown between bid submission and
// automatic confirmation. A supplier may retract within this window.
const DefaultConfirmWait = 10 * time.Second

// Service manages the bid ledger: submission with competitiveness
// checks, the confirmation countdown, retraction, and ranking queries.
type Service struct {
	bidRepo     domainBid.Repository
	lotRepo     domainLot.Repository
	partRepo    domainLot.ParticipationRepository
	tenderRepo  tender.Repository
	feed        *appDispute.Service
	auditSvc    *appAudit.Service
	sched       *countdown.Scheduler
	confirmWait time.Duration
	logger      zerolog.Logger
}

// NewService creates the bid service. confirmWait <= 0 falls back to
// DefaultConfirmWait.
func NewService(
	bidRepo domainBid.Repository,
	lotRepo domainLot.Repository,
	partRepo domainLot.ParticipationRepository,
	tenderRepo tender.Repository,
	feed *appDispute.Service,
	auditSvc *appAudit.Service,
	sched *countdown.Scheduler,
	confirmWait time.Duration,
	logger zerolog.Logger,
) *Service {
	if confirmWait <= 0 {
		confirmWait = DefaultConfirmWait
	}
	return &Service{
		bidRepo:     bidRepo,
		lotRepo:     lotRepo,
		partRepo:    partRepo,
		tenderRepo:  tenderRepo,
		feed:        feed,
		auditSvc:    auditSvc,
		sched:       sched,
		confirmWait: confirmWait,
		logger:      logger.With().Str("service", "bid").Logger(),
	}
}

// SubmitInput carries a supplier's bid on a lot in dispute.
type SubmitInput struct {
	LotID           uuid.UUID
	ParticipationID uuid.UUID
	Value           float64
	Actor           user.Actor
}

// Submit records a pending bid and arms its confirmation countdown. The
// lot must be in dispute, the participation classified, and the value
// must satisfy the tender's decrement policy against the supplier's own
// active bid and the current best. A new submission from the same
// participation retracts its still-pending bid.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domainBid.Bid, error) {
	l, err := s.lotRepo.GetByID(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("lot %s: %w", in.LotID, domain.ErrNotFound)
	}
	if l.Status != domainLot.StatusInDispute {
		return nil, domainLot.ErrInvalidTransition
	}
	p, err := s.partRepo.GetByID(ctx, in.ParticipationID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("participation %s: %w", in.ParticipationID, domain.ErrNotFound)
	}
	if p.LotID != in.LotID {
		return nil, domainLot.ErrParticipationNotOnLot
	}
	if p.SupplierID != in.Actor.UserID {
		return nil, domainBid.ErrNotSubmitter
	}
	if p.Status != domainLot.ParticipationClassified {
		return nil, domainLot.ErrInvalidParticipation
	}
	t, err := s.tenderRepo.GetByID(ctx, l.TenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tender %s: %w", l.TenderID, domain.ErrNotFound)
	}

	own, err := s.bidRepo.LatestActiveByParticipation(ctx, in.LotID, in.ParticipationID)
	if err != nil {
		return nil, err
	}
	best, err := s.bidRepo.BestActive(ctx, in.LotID, t.Criteria == tender.CriteriaHighestDiscount)
	if err != nil {
		return nil, err
	}
	var ownValue, bestValue *float64
	if own != nil {
		ownValue = &own.Value
	}
	if best != nil {
		bestValue = &best.Value
	}
	ok, err := t.Policy.Allows(t.Criteria, in.Value, ownValue, bestValue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainBid.ErrNotCompetitive
	}

	b, err := domainBid.New(in.LotID, in.ParticipationID, in.Value)
	if err != nil {
		return nil, err
	}

	// A fresh submission replaces the participation's pending bid, if any.
	if prior, err := s.bidRepo.PendingByParticipation(ctx, in.LotID, in.ParticipationID); err != nil {
		return nil, err
	} else if prior != nil {
		s.sched.Cancel(confirmKey(in.LotID, in.ParticipationID))
		if err := prior.Cancel(); err == nil {
			if err := s.bidRepo.UpdateStatus(ctx, prior); err != nil && err != domainBid.ErrNotPending {
				return nil, err
			}
		}
	}

	if err := s.bidRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	bidID := b.BidID
	s.sched.Start(confirmKey(in.LotID, in.ParticipationID), s.confirmWait, func() {
		// Expiry runs detached from the submitting request.
		if err := s.confirm(context.Background(), bidID); err != nil {
			s.logger.Error().Err(err).Str("bid_id", bidID.String()).Msg("bid confirmation failed")
		}
	})

	lotID := in.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &lotID, dispute.EventBidSubmitted, in.Actor.ActorString(), map[string]interface{}{
		"bidId": b.BidID,
		"alias": p.Alias,
		"value": b.Value,
	})
	s.logger.Info().
		Str("bid_id", b.BidID.String()).
		Str("lot_id", in.LotID.String()).
		Float64("value", b.Value).
		Msg("bid submitted")
	return b, nil
}

// Cancel retracts a still-pending bid before its countdown fires. Only
// the submitting supplier may retract.
func (s *Service) Cancel(ctx context.Context, bidID uuid.UUID, actor user.Actor) (*domainBid.Bid, error) {
	b, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	p, err := s.partRepo.GetByID(ctx, b.ParticipationID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.SupplierID != actor.UserID {
		return nil, domainBid.ErrNotSubmitter
	}
	if err := b.Cancel(); err != nil {
		return nil, err
	}
	s.sched.Cancel(confirmKey(b.LotID, b.ParticipationID))
	// The repository guards on the stored status, so a countdown that
	// confirmed the bid between our read and this write wins and the
	// retraction fails with ErrNotPending.
	if err := s.bidRepo.UpdateStatus(ctx, b); err != nil {
		return nil, err
	}
	l, err := s.lotRepo.GetByID(ctx, b.LotID)
	if err == nil && l != nil {
		lotID := b.LotID
		_ = s.feed.Emit(ctx, l.TenderID, &lotID, dispute.EventBidCancelled, actor.ActorString(), map[string]interface{}{
			"bidId": b.BidID,
			"alias": p.Alias,
		})
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeBid,
		EntityID:   b.BidID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     "bid retracted before confirmation",
	})
	return b, nil
}

// BestBid returns the current best active bid on the lot, or nil when no
// bid has been confirmed yet.
func (s *Service) BestBid(ctx context.Context, lotID uuid.UUID) (*domainBid.Bid, error) {
	l, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrNotFound)
	}
	t, err := s.tenderRepo.GetByID(ctx, l.TenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tender %s: %w", l.TenderID, domain.ErrNotFound)
	}
	return s.bidRepo.BestActive(ctx, lotID, t.Criteria == tender.CriteriaHighestDiscount)
}

// ListByLot returns all bids on the lot, most recent first.
func (s *Service) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*domainBid.Bid, error) {
	return s.bidRepo.ListByLot(ctx, lotID)
}

// Get returns a bid.
func (s *Service) Get(ctx context.Context, bidID uuid.UUID) (*domainBid.Bid, error) {
	return s.getBid(ctx, bidID)
}

// ConfirmRemaining reports how long until the participation's pending bid
// confirms, and false when no countdown is armed.
func (s *Service) ConfirmRemaining(lotID, participationID uuid.UUID) (time.Duration, bool) {
	return s.sched.Remaining(confirmKey(lotID, participationID))
}

// confirm flips a pending bid to active, supersedes the participation's
// earlier active bids and announces the new value.
func (s *Service) confirm(ctx context.Context, bidID uuid.UUID) error {
	b, err := s.getBid(ctx, bidID)
	if err != nil {
		return err
	}
	if err := b.Confirm(); err != nil {
		// Cancelled in the retraction window. Nothing to do.
		if err == domainBid.ErrNotPending {
			return nil
		}
		return err
	}
	if err := s.bidRepo.UpdateStatus(ctx, b); err != nil {
		// A retraction landed between our read and the write.
		if err == domainBid.ErrNotPending {
			return nil
		}
		return err
	}
	if _, err := s.bidRepo.SupersedeActive(ctx, b.LotID, b.ParticipationID, b.BidID); err != nil {
		return err
	}

	l, err := s.lotRepo.GetByID(ctx, b.LotID)
	if err != nil || l == nil {
		return err
	}
	p, err := s.partRepo.GetByID(ctx, b.ParticipationID)
	if err != nil || p == nil {
		return err
	}
	lotID := b.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &lotID, dispute.EventBidConfirmed, dispute.SystemSender, map[string]interface{}{
		"bidId": b.BidID,
		"alias": p.Alias,
		"value": b.Value,
	})
	_, _ = s.feed.PostSystem(ctx, l.TenderID, &lotID, fmt.Sprintf("%s ofertou R$ %.2f no lote %d.", p.Alias, b.Value, l.Number), false, nil)
	s.logger.Info().
		Str("bid_id", b.BidID.String()).
		Str("lot_id", b.LotID.String()).
		Float64("value", b.Value).
		Msg("bid confirmed")
	return nil
}

func (s *Service) getBid(ctx context.Context, bidID uuid.UUID) (*domainBid.Bid, error) {
	b, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("bid %s: %w", bidID, domain.ErrNotFound)
	}
	return b, nil
}

func confirmKey(lotID, participationID uuid.UUID) string {
	return "bid-confirm:" + lotID.String() + ":" + participationID.String()
}
