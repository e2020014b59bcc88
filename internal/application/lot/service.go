package lot

import (
	"context"
	"fmt"
	"strings"
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

// defaultAppealDays is the portal default for resource and
// counter-argument windows when the auctioneer does not set one.
const defaultAppealDays = 3

// Service is the lot state machine: the single gate through which lot
// status is mutated. Racing transitions are serialized by the repository's
// compare-and-swap; the loser observes an already-advanced status and
// fails with ErrInvalidTransition.
type Service struct {
	lotRepo    domainLot.Repository
	partRepo   domainLot.ParticipationRepository
	bidRepo    domainBid.Repository
	tenderRepo tender.Repository
	feed       *appDispute.Service
	auditSvc   *appAudit.Service
	sched      *countdown.Scheduler
	logger     zerolog.Logger
}

// NewService creates the lot state machine service.
func NewService(
	lotRepo domainLot.Repository,
	partRepo domainLot.ParticipationRepository,
	bidRepo domainBid.Repository,
	tenderRepo tender.Repository,
	feed *appDispute.Service,
	auditSvc *appAudit.Service,
	sched *countdown.Scheduler,
	logger zerolog.Logger,
) *Service {
	return &Service{
		lotRepo:    lotRepo,
		partRepo:   partRepo,
		bidRepo:    bidRepo,
		tenderRepo: tenderRepo,
		feed:       feed,
		auditSvc:   auditSvc,
		sched:      sched,
		logger:     logger.With().Str("service", "lot").Logger(),
	}
}

// CreateLotInput registers a new lot under a tender.
type CreateLotInput struct {
	TenderID       uuid.UUID
	Number         int
	Description    string
	EstimatedValue float64
	Actor          user.Actor
}

// CreateLot registers a lot in the waiting state.
func (s *Service) CreateLot(ctx context.Context, in CreateLotInput) (*domainLot.Lot, error) {
	if !in.Actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	t, err := s.tenderRepo.GetByID(ctx, in.TenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tender %s: %w", in.TenderID, domain.ErrNotFound)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("lot description is required")
	}
	now := time.Now().UTC()
	l := &domainLot.Lot{
		LotID:          uuid.New(),
		TenderID:       in.TenderID,
		Number:         in.Number,
		Description:    strings.TrimSpace(in.Description),
		EstimatedValue: in.EstimatedValue,
		Status:         domainLot.StatusWaiting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.lotRepo.Create(ctx, l); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLot,
		EntityID:   l.LotID.String(),
		Action:     audit.ActionCreate,
		Actor:      in.Actor.ActorString(),
		ActorRole:  string(in.Actor.Role),
		Reason:     "lot registered",
	})
	return l, nil
}

// RegisterParticipationInput enrolls a supplier's proposal on a lot.
type RegisterParticipationInput struct {
	LotID           uuid.UUID
	SupplierID      uuid.UUID
	CompanyName     string
	InitialProposal float64
	Actor           user.Actor
}

// RegisterParticipation creates a classified participation for a supplier.
// The anonymized alias is derived from the enrollment order.
func (s *Service) RegisterParticipation(ctx context.Context, in RegisterParticipationInput) (*domainLot.Participation, error) {
	l, err := s.getLot(ctx, in.LotID)
	if err != nil {
		return nil, err
	}
	if l.IsTerminal() {
		return nil, domainLot.ErrTerminalState
	}
	if l.Status != domainLot.StatusWaiting && l.Status != domainLot.StatusProposalsOpened {
		return nil, domainLot.ErrInvalidTransition
	}
	existing, err := s.partRepo.GetBySupplier(ctx, in.LotID, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainLot.ErrSupplierAlreadyJoined
	}
	count, err := s.partRepo.CountByLot(ctx, in.LotID, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domainLot.Participation{
		ParticipationID: uuid.New(),
		LotID:           in.LotID,
		SupplierID:      in.SupplierID,
		CompanyName:     strings.TrimSpace(in.CompanyName),
		Alias:           domainLot.NewAlias(count + 1),
		InitialProposal: in.InitialProposal,
		Status:          domainLot.ParticipationClassified,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.partRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeParticipation,
		EntityID:   p.ParticipationID.String(),
		Action:     audit.ActionCreate,
		Actor:      in.Actor.ActorString(),
		ActorRole:  string(in.Actor.Role),
		Reason:     "proposal registered",
	})
	return p, nil
}

// OpenProposals moves the lot from waiting into proposal analysis.
func (s *Service) OpenProposals(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	l, err := s.command(ctx, lotID, actor, domainLot.StatusProposalsOpened, nil)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Propostas do lote %d abertas para análise.", l.Number))
	return l, nil
}

// StartDispute opens the competitive bidding phase. It requires at least
// one classified participation.
func (s *Service) StartDispute(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	guard := func(l *domainLot.Lot) (*domainLot.Participation, error) {
		classified := domainLot.ParticipationClassified
		n, err := s.partRepo.CountByLot(ctx, lotID, &classified)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, domainLot.ErrNoClassifiedSuppliers
		}
		return nil, nil
	}
	l, err := s.command(ctx, lotID, actor, domainLot.StatusInDispute, guard)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Disputa do lote %d aberta. Lances liberados.", l.Number))
	return l, nil
}

// EndDispute closes bidding, computes the arrematante from the best
// active bid among classified suppliers (ties go to the earliest bid) and
// announces the result.
func (s *Service) EndDispute(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	var winner *domainLot.Participation
	var best *domainBid.Bid
	guard := func(l *domainLot.Lot) (*domainLot.Participation, error) {
		t, err := s.tenderRepo.GetByID(ctx, l.TenderID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("tender %s: %w", l.TenderID, domain.ErrNotFound)
		}
		best, err = s.bidRepo.BestActive(ctx, lotID, t.Criteria == tender.CriteriaHighestDiscount)
		if err != nil {
			return nil, err
		}
		if best == nil {
			return nil, domainLot.ErrNoActiveBids
		}
		winner, err = s.partRepo.GetByID(ctx, best.ParticipationID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("participation %s: %w", best.ParticipationID, domain.ErrNotFound)
		}
		if err := winner.MarkWinner(); err != nil {
			return nil, err
		}
		winner.UpdatedAt = time.Now().UTC()
		winnerID := winner.ParticipationID
		l.WinnerParticipationID = &winnerID
		return winner, nil
	}
	l, err := s.command(ctx, lotID, actor, domainLot.StatusDisputeEnded, guard)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, l, fmt.Sprintf("Disputa do lote %d encerrada. Arrematante: %s com o lance de R$ %.2f.", l.Number, winner.Alias, best.Value))
	return l, nil
}

// StartNegotiation opens direct negotiation with the arrematante.
func (s *Service) StartNegotiation(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	guard := func(l *domainLot.Lot) (*domainLot.Participation, error) {
		if l.WinnerParticipationID == nil {
			return nil, domainLot.ErrNoWinner
		}
		return nil, nil
	}
	l, err := s.command(ctx, lotID, actor, domainLot.StatusNegotiation, guard)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Negociação aberta para o lote %d.", l.Number))
	return l, nil
}

// DeclareWinner formally declares the arrematante as the winner. A
// non-empty justification is recorded.
func (s *Service) DeclareWinner(ctx context.Context, lotID uuid.UUID, actor user.Actor, justification string) (*domainLot.Lot, error) {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return nil, domainLot.ErrJustificationRequired
	}
	guard := func(l *domainLot.Lot) (*domainLot.Participation, error) {
		if l.WinnerParticipationID == nil {
			return nil, domainLot.ErrNoWinner
		}
		l.WinnerJustification = &justification
		return nil, nil
	}
	l, err := s.command(ctx, lotID, actor, domainLot.StatusWinnerDeclared, guard)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Vencedor declarado para o lote %d.", l.Number))
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLot,
		EntityID:   l.LotID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     justification,
	})
	return l, nil
}

// OpenResourcePhase opens the appeal window. The manifestation deadline is
// now + manifestHours; resource and counter-argument windows follow it,
// defaulting to three days each when zero.
func (s *Service) OpenResourcePhase(ctx context.Context, lotID uuid.UUID, actor user.Actor, manifestHours, resourceHours, counterHours int) (*domainLot.Lot, error) {
	if manifestHours <= 0 {
		return nil, fmt.Errorf("manifestation window must be positive")
	}
	var manifest time.Time
	guard := func(l *domainLot.Lot) (*domainLot.Participation, error) {
		now := time.Now().UTC()
		manifest = now.Add(time.Duration(manifestHours) * time.Hour)
		resourceWindow := time.Duration(resourceHours) * time.Hour
		if resourceHours <= 0 {
			resourceWindow = defaultAppealDays * 24 * time.Hour
		}
		counterWindow := time.Duration(counterHours) * time.Hour
		if counterHours <= 0 {
			counterWindow = defaultAppealDays * 24 * time.Hour
		}
		resourceDeadline := manifest.Add(resourceWindow)
		counterDeadline := resourceDeadline.Add(counterWindow)
		l.ManifestationDeadline = &manifest
		l.ResourceDeadline = &resourceDeadline
		l.CounterArgumentDeadline = &counterDeadline
		return nil, nil
	}
	l, err := s.command(ctx, lotID, actor, domainLot.StatusResourcePhase, guard)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Fase recursal aberta para o lote %d. Manifestação até %s.", l.Number, manifest.Format("02/01/2006 15:04")))
	return l, nil
}

// Adjudicate formally awards the lot to the winner.
func (s *Service) Adjudicate(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	l, err := s.command(ctx, lotID, actor, domainLot.StatusAdjudicated, nil)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Lote %d adjudicado.", l.Number))
	return l, nil
}

// Homologate ratifies the result. Terminal.
func (s *Service) Homologate(ctx context.Context, lotID uuid.UUID, actor user.Actor) (*domainLot.Lot, error) {
	l, err := s.command(ctx, lotID, actor, domainLot.StatusHomologated, nil)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, l, fmt.Sprintf("Lote %d homologado.", l.Number))
	return l, nil
}

// Revoke revokes the lot. With force, the authority override bypasses the
// normal edges from any non-terminal state.
func (s *Service) Revoke(ctx context.Context, lotID uuid.UUID, actor user.Actor, reason string, force bool) (*domainLot.Lot, error) {
	return s.override(ctx, lotID, actor, domainLot.StatusRevoked, reason, force)
}

// Cancel cancels the lot. Same override semantics as Revoke.
func (s *Service) Cancel(ctx context.Context, lotID uuid.UUID, actor user.Actor, reason string, force bool) (*domainLot.Lot, error) {
	return s.override(ctx, lotID, actor, domainLot.StatusCanceled, reason, force)
}

// DisqualifySupplier removes a supplier from the dispute with a
// justification. The notice is private to the supplier.
func (s *Service) DisqualifySupplier(ctx context.Context, lotID, participationID uuid.UUID, actor user.Actor, justification string) (*domainLot.Participation, error) {
	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l.IsTerminal() {
		return nil, domainLot.ErrTerminalState
	}
	p, err := s.getParticipation(ctx, lotID, participationID)
	if err != nil {
		return nil, err
	}
	if err := p.Disqualify(strings.TrimSpace(justification)); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.partRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	lotID2 := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &lotID2, dispute.EventSupplierDisqualified, actor.ActorString(), map[string]interface{}{
		"participationId": p.ParticipationID,
		"alias":           p.Alias,
	})
	supplier := p.SupplierID.String()
	_, _ = s.feed.PostSystem(ctx, l.TenderID, &lotID2, fmt.Sprintf("%s desclassificado: %s", p.Alias, justification), true, &supplier)
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeParticipation,
		EntityID:   p.ParticipationID.String(),
		Action:     audit.ActionDisqualify,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     justification,
	})
	return p, nil
}

// ReclassifySupplier reverses a disqualification.
func (s *Service) ReclassifySupplier(ctx context.Context, lotID, participationID uuid.UUID, actor user.Actor) (*domainLot.Participation, error) {
	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l.IsTerminal() {
		return nil, domainLot.ErrTerminalState
	}
	p, err := s.getParticipation(ctx, lotID, participationID)
	if err != nil {
		return nil, err
	}
	if err := p.Reclassify(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.partRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	lotID2 := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &lotID2, dispute.EventSupplierReclassified, actor.ActorString(), map[string]interface{}{
		"participationId": p.ParticipationID,
		"alias":           p.Alias,
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeParticipation,
		EntityID:   p.ParticipationID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     "supplier reclassified",
	})
	return p, nil
}

// StartLotTimer starts an auctioneer-initiated countdown on the lot and
// announces it. A new timer replaces any running one for the lot.
func (s *Service) StartLotTimer(ctx context.Context, lotID uuid.UUID, actor user.Actor, seconds int) error {
	if !actor.CanConduct() {
		return user.ErrUnauthorized
	}
	if seconds <= 0 {
		return fmt.Errorf("timer duration must be positive")
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return err
	}
	if l.IsTerminal() {
		return domainLot.ErrTerminalState
	}
	tenderID := l.TenderID
	id := l.LotID
	number := l.Number
	s.sched.Start("lot-timer:"+lotID.String(), time.Duration(seconds)*time.Second, func() {
		ctx := context.Background()
		_, _ = s.feed.PostSystem(ctx, tenderID, &id, fmt.Sprintf("Tempo encerrado para o lote %d.", number), false, nil)
	})
	_ = s.feed.Emit(ctx, tenderID, &id, dispute.EventCountdownStarted, actor.ActorString(), map[string]interface{}{
		"seconds": seconds,
	})
	_, _ = s.feed.PostSystem(ctx, tenderID, &id, fmt.Sprintf("Pregoeiro iniciou contagem de %d segundos para o lote %d.", seconds, number), false, nil)
	return nil
}

// CancelLotTimer cancels a running lot countdown.
func (s *Service) CancelLotTimer(ctx context.Context, lotID uuid.UUID, actor user.Actor) error {
	if !actor.CanConduct() {
		return user.ErrUnauthorized
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return err
	}
	if !s.sched.Cancel("lot-timer:" + lotID.String()) {
		return nil
	}
	id := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventCountdownCancelled, actor.ActorString(), nil)
	return nil
}

// Get returns a lot.
func (s *Service) Get(ctx context.Context, lotID uuid.UUID) (*domainLot.Lot, error) {
	return s.getLot(ctx, lotID)
}

// ListByTender returns a tender's lots.
func (s *Service) ListByTender(ctx context.Context, tenderID uuid.UUID) ([]*domainLot.Lot, error) {
	return s.lotRepo.ListByTender(ctx, tenderID)
}

// ListParticipations returns a lot's participations.
func (s *Service) ListParticipations(ctx context.Context, lotID uuid.UUID) ([]*domainLot.Participation, error) {
	return s.partRepo.ListByLot(ctx, lotID)
}

// command runs one validated transition: role check, load, optional guard,
// domain validation, then compare-and-swap on the stored status. The guard
// may set result columns on its copy of the lot and return a winner
// participation; both persist atomically with the status change.
func (s *Service) command(ctx context.Context, lotID uuid.UUID, actor user.Actor, target domainLot.Status, guard func(*domainLot.Lot) (*domainLot.Participation, error)) (*domainLot.Lot, error) {
	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	from := l.Status
	var winner *domainLot.Participation
	if guard != nil {
		winner, err = guard(l)
		if err != nil {
			return nil, err
		}
	}
	if err := l.TransitionTo(target); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC()
	applied, err := s.lotRepo.Transition(ctx, l, from, winner)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent command advanced the lot first.
		return nil, domainLot.ErrInvalidTransition
	}

	id := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventLotStatusChanged, actor.ActorString(), map[string]interface{}{
		"from": from,
		"to":   target,
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLot,
		EntityID:   l.LotID.String(),
		Action:     audit.ActionTransition,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     fmt.Sprintf("%s -> %s", from, target),
	})
	s.logger.Info().
		Str("lot_id", l.LotID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("lot transition")
	return l, nil
}

// override runs a revoke/cancel transition, optionally forced.
func (s *Service) override(ctx context.Context, lotID uuid.UUID, actor user.Actor, target domainLot.Status, reason string, force bool) (*domainLot.Lot, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domainLot.ErrJustificationRequired
	}
	if !force {
		l, err := s.command(ctx, lotID, actor, target, nil)
		if err != nil {
			return nil, err
		}
		s.announceOverride(ctx, l, target, reason)
		return l, nil
	}

	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	l, err := s.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	from := l.Status
	if err := l.ForceTo(target); err != nil {
		return nil, err
	}
	l.UpdatedAt = time.Now().UTC()
	applied, err := s.lotRepo.Transition(ctx, l, from, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainLot.ErrInvalidTransition
	}
	id := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventLotStatusChanged, actor.ActorString(), map[string]interface{}{
		"from":   from,
		"to":     target,
		"forced": true,
	})
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeLot,
		EntityID:   l.LotID.String(),
		Action:     audit.ActionOverride,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     reason,
	})
	s.announceOverride(ctx, l, target, reason)
	return l, nil
}

func (s *Service) announceOverride(ctx context.Context, l *domainLot.Lot, target domainLot.Status, reason string) {
	verb := "revogado"
	if target == domainLot.StatusCanceled {
		verb = "cancelado"
	}
	s.announce(ctx, l, fmt.Sprintf("Lote %d %s: %s", l.Number, verb, reason))
}

func (s *Service) announce(ctx context.Context, l *domainLot.Lot, content string) {
	id := l.LotID
	if _, err := s.feed.PostSystem(ctx, l.TenderID, &id, content, false, nil); err != nil {
		s.logger.Warn().Err(err).Str("lot_id", l.LotID.String()).Msg("failed to post system message")
	}
}

func (s *Service) getLot(ctx context.Context, lotID uuid.UUID) (*domainLot.Lot, error) {
	l, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrNotFound)
	}
	return l, nil
}

func (s *Service) getParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*domainLot.Participation, error) {
	p, err := s.partRepo.GetByID(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("participation %s: %w", participationID, domain.ErrNotFound)
	}
	if p.LotID != lotID {
		return nil, domainLot.ErrParticipationNotOnLot
	}
	return p, nil
}
