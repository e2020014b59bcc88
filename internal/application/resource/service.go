package resource

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
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
	domainLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
	domainResource "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/resource"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

// Service manages the appeal sub-workflow attached to lots in the
// resource phase: manifestation of intent, written appeal submission,
// counter-arguments from other participants, and the auctioneer's ruling.
type Service struct {
	resRepo  domainResource.Repository
	lotRepo  domainLot.Repository
	partRepo domainLot.ParticipationRepository
	feed     *appDispute.Service
	auditSvc *appAudit.Service
	logger   zerolog.Logger
}

// NewService creates the resource service.
func NewService(
	resRepo domainResource.Repository,
	lotRepo domainLot.Repository,
	partRepo domainLot.ParticipationRepository,
	feed *appDispute.Service,
	auditSvc *appAudit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		resRepo:  resRepo,
		lotRepo:  lotRepo,
		partRepo: partRepo,
		feed:     feed,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "resource").Logger(),
	}
}

// ManifestIntention records a participant's intent to appeal. The lot
// must be in the resource phase and within the manifestation window; the
// arrematante cannot appeal their own win. Re-manifesting returns the
// existing resource unchanged.
func (s *Service) ManifestIntention(ctx context.Context, lotID, participationID uuid.UUID, actor user.Actor) (*domainResource.Resource, error) {
	l, p, err := s.loadLotAndParticipation(ctx, lotID, participationID)
	if err != nil {
		return nil, err
	}
	if p.SupplierID != actor.UserID {
		return nil, user.ErrUnauthorized
	}
	if l.Status != domainLot.StatusResourcePhase {
		return nil, domainResource.ErrPhaseViolation
	}
	if err := domainResource.PastDeadline(time.Now().UTC(), l.ManifestationDeadline); err != nil {
		return nil, err
	}
	if l.WinnerParticipationID != nil && *l.WinnerParticipationID == participationID {
		return nil, domainResource.ErrWinnerCannotAppeal
	}

	existing, err := s.resRepo.GetByParticipation(ctx, lotID, participationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	r := domainResource.NewManifestation(lotID, participationID)
	if err := s.resRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	id := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventResourcePhaseChanged, actor.ActorString(), map[string]interface{}{
		"resourceId": r.ResourceID,
		"phase":      r.Phase,
		"alias":      p.Alias,
	})
	_, _ = s.feed.PostSystem(ctx, l.TenderID, &id, fmt.Sprintf("%s manifestou intenção de recurso no lote %d.", p.Alias, l.Number), false, nil)
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeResource,
		EntityID:   r.ResourceID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     "intent to appeal manifested",
	})
	return r, nil
}

// SubmitResource attaches the written appeal to a manifested resource
// within the resource window.
func (s *Service) SubmitResource(ctx context.Context, resourceID uuid.UUID, actor user.Actor, content string, attachmentURL *string) (*domainResource.Resource, error) {
	r, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	l, p, err := s.loadLotAndParticipation(ctx, r.LotID, r.ParticipationID)
	if err != nil {
		return nil, err
	}
	if p.SupplierID != actor.UserID {
		return nil, user.ErrUnauthorized
	}
	if err := domainResource.PastDeadline(time.Now().UTC(), l.ResourceDeadline); err != nil {
		return nil, err
	}
	if err := r.Submit(strings.TrimSpace(content), attachmentURL); err != nil {
		return nil, err
	}
	if err := s.resRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	id := l.LotID
	_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventResourcePhaseChanged, actor.ActorString(), map[string]interface{}{
		"resourceId": r.ResourceID,
		"phase":      r.Phase,
		"alias":      p.Alias,
	})
	_, _ = s.feed.PostSystem(ctx, l.TenderID, &id, fmt.Sprintf("%s apresentou razões de recurso no lote %d.", p.Alias, l.Number), false, nil)
	return r, nil
}

// SubmitCounterArgument files a rebuttal against a submitted resource.
// The appellant cannot counter their own appeal.
func (s *Service) SubmitCounterArgument(ctx context.Context, resourceID, participationID uuid.UUID, actor user.Actor, content string) (*domainResource.CounterArgument, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domainResource.ErrContentRequired
	}
	r, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if r.Phase != domainResource.PhaseSubmitted {
		return nil, domainResource.ErrPhaseViolation
	}
	if r.ParticipationID == participationID {
		return nil, domainResource.ErrOwnResource
	}
	l, p, err := s.loadLotAndParticipation(ctx, r.LotID, participationID)
	if err != nil {
		return nil, err
	}
	if p.SupplierID != actor.UserID {
		return nil, user.ErrUnauthorized
	}
	if err := domainResource.PastDeadline(time.Now().UTC(), l.CounterArgumentDeadline); err != nil {
		return nil, err
	}
	ca := &domainResource.CounterArgument{
		CounterArgumentID: uuid.New(),
		ResourceID:        resourceID,
		ParticipationID:   participationID,
		Content:           content,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.resRepo.CreateCounterArgument(ctx, ca); err != nil {
		return nil, err
	}
	id := l.LotID
	_, _ = s.feed.PostSystem(ctx, l.TenderID, &id, fmt.Sprintf("%s apresentou contrarrazões no lote %d.", p.Alias, l.Number), false, nil)
	return ca, nil
}

// JudgeResource records the auctioneer's terminal ruling on a submitted
// resource and announces it.
func (s *Service) JudgeResource(ctx context.Context, resourceID uuid.UUID, actor user.Actor, decision domainResource.Decision, justification string) (*domainResource.Resource, error) {
	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	r, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if err := r.Judge(decision, strings.TrimSpace(justification)); err != nil {
		return nil, err
	}
	if err := s.resRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	l, err := s.lotRepo.GetByID(ctx, r.LotID)
	if err == nil && l != nil {
		id := l.LotID
		verdict := "improcedente"
		if decision == domainResource.DecisionProcedente {
			verdict = "procedente"
		}
		_ = s.feed.Emit(ctx, l.TenderID, &id, dispute.EventResourceJudged, actor.ActorString(), map[string]interface{}{
			"resourceId": r.ResourceID,
			"decision":   decision,
		})
		_, _ = s.feed.PostSystem(ctx, l.TenderID, &id, fmt.Sprintf("Recurso julgado %s no lote %d.", verdict, l.Number), false, nil)
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeResource,
		EntityID:   r.ResourceID.String(),
		Action:     audit.ActionJudge,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     justification,
	})
	return r, nil
}

// Get returns a resource.
func (s *Service) Get(ctx context.Context, resourceID uuid.UUID) (*domainResource.Resource, error) {
	return s.getResource(ctx, resourceID)
}

// ListByLot returns all resources filed against the lot.
func (s *Service) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*domainResource.Resource, error) {
	return s.resRepo.ListByLot(ctx, lotID)
}

// ListCounterArguments returns the rebuttals filed against a resource.
func (s *Service) ListCounterArguments(ctx context.Context, resourceID uuid.UUID) ([]*domainResource.CounterArgument, error) {
	return s.resRepo.ListCounterArguments(ctx, resourceID)
}

func (s *Service) getResource(ctx context.Context, resourceID uuid.UUID) (*domainResource.Resource, error) {
	r, err := s.resRepo.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("resource %s: %w", resourceID, domain.ErrNotFound)
	}
	return r, nil
}

func (s *Service) loadLotAndParticipation(ctx context.Context, lotID, participationID uuid.UUID) (*domainLot.Lot, *domainLot.Participation, error) {
	l, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, nil, err
	}
	if l == nil {
		return nil, nil, fmt.Errorf("lot %s: %w", lotID, domain.ErrNotFound)
	}
	p, err := s.partRepo.GetByID(ctx, participationID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, fmt.Errorf("participation %s: %w", participationID, domain.ErrNotFound)
	}
	if p.LotID != lotID {
		return nil, nil, domainLot.ErrParticipationNotOnLot
	}
	return l, p, nil
}
