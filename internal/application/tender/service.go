package tender

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/application/audit"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
	domainTender "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

// Service manages tender lifecycle and settings.
type Service struct {
	repo     domainTender.Repository
	auditSvc *appAudit.Service
	logger   zerolog.Logger
}

// NewService creates the tender service.
func NewService(repo domainTender.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "tender").Logger(),
	}
}

// CreateInput carries a new tender.
type CreateInput struct {
	Number   string
	Agency   string
	Title    string
	Criteria domainTender.JudgmentCriteria
	Policy   domainTender.BidPolicy
	Actor    user.Actor
}

// Create registers a draft tender.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domainTender.Tender, error) {
	if !in.Actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	if strings.TrimSpace(in.Number) == "" || strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("tender number and title are required")
	}
	if err := domainTender.ValidateCriteria(in.Criteria); err != nil {
		return nil, err
	}
	if err := in.Policy.Normalize(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	actorName := in.Actor.ActorString()
	t := &domainTender.Tender{
		TenderID:    uuid.New(),
		Number:      strings.TrimSpace(in.Number),
		Agency:      strings.TrimSpace(in.Agency),
		Title:       strings.TrimSpace(in.Title),
		Criteria:    in.Criteria,
		Policy:      in.Policy,
		Status:      domainTender.StatusDraft,
		ChatEnabled: true,
		CreatedBy:   &actorName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTender,
		EntityID:   t.TenderID.String(),
		Action:     audit.ActionCreate,
		Actor:      in.Actor.ActorString(),
		ActorRole:  string(in.Actor.Role),
		Reason:     "tender created",
	})
	s.logger.Info().Str("tender_id", t.TenderID.String()).Str("number", t.Number).Msg("tender created")
	return t, nil
}

// Publish moves a draft tender to published.
func (s *Service) Publish(ctx context.Context, tenderID uuid.UUID, actor user.Actor) (*domainTender.Tender, error) {
	return s.transition(ctx, tenderID, actor, func(t *domainTender.Tender) error {
		return t.Publish()
	}, "tender published")
}

// StartSession opens the live dispute session for a published tender.
func (s *Service) StartSession(ctx context.Context, tenderID uuid.UUID, actor user.Actor) (*domainTender.Tender, error) {
	return s.transition(ctx, tenderID, actor, func(t *domainTender.Tender) error {
		if !t.CanTransitionTo(domainTender.StatusInSession) {
			return domainTender.ErrInvalidTransition
		}
		t.Status = domainTender.StatusInSession
		return nil
	}, "session opened")
}

// FinishSession closes the tender once its lots are settled.
func (s *Service) FinishSession(ctx context.Context, tenderID uuid.UUID, actor user.Actor) (*domainTender.Tender, error) {
	return s.transition(ctx, tenderID, actor, func(t *domainTender.Tender) error {
		if !t.CanTransitionTo(domainTender.StatusFinished) {
			return domainTender.ErrInvalidTransition
		}
		t.Status = domainTender.StatusFinished
		return nil
	}, "session finished")
}

// Get returns a tender.
func (s *Service) Get(ctx context.Context, tenderID uuid.UUID) (*domainTender.Tender, error) {
	t, err := s.repo.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tender %s: %w", tenderID, domain.ErrNotFound)
	}
	return t, nil
}

// List returns a page of tenders.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domainTender.Tender, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) transition(ctx context.Context, tenderID uuid.UUID, actor user.Actor, apply func(*domainTender.Tender) error, reason string) (*domainTender.Tender, error) {
	if !actor.CanConduct() {
		return nil, user.ErrUnauthorized
	}
	t, err := s.Get(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if err := apply(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &audit.Entry{
		EntityType: audit.EntityTypeTender,
		EntityID:   t.TenderID.String(),
		Action:     audit.ActionTransition,
		Actor:      actor.ActorString(),
		ActorRole:  string(actor.Role),
		Reason:     reason,
	})
	return t, nil
}
