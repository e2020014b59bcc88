package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
)

// Service handles the audit trail of privileged session acts.
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates an audit service. When signKey is set, records are
// HMAC-signed before persisting.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log records an audit entry asynchronously.
func (s *Service) Log(ctx context.Context, entry *audit.Entry) {
	go func() {
		if err := s.LogSync(context.Background(), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entity_type", string(entry.EntityType)).
				Str("entity_id", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync records an audit entry synchronously.
func (s *Service) LogSync(ctx context.Context, entry *audit.Entry) error {
	log, err := audit.NewLog(entry)
	if err != nil {
		return fmt.Errorf("failed to build audit log: %w", err)
	}
	if len(s.signKey) > 0 {
		sig, err := audit.Sign(log, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		log.Signature = &sig
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	s.logger.Debug().
		Str("audit_id", log.AuditID.String()).
		Str("entity_type", string(log.EntityType)).
		Str("entity_id", log.EntityID).
		Str("action", string(log.Action)).
		Str("actor", log.Actor).
		Msg("audit log created")
	return nil
}

// Get retrieves one record.
func (s *Service) Get(ctx context.Context, auditID uuid.UUID) (*audit.Log, error) {
	return s.repo.GetByID(ctx, auditID)
}

// List queries the trail.
func (s *Service) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
