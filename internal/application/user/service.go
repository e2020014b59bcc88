package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain"
	domainUser "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/user"
)

// Service handles user management.
type Service struct {
	repo   domainUser.Repository
	logger zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domainUser.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// CreateInput defines user creation input.
type CreateInput struct {
	Username    string
	Password    string
	Role        domainUser.Role
	CompanyName *string
	Status      domainUser.Status
}

// UpdateInput defines user update input.
type UpdateInput struct {
	Username    *string
	Role        *domainUser.Role
	Status      *domainUser.Status
	CompanyName *string
}

func (s *Service) CreateUser(ctx context.Context, input CreateInput) (*domainUser.User, error) {
	username := domainUser.NormalizeUsername(input.Username)
	if err := domainUser.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domainUser.ValidatePassword(input.Password, username); err != nil {
		return nil, err
	}
	if err := domainUser.ValidateRole(input.Role); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domainUser.StatusActive
	}
	if err := domainUser.ValidateStatus(input.Status); err != nil {
		return nil, err
	}
	if input.Role == domainUser.RoleSupplier && (input.CompanyName == nil || strings.TrimSpace(*input.CompanyName) == "") {
		return nil, fmt.Errorf("company_name is required for supplier")
	}

	hash, err := domainUser.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	u := &domainUser.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
		CompanyName:  input.CompanyName,
		Status:       input.Status,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.UserID.String()).Str("username", u.Username).Msg("user created")
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, input UpdateInput) (*domainUser.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if input.Username != nil {
		username := domainUser.NormalizeUsername(*input.Username)
		if err := domainUser.ValidateUsername(username); err != nil {
			return nil, err
		}
		u.Username = username
	}
	if input.Role != nil {
		if err := domainUser.ValidateRole(*input.Role); err != nil {
			return nil, err
		}
		u.Role = *input.Role
	}
	if input.Status != nil {
		if err := domainUser.ValidateStatus(*input.Status); err != nil {
			return nil, err
		}
		u.Status = *input.Status
	}
	if input.CompanyName != nil {
		u.CompanyName = input.CompanyName
	}
	if u.Role == domainUser.RoleSupplier && (u.CompanyName == nil || strings.TrimSpace(*u.CompanyName) == "") {
		return nil, fmt.Errorf("company_name is required for supplier")
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if err := domainUser.ValidatePassword(password, u.Username); err != nil {
		return err
	}
	hash, err := domainUser.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*domainUser.User, error) {
	return s.repo.GetByUsername(ctx, domainUser.NormalizeUsername(username))
}

func (s *Service) ListUsers(ctx context.Context, filter domainUser.Filter, limit, offset int) ([]*domainUser.User, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
