package service

import (
	"context"
	"errors"
	"strings"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	user := &models.User{Name: strings.TrimSpace(in.Name), Email: strings.TrimSpace(in.Email)}
	if user.Name == "" || user.Email == "" {
		return nil, InvalidOperation("name and email are required")
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, Conflict("email %s is already registered", user.Email)
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("user %d not found", id)
	}
	return user, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	var updated *models.User
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		user, err := repo.GetUser(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("user %d not found", id)
		}
		if err != nil {
			return err
		}

		if v := nonBlank(patch.Name); v != "" {
			user.Name = v
		}
		if v := nonBlank(patch.Email); v != "" {
			user.Email = v
		}

		if err := repo.UpdateUser(ctx, user); err != nil {
			if errors.Is(err, database.ErrDuplicateEmail) {
				return Conflict("email %s is already registered", user.Email)
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return NotFound("user %d not found", id)
	}
	if err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// requireUser fails with NotFound when id is not a registered user.
func requireUser(ctx context.Context, repo domain.Repository, id int64) error {
	exists, err := repo.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return NotFound("user %d not found", id)
	}
	return nil
}

func nonBlank(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
