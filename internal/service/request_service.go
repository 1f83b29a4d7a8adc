package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger, now: time.Now}
}

func (s *RequestService) CreateRequest(ctx context.Context, requestorID int64, in models.NewItemRequest) (*models.ItemRequestDto, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, InvalidOperation("description is required")
	}

	req := &models.ItemRequest{Description: description, RequestorID: requestorID, Created: s.now()}
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, requestorID); err != nil {
			return err
		}
		return repo.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", req.ID).Int64("requestor_id", requestorID).Msg("item request created")
	dto := models.NewItemRequestDto(req, nil)
	return &dto, nil
}

func (s *RequestService) ListOwnRequests(ctx context.Context, requestorID int64) ([]models.ItemRequestDto, error) {
	var out []models.ItemRequestDto
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, requestorID); err != nil {
			return err
		}
		reqs, err := repo.ListRequestsByRequestor(ctx, requestorID)
		if err != nil {
			return err
		}
		out, err = withItems(ctx, repo, reqs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RequestService) ListOtherRequests(ctx context.Context, userID int64, page models.Page) ([]models.ItemRequestDto, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}

	var out []models.ItemRequestDto
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		reqs, err := repo.ListRequestsExcept(ctx, userID, page)
		if err != nil {
			return err
		}
		out, err = withItems(ctx, repo, reqs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RequestService) GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequestDto, error) {
	var out *models.ItemRequestDto
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, userID); err != nil {
			return err
		}
		req, err := repo.GetRequest(ctx, requestID)
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("item request %d not found", requestID)
		}
		if err != nil {
			return err
		}
		dtos, err := withItems(ctx, repo, []*models.ItemRequest{req})
		if err != nil {
			return err
		}
		out = &dtos[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withItems loads the fulfilling items of every request in one query.
func withItems(ctx context.Context, repo domain.Repository, reqs []*models.ItemRequest) ([]models.ItemRequestDto, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	items, err := repo.ListItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ItemRequestDto, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, models.NewItemRequestDto(r, items[r.ID]))
	}
	return out, nil
}
