package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, in models.NewItem) (*models.Item, error) {
	item := &models.Item{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		OwnerID:     ownerID,
		RequestID:   in.RequestID,
	}
	if item.Name == "" || item.Description == "" {
		return nil, InvalidOperation("name and description are required")
	}
	if in.Available == nil {
		return nil, InvalidOperation("available is required")
	}
	item.Available = *in.Available

	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, ownerID); err != nil {
			return err
		}
		if item.RequestID != nil {
			if _, err := repo.GetRequest(ctx, *item.RequestID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return NotFound("item request %d not found", *item.RequestID)
				}
				return err
			}
		}
		return repo.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

func (s *ItemService) UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error) {
	var updated *models.Item
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		item, err := getItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return Unauthorized("user %d does not own item %d", ownerID, itemID)
		}

		if v := nonBlank(patch.Name); v != "" {
			item.Name = v
		}
		if v := nonBlank(patch.Description); v != "" {
			item.Description = v
		}
		if patch.Available != nil {
			item.Available = *patch.Available
		}

		if err := repo.UpdateItem(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error) {
	var out *models.ItemDetails
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, viewerID); err != nil {
			return err
		}
		item, err := getItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		details, err := s.withDetails(ctx, repo, []*models.Item{item}, viewerID)
		if err != nil {
			return err
		}
		out = details[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}

	var out []*models.ItemDetails
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, ownerID); err != nil {
			return err
		}
		items, err := repo.ListItemsByOwner(ctx, ownerID, page)
		if err != nil {
			return err
		}
		out, err = s.withDetails(ctx, repo, items, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, itemID, ownerID int64) error {
	return s.repo.WithTx(ctx, func(repo domain.Repository) error {
		item, err := getItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return Unauthorized("user %d does not own item %d", ownerID, itemID)
		}
		return repo.DeleteItem(ctx, itemID)
	})
}

func (s *ItemService) SearchItems(ctx context.Context, viewerID int64, text string, page models.Page) ([]*models.Item, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.repo, viewerID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}

func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, in models.NewComment) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, InvalidOperation("comment text is required")
	}

	comment := &models.Comment{Text: text, ItemID: itemID, AuthorID: authorID}
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		author, err := repo.GetUser(ctx, authorID)
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("user %d not found", authorID)
		}
		if err != nil {
			return err
		}
		if _, err := getItem(ctx, repo, itemID); err != nil {
			return err
		}

		now := s.now()
		completed, err := repo.HasCompletedBooking(ctx, authorID, itemID, now)
		if err != nil {
			return err
		}
		if !completed {
			return InvalidOperation("user %d has no completed rental of item %d", authorID, itemID)
		}

		comment.AuthorName = author.Name
		comment.Created = now
		return repo.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    itemID,
			AuthorID:  authorID,
			Created:   comment.Created,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}
	return comment, nil
}

// withDetails attaches comments to every item and, for items owned by viewerID,
// the last and next approved bookings. Each concern costs one query for the whole batch.
func (s *ItemService) withDetails(
	ctx context.Context,
	repo domain.Repository,
	items []*models.Item,
	viewerID int64,
) ([]*models.ItemDetails, error) {
	ids := make([]int64, 0, len(items))
	owned := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		if item.OwnerID == viewerID {
			owned = append(owned, item.ID)
		}
	}

	comments, err := repo.ListCommentsByItemIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	last, next, err := repo.GetLastAndNextBookings(ctx, owned, s.now())
	if err != nil {
		return nil, err
	}

	out := make([]*models.ItemDetails, 0, len(items))
	for _, item := range items {
		d := &models.ItemDetails{
			ItemDto:  models.NewItemDto(item),
			Comments: make([]models.CommentDto, 0, len(comments[item.ID])),
		}
		for _, c := range comments[item.ID] {
			d.Comments = append(d.Comments, models.NewCommentDto(c))
		}
		if item.OwnerID == viewerID {
			d.LastBooking = last[item.ID]
			d.NextBooking = next[item.ID]
		}
		out = append(out, d)
	}
	return out, nil
}

func getItem(ctx context.Context, repo domain.Repository, id int64) (*models.Item, error) {
	item, err := repo.GetItem(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("item %d not found", id)
	}
	return item, err
}
