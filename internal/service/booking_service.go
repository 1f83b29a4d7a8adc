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

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking registers a WAITING booking of in.ItemID by requesterID.
// Checks run in a fixed order and the first failure wins.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID int64, in models.NewBooking) (*models.BookingView, error) {
	var view *models.BookingView
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		booker, err := repo.GetUser(ctx, requesterID)
		if errors.Is(err, database.ErrNotFound) {
			return NotFound("user %d not found", requesterID)
		}
		if err != nil {
			return err
		}

		item, err := getItem(ctx, repo, in.ItemID)
		if err != nil {
			return err
		}
		if !item.Available {
			return InvalidOperation("item %d is not available for booking", item.ID)
		}

		start, end := in.Start.Time, in.End.Time
		if start.IsZero() || end.IsZero() {
			return InvalidOperation("booking start and end are required")
		}
		if !start.Before(end) {
			return InvalidOperation("booking start must be before its end")
		}
		if start.Before(s.now().Truncate(time.Second)) {
			return InvalidOperation("booking start must not be in the past")
		}
		if item.OwnerID == requesterID {
			return Unauthorized("user %d owns item %d and cannot book it", requesterID, item.ID)
		}

		booking := models.Booking{
			Start:    start,
			End:      end,
			ItemID:   item.ID,
			BookerID: requesterID,
			Status:   models.StatusWaiting,
		}
		if err := repo.CreateBooking(ctx, &booking); err != nil {
			return err
		}
		view = &models.BookingView{Booking: booking, Item: *item, Booker: *booker}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", view.ID).Int64("item_id", view.ItemID).Int64("booker_id", requesterID).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, view, requesterID)
	return view, nil
}

// ConfirmBooking moves a WAITING booking to APPROVED or REJECTED on behalf of the item owner.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, approverID int64, approved bool) (*models.BookingView, error) {
	var view *models.BookingView
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		current, err := getBooking(ctx, repo, bookingID)
		if err != nil {
			return err
		}
		if err := requireUser(ctx, repo, approverID); err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return alreadyDecided(current)
		}
		if current.Status != models.StatusWaiting {
			return InvalidOperation("booking %d has unexpected status %s", bookingID, current.Status)
		}
		if current.Item.OwnerID != approverID || current.BookerID == approverID {
			return Unauthorized("user %d cannot decide booking %d", approverID, bookingID)
		}

		status := models.StatusRejected
		if approved {
			status = models.StatusApproved
		}

		err = repo.UpdateBookingStatusWithVersion(ctx, bookingID, current.Version, status)
		if errors.Is(err, database.ErrConcurrentModification) {
			latest, getErr := getBooking(ctx, repo, bookingID)
			if getErr != nil {
				return getErr
			}
			return alreadyDecided(latest)
		}
		if err != nil {
			return err
		}

		current.Status = status
		current.Version++
		view = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.logger.Info().Int64("booking_id", bookingID).Int64("owner_id", approverID).Str("status", string(view.Status)).Msg("booking decided")
	s.publishEvent(eventType, view, approverID)
	return view, nil
}

// GetBooking returns the booking to its booker or to the item owner only.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, viewerID int64) (*models.BookingView, error) {
	view, err := getBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.repo, viewerID); err != nil {
		return nil, err
	}
	if view.BookerID != viewerID && view.Item.OwnerID != viewerID {
		return nil, Unauthorized("user %d cannot view booking %d", viewerID, bookingID)
	}
	return view, nil
}

// ListBookings lists the viewer's bookings as booker or as owner, filtered by rawState.
func (s *BookingService) ListBookings(
	ctx context.Context,
	scope models.BookingScope,
	viewerID int64,
	rawState string,
	page models.Page,
) ([]*models.BookingView, error) {
	var out []*models.BookingView
	err := s.repo.WithTx(ctx, func(repo domain.Repository) error {
		if err := requireUser(ctx, repo, viewerID); err != nil {
			return err
		}

		state, ok := models.ParseBookingState(rawState)
		if !ok {
			return &Error{Kind: KindUnsupportedFilter, Message: models.UnsupportedStateMessage}
		}
		if err := validatePage(page); err != nil {
			return err
		}

		var err error
		out, err = repo.ListBookings(ctx, scope, viewerID, state, s.now(), page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BookingService) publishEvent(eventType string, view *models.BookingView, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   view.ID,
		ItemID:      view.ItemID,
		ItemName:    view.Item.Name,
		BookerID:    view.BookerID,
		OwnerID:     view.Item.OwnerID,
		Status:      string(view.Status),
		Start:       view.Start,
		End:         view.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", view.ID).Msg("publish event error")
	}
}

func getBooking(ctx context.Context, repo domain.Repository, id int64) (*models.BookingView, error) {
	view, err := repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, NotFound("booking %d not found", id)
	}
	return view, err
}

func alreadyDecided(view *models.BookingView) error {
	return InvalidOperation("booking %d is already decided: %s", view.ID, strings.ToLower(string(view.Status)))
}
