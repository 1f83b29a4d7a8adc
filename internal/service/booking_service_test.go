package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type bookingFixture struct {
	db     *database.DB
	svc    *BookingService
	owner  *models.User
	booker *models.User
	other  *models.User
	item   *models.Item
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := setupStore(t)
	ctx := context.Background()

	f := &bookingFixture{
		db:     db,
		svc:    NewBookingService(db, nil, newTestLogger()),
		owner:  &models.User{Name: "Owner", Email: "owner@example.com"},
		booker: &models.User{Name: "Booker", Email: "booker@example.com"},
		other:  &models.User{Name: "Other", Email: "other@example.com"},
	}
	for _, u := range []*models.User{f.owner, f.booker, f.other} {
		require.NoError(t, db.CreateUser(ctx, u))
	}
	f.item = &models.Item{Name: "Drill", Description: "Cordless drill", Available: true, OwnerID: f.owner.ID}
	require.NoError(t, db.CreateItem(ctx, f.item))
	return f
}

func (f *bookingFixture) insert(t *testing.T, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{Start: start, End: end, ItemID: f.item.ID, BookerID: f.booker.ID, Status: status}
	require.NoError(t, f.db.CreateBooking(context.Background(), b))
	return b
}

func newBookingInput(itemID int64, start, end time.Time) models.NewBooking {
	return models.NewBooking{ItemID: itemID, Start: models.NewDateTime(start), End: models.NewDateTime(end)}
}

func TestBookingService_CreateScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("AvailableItemStartsWaiting", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()

		view, err := f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(f.item.ID, now.Add(time.Hour), now.Add(2*time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, view.Status)
		assert.Equal(t, f.booker.ID, view.Booker.ID)
		assert.Equal(t, f.item.Name, view.Item.Name)

		stored, err := f.db.GetBooking(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, stored.Status)
	})

	t.Run("UnavailableItem", func(t *testing.T) {
		f := newBookingFixture(t)
		f.item.Available = false
		require.NoError(t, f.db.UpdateItem(ctx, f.item))
		now := time.Now()

		_, err := f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(f.item.ID, now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.Equal(t, KindInvalidOperation, KindOf(err))
	})

	t.Run("StartEqualsOrAfterEnd", func(t *testing.T) {
		f := newBookingFixture(t)
		start := time.Now().Add(time.Hour)

		_, err := f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(f.item.ID, start, start))
		assert.Equal(t, KindInvalidOperation, KindOf(err))

		_, err = f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(f.item.ID, start.Add(time.Hour), start))
		assert.Equal(t, KindInvalidOperation, KindOf(err))
	})

	t.Run("StartInPast", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()

		_, err := f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(f.item.ID, now.Add(-time.Hour), now.Add(time.Hour)))
		assert.Equal(t, KindInvalidOperation, KindOf(err))
	})

	t.Run("OwnerCannotBookOwnItem", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()

		_, err := f.svc.CreateBooking(ctx, f.owner.ID, newBookingInput(f.item.ID, now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("UnknownUserAndItem", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()

		_, err := f.svc.CreateBooking(ctx, 999, newBookingInput(f.item.ID, now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.Equal(t, KindNotFound, KindOf(err))

		_, err = f.svc.CreateBooking(ctx, f.booker.ID, newBookingInput(999, now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestBookingService_CreateCheckOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.Local)

	newSvc := func(repo *mockRepo) *BookingService {
		svc := NewBookingService(repo, nil, newTestLogger())
		svc.now = func() time.Time { return now }
		return svc
	}

	t.Run("MissingUserStopsBeforeItemLookup", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetUser", ctx, int64(1)).Return(nil, database.ErrNotFound)

		_, err := newSvc(repo).CreateBooking(ctx, 1, newBookingInput(2, now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.Equal(t, KindNotFound, KindOf(err))
		repo.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
	})

	t.Run("UnavailableBeatsOwnerAndTimeChecks", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
		repo.On("GetItem", ctx, int64(2)).Return(&models.Item{ID: 2, OwnerID: 1, Available: false}, nil)

		_, err := newSvc(repo).CreateBooking(ctx, 1, newBookingInput(2, now.Add(-time.Hour), now.Add(-2*time.Hour)))
		assert.Equal(t, KindInvalidOperation, KindOf(err))
		assert.Contains(t, err.Error(), "not available")
	})

	t.Run("TimeChecksBeatOwnerCheck", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
		repo.On("GetItem", ctx, int64(2)).Return(&models.Item{ID: 2, OwnerID: 1, Available: true}, nil)

		_, err := newSvc(repo).CreateBooking(ctx, 1, newBookingInput(2, now.Add(-time.Hour), now.Add(time.Hour)))
		assert.Equal(t, KindInvalidOperation, KindOf(err))
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("StartAtNowIsAccepted", func(t *testing.T) {
		repo := new(mockRepo)
		publisher := new(mockPublisher)
		svc := NewBookingService(repo, publisher, newTestLogger())
		svc.now = func() time.Time { return now.Add(300 * time.Millisecond) }

		repo.On("GetUser", ctx, int64(3)).Return(&models.User{ID: 3, Name: "Booker"}, nil)
		repo.On("GetItem", ctx, int64(2)).Return(&models.Item{ID: 2, OwnerID: 1, Available: true}, nil)
		repo.On("CreateBooking", ctx, mock.MatchedBy(func(b *models.Booking) bool {
			return b.Status == models.StatusWaiting && b.BookerID == 3 && b.ItemID == 2
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 10
		}).Return(nil)
		publisher.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil)

		view, err := svc.CreateBooking(ctx, 3, newBookingInput(2, now, now.Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, int64(10), view.ID)
		publisher.AssertExpectations(t)
	})
}

func TestBookingService_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("ApproveThenSecondDecisionFails", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()
		b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

		view, err := f.svc.ConfirmBooking(ctx, b.ID, f.owner.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, view.Status)

		_, err = f.svc.ConfirmBooking(ctx, b.ID, f.owner.ID, false)
		assert.Equal(t, KindInvalidOperation, KindOf(err))
		assert.Contains(t, err.Error(), "already decided")

		stored, err := f.db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("Reject", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()
		b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

		view, err := f.svc.ConfirmBooking(ctx, b.ID, f.owner.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, view.Status)
	})

	t.Run("OnlyOwnerDecides", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()
		b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

		_, err := f.svc.ConfirmBooking(ctx, b.ID, f.booker.ID, true)
		assert.Equal(t, KindUnauthorized, KindOf(err))
		_, err = f.svc.ConfirmBooking(ctx, b.ID, f.other.ID, true)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("MissingBookingOrApprover", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()
		b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

		_, err := f.svc.ConfirmBooking(ctx, 999, f.owner.ID, true)
		assert.Equal(t, KindNotFound, KindOf(err))
		_, err = f.svc.ConfirmBooking(ctx, b.ID, 999, true)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("ConcurrentConfirmHasOneWinner", func(t *testing.T) {
		f := newBookingFixture(t)
		now := time.Now()
		b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(approve bool) {
				defer wg.Done()
				_, err := f.svc.ConfirmBooking(ctx, b.ID, f.owner.ID, approve)
				results <- err
			}(i%2 == 0)
		}
		wg.Wait()
		close(results)

		var ok, decided int
		for err := range results {
			if err == nil {
				ok++
				continue
			}
			assert.Equal(t, KindInvalidOperation, KindOf(err))
			decided++
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, decided)
	})

	t.Run("LostRaceReportsAlreadyDecided", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, newTestLogger())

		waiting := &models.BookingView{
			Booking: models.Booking{ID: 5, BookerID: 3, Status: models.StatusWaiting, Version: 1},
			Item:    models.Item{ID: 2, OwnerID: 1},
		}
		approved := &models.BookingView{
			Booking: models.Booking{ID: 5, BookerID: 3, Status: models.StatusApproved, Version: 2},
			Item:    models.Item{ID: 2, OwnerID: 1},
		}
		repo.On("GetBooking", ctx, int64(5)).Return(waiting, nil).Once()
		repo.On("GetBooking", ctx, int64(5)).Return(approved, nil).Once()
		repo.On("UserExists", ctx, int64(1)).Return(true, nil)
		repo.On("UpdateBookingStatusWithVersion", ctx, int64(5), int64(1), models.StatusRejected).
			Return(database.ErrConcurrentModification)

		_, err := svc.ConfirmBooking(ctx, 5, 1, false)
		assert.Equal(t, KindInvalidOperation, KindOf(err))
		assert.Contains(t, err.Error(), "approved")
		repo.AssertExpectations(t)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	now := time.Now()
	b := f.insert(t, now.Add(time.Hour), now.Add(2*time.Hour), models.StatusWaiting)

	first, err := f.svc.GetBooking(ctx, b.ID, f.booker.ID)
	require.NoError(t, err)
	second, err := f.svc.GetBooking(ctx, b.ID, f.booker.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = f.svc.GetBooking(ctx, b.ID, f.owner.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(ctx, b.ID, f.other.ID)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = f.svc.GetBooking(ctx, 999, f.booker.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestBookingService_ListFilters(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	now := time.Date(2030, 6, 15, 12, 0, 0, 0, time.Local)
	f.svc.now = func() time.Time { return now }

	past := f.insert(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)
	current := f.insert(t, now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)
	waiting := f.insert(t, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)
	rejected := f.insert(t, now.Add(72*time.Hour), now.Add(96*time.Hour), models.StatusRejected)

	expected := map[string][]int64{
		"ALL":      {rejected.ID, waiting.ID, current.ID, past.ID},
		"CURRENT":  {current.ID},
		"PAST":     {past.ID},
		"FUTURE":   {rejected.ID, waiting.ID},
		"WAITING":  {waiting.ID},
		"REJECTED": {rejected.ID},
	}

	for _, tc := range []struct {
		scope  models.BookingScope
		viewer int64
	}{
		{models.ScopeBooker, f.booker.ID},
		{models.ScopeOwner, f.owner.ID},
	} {
		for state, want := range expected {
			t.Run(string(tc.scope)+"_"+state, func(t *testing.T) {
				got, err := f.svc.ListBookings(ctx, tc.scope, tc.viewer, state, models.Page{From: 0, Size: 10})
				require.NoError(t, err)
				ids := make([]int64, 0, len(got))
				for _, v := range got {
					ids = append(ids, v.ID)
				}
				assert.Equal(t, want, ids)
			})
		}
	}

	t.Run("ThirdUserSeesNothing", func(t *testing.T) {
		got, err := f.svc.ListBookings(ctx, models.ScopeOwner, f.other.ID, "ALL", models.Page{Size: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Paging", func(t *testing.T) {
		got, err := f.svc.ListBookings(ctx, models.ScopeBooker, f.booker.ID, "ALL", models.Page{From: 1, Size: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, waiting.ID, got[0].ID)
		assert.Equal(t, current.ID, got[1].ID)
	})

	t.Run("PastOnlyReturnsFinished", func(t *testing.T) {
		got, err := f.svc.ListBookings(ctx, models.ScopeBooker, f.booker.ID, "past", models.Page{Size: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, past.ID, got[0].ID)
	})

	t.Run("UnsupportedFilter", func(t *testing.T) {
		_, err := f.svc.ListBookings(ctx, models.ScopeBooker, f.booker.ID, "BOGUS", models.Page{Size: 10})
		assert.Equal(t, KindUnsupportedFilter, KindOf(err))
		assert.Equal(t, models.UnsupportedStateMessage, err.Error())
	})

	t.Run("UnknownViewerBeforeFilter", func(t *testing.T) {
		_, err := f.svc.ListBookings(ctx, models.ScopeBooker, 999, "BOGUS", models.Page{Size: 10})
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("InvalidPage", func(t *testing.T) {
		_, err := f.svc.ListBookings(ctx, models.ScopeBooker, f.booker.ID, "ALL", models.Page{From: -1, Size: 10})
		assert.Equal(t, KindInvalidOperation, KindOf(err))
		_, err = f.svc.ListBookings(ctx, models.ScopeBooker, f.booker.ID, "ALL", models.Page{Size: 0})
		assert.Equal(t, KindInvalidOperation, KindOf(err))
	})
}

func TestBookingService_ListUsesSingleNow(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewBookingService(repo, nil, newTestLogger())

	calls := 0
	frozen := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		calls++
		return frozen.Add(time.Duration(calls) * time.Hour)
	}

	page := models.Page{Size: 10}
	repo.On("UserExists", ctx, int64(1)).Return(true, nil)
	repo.On("ListBookings", ctx, models.ScopeOwner, int64(1), models.StateCurrent, frozen.Add(time.Hour), page).
		Return([]*models.BookingView{}, nil)

	_, err := svc.ListBookings(ctx, models.ScopeOwner, 1, "current", page)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	repo.AssertExpectations(t)
}
