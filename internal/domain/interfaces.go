package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
	ListItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	ListItemsByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.BookingView, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	ListBookings(
		ctx context.Context,
		scope models.BookingScope,
		userID int64,
		state models.BookingState,
		now time.Time,
		page models.Page,
	) ([]*models.BookingView, error)
	HasCompletedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)
	GetLastAndNextBookings(ctx context.Context, itemIDs []int64, now time.Time) (last, next map[int64]*models.BookingShort, err error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*models.Comment, error)

	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	ListRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	ListRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error)
}

// ResponseCache stores relayed GET responses for the gateway.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation returns the current invalidation counter; Bump advances it.
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, in models.NewItem) (*models.Item, error)
	UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error)
	ListOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error)
	DeleteItem(ctx context.Context, itemID, ownerID int64) error
	SearchItems(ctx context.Context, viewerID int64, text string, page models.Page) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, authorID int64, in models.NewComment) (*models.Comment, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, requesterID int64, in models.NewBooking) (*models.BookingView, error)
	ConfirmBooking(ctx context.Context, bookingID, approverID int64, approved bool) (*models.BookingView, error)
	GetBooking(ctx context.Context, bookingID, viewerID int64) (*models.BookingView, error)
	ListBookings(
		ctx context.Context,
		scope models.BookingScope,
		viewerID int64,
		rawState string,
		page models.Page,
	) ([]*models.BookingView, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, requestorID int64, in models.NewItemRequest) (*models.ItemRequestDto, error)
	ListOwnRequests(ctx context.Context, requestorID int64) ([]models.ItemRequestDto, error)
	ListOtherRequests(ctx context.Context, userID int64, page models.Page) ([]models.ItemRequestDto, error)
	GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequestDto, error)
}
