package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingViewQuery = `SELECT b.id, b.start_at, b.end_at, b.item_id, b.booker_id, b.status, b.version,
                 i.id, i.name, i.description, i.available, i.owner_id, i.request_id,
                 u.id, u.name, u.email
            FROM bookings b
            JOIN items i ON i.id = b.item_id
            JOIN users u ON u.id = b.booker_id`

func scanBookingView(scanner interface{ Scan(dest ...any) error }) (*models.BookingView, error) {
	var v models.BookingView
	var startStr, endStr, status string
	var requestID sql.NullInt64
	err := scanner.Scan(
		&v.ID, &startStr, &endStr, &v.ItemID, &v.BookerID, &status, &v.Version,
		&v.Item.ID, &v.Item.Name, &v.Item.Description, &v.Item.Available, &v.Item.OwnerID, &requestID,
		&v.Booker.ID, &v.Booker.Name, &v.Booker.Email,
	)
	if err != nil {
		return nil, err
	}
	if v.Start, err = parseTime(startStr); err != nil {
		return nil, err
	}
	if v.End, err = parseTime(endStr); err != nil {
		return nil, err
	}
	v.Status = models.BookingStatus(status)
	if requestID.Valid {
		id := requestID.Int64
		v.Item.RequestID = &id
	}
	return &v, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (start_at, end_at, item_id, booker_id, status, version, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := formatTime(time.Now())
	result, err := db.q.ExecContext(ctx, query,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.ItemID,
		booking.BookerID,
		string(booking.Status),
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.BookingView, error) {
	view, err := scanBookingView(db.q.QueryRowContext(ctx, bookingViewQuery+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return view, nil
}

// UpdateBookingStatusWithVersion moves a WAITING booking to status.
// It returns ErrConcurrentModification when the row was already decided or its version moved.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.q.ExecContext(ctx, query,
		string(status), formatTime(time.Now()), id, fromVersion, string(models.StatusWaiting))
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// statePredicate maps a listing state to its SQL predicate; now is bound to every time placeholder.
func statePredicate(state models.BookingState, now string) (string, []any, error) {
	switch state {
	case models.StateAll:
		return "", nil, nil
	case models.StateWaiting:
		return "b.status = ?", []any{string(models.StatusWaiting)}, nil
	case models.StateRejected:
		return "b.status = ?", []any{string(models.StatusRejected)}, nil
	case models.StateCurrent:
		return "b.start_at < ? AND b.end_at > ?", []any{now, now}, nil
	case models.StatePast:
		return "b.end_at < ?", []any{now}, nil
	case models.StateFuture:
		return "b.start_at > ?", []any{now}, nil
	default:
		return "", nil, ErrUnknownState
	}
}

func scopePredicate(scope models.BookingScope) (string, error) {
	switch scope {
	case models.ScopeBooker:
		return "b.booker_id = ?", nil
	case models.ScopeOwner:
		return "i.owner_id = ?", nil
	default:
		return "", fmt.Errorf("unknown booking scope %q", scope)
	}
}

// ListBookings returns the bookings of userID in scope matching state, newest start first.
func (db *DB) ListBookings(
	ctx context.Context,
	scope models.BookingScope,
	userID int64,
	state models.BookingState,
	now time.Time,
	page models.Page,
) ([]*models.BookingView, error) {
	where, err := scopePredicate(scope)
	if err != nil {
		return nil, err
	}
	args := []any{userID}

	predicate, stateArgs, err := statePredicate(state, formatTime(now))
	if err != nil {
		return nil, err
	}
	if predicate != "" {
		where += " AND " + predicate
		args = append(args, stateArgs...)
	}

	query := bookingViewQuery + ` WHERE ` + where + ` ORDER BY b.start_at DESC, b.id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Size, page.From)

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.BookingView, 0)
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, v)
	}
	return bookings, rows.Err()
}

// HasCompletedBooking reports whether userID has any booking of itemID that ended before now.
func (db *DB) HasCompletedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS(
                SELECT 1 FROM bookings
                 WHERE booker_id = ? AND item_id = ? AND end_at < ?)`
	var exists bool
	err := db.q.QueryRowContext(ctx, query, userID, itemID, formatTime(now)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed booking: %w", err)
	}
	return exists, nil
}

// GetLastAndNextBookings picks, per item, the approved booking that started most recently
// (by latest end) and the approved booking that starts soonest.
func (db *DB) GetLastAndNextBookings(
	ctx context.Context,
	itemIDs []int64,
	now time.Time,
) (last, next map[int64]*models.BookingShort, err error) {
	last = make(map[int64]*models.BookingShort, len(itemIDs))
	next = make(map[int64]*models.BookingShort, len(itemIDs))
	if len(itemIDs) == 0 {
		return last, next, nil
	}

	in, idArgs := inClause(itemIDs)
	nowStr := formatTime(now)
	approved := string(models.StatusApproved)

	lastQuery := `SELECT item_id, id, booker_id FROM (
                    SELECT item_id, id, booker_id,
                           ROW_NUMBER() OVER (PARTITION BY item_id ORDER BY end_at DESC, id DESC) AS rn
                      FROM bookings
                     WHERE item_id IN ` + in + ` AND status = ? AND start_at < ?)
                   WHERE rn = 1`
	if err := db.collectShortBookings(ctx, lastQuery, append(idArgs, approved, nowStr), last); err != nil {
		return nil, nil, err
	}

	in, idArgs = inClause(itemIDs)
	nextQuery := `SELECT item_id, id, booker_id FROM (
                    SELECT item_id, id, booker_id,
                           ROW_NUMBER() OVER (PARTITION BY item_id ORDER BY start_at ASC, id ASC) AS rn
                      FROM bookings
                     WHERE item_id IN ` + in + ` AND status = ? AND start_at > ?)
                   WHERE rn = 1`
	if err := db.collectShortBookings(ctx, nextQuery, append(idArgs, approved, nowStr), next); err != nil {
		return nil, nil, err
	}

	return last, next, nil
}

func (db *DB) collectShortBookings(ctx context.Context, query string, args []any, out map[int64]*models.BookingShort) error {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get neighbour bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		b := &models.BookingShort{}
		if err := rows.Scan(&itemID, &b.ID, &b.BookerID); err != nil {
			return fmt.Errorf("failed to scan neighbour booking: %w", err)
		}
		out[itemID] = b
	}
	return rows.Err()
}
