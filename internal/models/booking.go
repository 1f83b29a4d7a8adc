package models

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Booking struct {
	ID       int64
	Start    time.Time
	End      time.Time
	ItemID   int64
	BookerID int64
	Status   BookingStatus
	Version  int64
}

type NewBooking struct {
	ItemID int64    `json:"itemId"`
	Start  DateTime `json:"start"`
	End    DateTime `json:"end"`
}

// BookingState selects which bookings a listing returns.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var BookingStates = []BookingState{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// ParseBookingState is case-insensitive; empty input means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return StateAll, true
	}
	for _, s := range BookingStates {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Page is an offset/limit window over an already ordered result.
type Page struct {
	From int
	Size int
}

// BookingScope anchors a listing on the booker or on the item owner.
type BookingScope string

const (
	ScopeBooker BookingScope = "booker"
	ScopeOwner  BookingScope = "owner"
)

// BookingView is a booking joined with its item and booker.
type BookingView struct {
	Booking
	Item   Item
	Booker User
}

func (v *BookingView) Dto() BookingDto {
	return NewBookingDto(&v.Booking, &v.Item, &v.Booker)
}
