package api

import (
	"net/http"
	"strconv"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var in models.NewBooking
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	view, err := s.svc.Bookings.CreateBooking(r.Context(), bookerID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view.Dto())
}

func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ownerID, bookingID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		writeValidationError(w, "query parameter approved must be true or false")
		return
	}
	view, err := s.svc.Bookings.ConfirmBooking(r.Context(), bookingID, ownerID, approved)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Dto())
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	viewerID, bookingID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	view, err := s.svc.Bookings.GetBooking(r.Context(), bookingID, viewerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Dto())
}

func (s *HTTPServer) handleListBookings(scope models.BookingScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, ok := s.caller(w, r)
		if !ok {
			return
		}
		page, err := pageParams(r, models.DefaultPageSize)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}
		views, err := s.svc.Bookings.ListBookings(r.Context(), scope, viewerID, r.URL.Query().Get("state"), page)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		out := make([]models.BookingDto, 0, len(views))
		for _, v := range views {
			out = append(out, v.Dto())
		}
		writeJSON(w, http.StatusOK, out)
	}
}
