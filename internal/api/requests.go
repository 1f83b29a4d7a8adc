package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestorID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var in models.NewItemRequest
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	req, err := s.svc.Requests.CreateRequest(r.Context(), requestorID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *HTTPServer) handleListOwnRequests(w http.ResponseWriter, r *http.Request) {
	requestorID, ok := s.caller(w, r)
	if !ok {
		return
	}
	reqs, err := s.svc.Requests.ListOwnRequests(r.Context(), requestorID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	page, err := pageParams(r, models.DefaultRequestsPageSize)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	reqs, err := s.svc.Requests.ListOtherRequests(r.Context(), userID, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, requestID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	req, err := s.svc.Requests.GetRequest(r.Context(), requestID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
