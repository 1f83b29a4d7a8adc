package api

import (
	"net/http"

	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var in models.NewItem
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	item, err := s.svc.Items.CreateItem(r.Context(), ownerID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewItemDto(item))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, itemID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	var patch models.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	item, err := s.svc.Items.UpdateItem(r.Context(), itemID, ownerID, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewItemDto(item))
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	viewerID, itemID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	details, err := s.svc.Items.GetItem(r.Context(), itemID, viewerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) handleListOwnerItems(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.caller(w, r)
	if !ok {
		return
	}
	page, err := pageParams(r, models.DefaultPageSize)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	items, err := s.svc.Items.ListOwnerItems(r.Context(), ownerID, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ownerID, itemID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Items.DeleteItem(r.Context(), itemID, ownerID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.caller(w, r)
	if !ok {
		return
	}
	page, err := pageParams(r, models.DefaultPageSize)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	items, err := s.svc.Items.SearchItems(r.Context(), viewerID, r.URL.Query().Get("text"), page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]models.ItemDto, 0, len(items))
	for _, item := range items {
		out = append(out, models.NewItemDto(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	authorID, itemID, ok := s.callerAndID(w, r)
	if !ok {
		return
	}
	var in models.NewComment
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	comment, err := s.svc.Items.AddComment(r.Context(), itemID, authorID, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewCommentDto(comment))
}
