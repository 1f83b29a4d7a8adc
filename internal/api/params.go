package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/models"
)

func userIDFromHeader(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return 0, fmt.Errorf("header %s is required", models.HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("header %s must be a positive integer", models.HeaderUserID)
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("path id must be a positive integer")
	}
	return id, nil
}

// pageParams reads from and size, falling back to the defaults when absent.
// Range checks are left to the services.
func pageParams(r *http.Request, defaultSize int) (models.Page, error) {
	page := models.Page{From: models.DefaultFrom, Size: defaultSize}
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("from must be an integer")
		}
		page.From = v
	}
	if raw := q.Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("size must be an integer")
		}
		page.Size = v
	}
	return page, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// caller reads the acting user id and answers 400 itself when it is malformed.
func (s *HTTPServer) caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return 0, false
	}
	return userID, true
}

func (s *HTTPServer) callerAndID(w http.ResponseWriter, r *http.Request) (userID, id int64, ok bool) {
	userID, ok = s.caller(w, r)
	if !ok {
		return 0, 0, false
	}
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return 0, 0, false
	}
	return userID, id, true
}
