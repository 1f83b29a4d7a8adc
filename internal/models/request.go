package models

import "time"

type ItemRequest struct {
	ID          int64
	Description string
	RequestorID int64
	Created     time.Time
}

type NewItemRequest struct {
	Description string `json:"description"`
}
