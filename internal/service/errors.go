package service

import (
	"errors"
	"fmt"

	"shareit/internal/models"
)

// Kind classifies a service failure for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	// KindUnauthorized marks a caller acting on an entity it has no rights to.
	KindUnauthorized
	KindInvalidOperation
	KindUnsupportedFilter
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindUnsupportedFilter:
		return "UnsupportedFilter"
	case KindConflict:
		return "Conflict"
	default:
		return "Internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func InvalidOperation(format string, args ...any) error {
	return newError(KindInvalidOperation, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// KindOf returns KindInternal for errors that carry no kind.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func validatePage(page models.Page) error {
	if page.From < 0 {
		return InvalidOperation("from must not be negative, got %d", page.From)
	}
	if page.Size < 1 {
		return InvalidOperation("size must be positive, got %d", page.Size)
	}
	return nil
}
