package models

const (
	// HeaderUserID carries the caller identity on every request.
	HeaderUserID = "X-Sharer-User-Id"
	// HeaderRequestID correlates gateway and server log lines.
	HeaderRequestID = "X-Request-Id"
)

const (
	DefaultFrom             = 0
	DefaultPageSize         = 10
	DefaultRequestsPageSize = 20
)

// UnsupportedStateMessage is returned verbatim for an unknown booking state filter.
const UnsupportedStateMessage = "Unknown state: UNSUPPORTED_STATUS"
