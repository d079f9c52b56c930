package errors

import "net/http"

// Code is the stable machine-readable error identifier returned to clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata controls how a code is rendered over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	detailsHidden  = false
	detailsShown   = true
	notRetryable   = false
	retryableLater = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, notRetryable, "validation failed", detailsShown},
	CodeUnauthorized:  {http.StatusUnauthorized, notRetryable, "authentication required", detailsHidden},
	CodeForbidden:     {http.StatusForbidden, notRetryable, "access denied", detailsHidden},
	CodeNotFound:      {http.StatusNotFound, notRetryable, "resource not found", detailsHidden},
	CodeConflict:      {http.StatusConflict, notRetryable, "conflict detected", detailsHidden},
	CodeStateConflict: {http.StatusUnprocessableEntity, notRetryable, "state transition disallowed", detailsShown},
	CodeIdempotency:   {http.StatusConflict, notRetryable, "idempotency key reused", detailsShown},
	CodeInternal:      {http.StatusInternalServerError, retryableLater, "internal server error", detailsHidden},
	CodeDependency:    {http.StatusServiceUnavailable, retryableLater, "dependency unavailable", detailsShown},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}
