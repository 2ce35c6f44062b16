package gateway

import (
	"fmt"
	"net/http"
)

// Kind classifies gateway errors for status mapping and observability.
type Kind string

const (
	// KindConfigMissing marks requests refused because mandatory
	// configuration is absent.
	KindConfigMissing Kind = "config_missing"

	// KindOriginRejected marks requests from disallowed origins.
	KindOriginRejected Kind = "origin_rejected"

	// KindPurgeUnauthorized marks purge attempts with a missing or
	// wrong secret.
	KindPurgeUnauthorized Kind = "purge_unauthorized"

	// KindPurgeNotAllowed marks purge attempts on non-purgeable paths.
	KindPurgeNotAllowed Kind = "purge_not_allowed"

	// KindUpstreamFailure marks failed upstream round trips.
	KindUpstreamFailure Kind = "upstream_failure"

	// KindNotFound marks requests outside every routed surface.
	KindNotFound Kind = "not_found"
)

// Error is a gateway-level error with a kind classification.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// statusForKind maps an error kind to its HTTP response status.
func statusForKind(kind Kind) int {
	switch kind {
	case KindConfigMissing:
		return http.StatusInternalServerError
	case KindOriginRejected, KindPurgeUnauthorized, KindPurgeNotAllowed:
		return http.StatusForbidden
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
