package cache

import (
	"net/http"
	"time"
)

// Entry is a stored upstream response.
type Entry struct {
	// Body is the response body.
	Body []byte `json:"body"`

	// StatusCode is the HTTP status code of the stored response.
	StatusCode int `json:"status_code"`

	// Header holds the response headers as received from the upstream.
	Header http.Header `json:"header"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has passed its expiry time.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the remaining lifetime, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
