package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EntryFromResponse converts an HTTP response into an Entry with the
// given lifetime. The response body is read fully and restored, so the
// caller can still stream it to the client afterwards.
func EntryFromResponse(resp *http.Response, ttl time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("entry lifetime must be positive, got %s", ttl)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for the caller.
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	return &Entry{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		StoredAt:   now,
		Expires:    now.Add(ttl),
	}, nil
}

// EntryFromBytes builds an Entry directly from an already-read body.
// Used when the response body has been buffered by the gateway.
func EntryFromBytes(body []byte, statusCode int, header http.Header, ttl time.Duration) (*Entry, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("entry lifetime must be positive, got %s", ttl)
	}

	now := time.Now()
	return &Entry{
		Body:       append([]byte(nil), body...),
		StatusCode: statusCode,
		Header:     header.Clone(),
		StoredAt:   now,
		Expires:    now.Add(ttl),
	}, nil
}
