package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestEntryFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		ttl     time.Duration
		wantErr bool
	}{
		{
			name: "valid response",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Content-Type": []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`[{"id":1}]`))),
			},
			ttl: time.Hour,
		},
		{
			name:    "nil response",
			resp:    nil,
			ttl:     time.Hour,
			wantErr: true,
		},
		{
			name: "zero lifetime",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{}`))),
			},
			ttl:     0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := EntryFromResponse(tt.resp, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EntryFromResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %v, want %v", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.Header.Get("Content-Type") != tt.resp.Header.Get("Content-Type") {
				t.Error("Headers not carried into the entry")
			}
			if entry.TTL() <= 0 || entry.TTL() > tt.ttl {
				t.Errorf("Unexpected TTL: %s", entry.TTL())
			}

			// Body must be read into the entry and restored on the response.
			restored, err := io.ReadAll(tt.resp.Body)
			if err != nil {
				t.Fatalf("Reading restored body: %v", err)
			}
			if !bytes.Equal(restored, entry.Body) {
				t.Errorf("Restored body %q differs from entry body %q", restored, entry.Body)
			}
			if len(restored) == 0 {
				t.Error("Response body was not restored")
			}
		})
	}
}

func TestEntryFromBytes(t *testing.T) {
	header := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`[{"id":1}]`)

	entry, err := EntryFromBytes(body, 200, header, time.Hour)
	if err != nil {
		t.Fatalf("EntryFromBytes failed: %v", err)
	}

	if entry.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if !bytes.Equal(entry.Body, body) {
		t.Errorf("Body = %q, want %q", entry.Body, body)
	}

	// The entry owns copies; later mutation must not be observable.
	body[0] = 'X'
	header.Set("Content-Type", "text/plain")
	if entry.Body[0] == 'X' {
		t.Error("Entry body aliases the caller's slice")
	}
	if entry.Header.Get("Content-Type") != "application/json" {
		t.Error("Entry header aliases the caller's map")
	}

	if _, err := EntryFromBytes(body, 200, header, 0); err == nil {
		t.Error("Expected error for zero lifetime")
	}
}
