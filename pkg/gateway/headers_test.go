package gateway

import (
	"net/http"
	"testing"
	"time"

	"github.com/cachefront/cachefront/pkg/classify"
)

func TestMergeHeaders(t *testing.T) {
	base := http.Header{
		"Content-Type": {"application/json"},
		"Vary":         {"Accept"},
	}
	override := http.Header{
		"Vary":  {"Origin"},
		"X-New": {"1"},
	}

	merged := mergeHeaders(base, override)

	if got := merged.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if got := merged.Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want override value %q", got, "Origin")
	}
	if got := merged.Get("X-New"); got != "1" {
		t.Errorf("X-New = %q, want %q", got, "1")
	}
	if got := base.Get("Vary"); got != "Accept" {
		t.Errorf("base Vary = %q after merge, want %q untouched", got, "Accept")
	}

	// Values must be copies, not aliases into the inputs.
	merged["Content-Type"][0] = "text/plain"
	if got := base.Get("Content-Type"); got != "application/json" {
		t.Errorf("base Content-Type = %q after mutating merged, want %q", got, "application/json")
	}
}

func TestCacheHeaders(t *testing.T) {
	tests := []struct {
		name             string
		disposition      classify.Disposition
		wantCacheControl string
		wantCacheStatus  string
	}{
		{
			name:             "cacheable sets public max-age and miss marker",
			disposition:      classify.Disposition{Class: classify.ClassMasterData, Cacheable: true, TTL: time.Hour},
			wantCacheControl: "public, max-age=3600",
			wantCacheStatus:  "MISS",
		},
		{
			name:             "short ttl",
			disposition:      classify.Disposition{Class: classify.ClassMasterData, Cacheable: true, TTL: 90 * time.Second},
			wantCacheControl: "public, max-age=90",
			wantCacheStatus:  "MISS",
		},
		{
			name:             "uncacheable denies storage",
			disposition:      classify.Disposition{Class: classify.ClassTransactional},
			wantCacheControl: "no-cache, no-store, must-revalidate",
			wantCacheStatus:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cacheHeaders(tt.disposition)
			if got := h.Get("Cache-Control"); got != tt.wantCacheControl {
				t.Errorf("Cache-Control = %q, want %q", got, tt.wantCacheControl)
			}
			if got := h.Get(headerCacheStatus); got != tt.wantCacheStatus {
				t.Errorf("%s = %q, want %q", headerCacheStatus, got, tt.wantCacheStatus)
			}
		})
	}
}

func TestUpstreamHeaders(t *testing.T) {
	inbound := http.Header{
		"Connection":       {"keep-alive"},
		"Proxy-Connection": {"keep-alive"},
		"Te":               {"trailers"},
		"X-Client-Info":    {"app/1.0"},
		"Accept":           {"application/json"},
		"Accept-Encoding":  {"gzip, br"},
	}

	h := upstreamHeaders(inbound, "service-key")

	for _, name := range hopByHopHeaders {
		if got := h.Get(name); got != "" {
			t.Errorf("%s = %q, want stripped", name, got)
		}
	}
	if got := h.Get("Accept-Encoding"); got != "" {
		t.Errorf("Accept-Encoding = %q, want dropped so the transport negotiates", got)
	}
	if got := h.Get("apikey"); got != "service-key" {
		t.Errorf("apikey = %q, want %q", got, "service-key")
	}
	if got := h.Get("Authorization"); got != "Bearer service-key" {
		t.Errorf("Authorization = %q, want injected bearer", got)
	}
	if got := h.Get("X-Client-Info"); got != "app/1.0" {
		t.Errorf("X-Client-Info = %q, want forwarded", got)
	}
	if got := inbound.Get("Connection"); got != "keep-alive" {
		t.Errorf("inbound Connection = %q after call, want untouched", got)
	}
}

func TestUpstreamHeadersKeepsCallerAuthorization(t *testing.T) {
	inbound := http.Header{"Authorization": {"Bearer user-token"}}

	h := upstreamHeaders(inbound, "service-key")

	if got := h.Get("Authorization"); got != "Bearer user-token" {
		t.Errorf("Authorization = %q, want caller token preserved", got)
	}
	if got := h.Get("apikey"); got != "service-key" {
		t.Errorf("apikey = %q, want %q", got, "service-key")
	}
}

func TestUpstreamHeadersNilInbound(t *testing.T) {
	h := upstreamHeaders(nil, "service-key")

	if h == nil {
		t.Fatal("upstreamHeaders(nil, ...) = nil, want usable header map")
	}
	if got := h.Get("apikey"); got != "service-key" {
		t.Errorf("apikey = %q, want %q", got, "service-key")
	}
}

func TestResponseHeaders(t *testing.T) {
	upstream := http.Header{
		"Content-Type": {"application/json"},
		"Connection":   {"keep-alive"},
		"Keep-Alive":   {"timeout=5"},
		"Set-Cookie":   {"session=abc"},
	}

	h := responseHeaders(upstream)

	for _, name := range hopByHopHeaders {
		if got := h.Get(name); got != "" {
			t.Errorf("%s = %q, want stripped", name, got)
		}
	}
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want kept", got)
	}
	// The cookie still reaches the client this response answers.
	if got := h.Get("Set-Cookie"); got != "session=abc" {
		t.Errorf("Set-Cookie = %q, want kept on the direct response", got)
	}
	if got := upstream.Get("Keep-Alive"); got != "timeout=5" {
		t.Errorf("upstream Keep-Alive = %q after call, want untouched", got)
	}
}

func TestStorableHeaders(t *testing.T) {
	upstream := http.Header{
		"Content-Type": {"application/json"},
		"Set-Cookie":   {"session=abc"},
		"Keep-Alive":   {"timeout=5"},
	}

	h := storableHeaders(upstream)

	if got := h.Get("Set-Cookie"); got != "" {
		t.Errorf("Set-Cookie = %q, want absent from a shared entry", got)
	}
	if got := h.Get("Keep-Alive"); got != "" {
		t.Errorf("Keep-Alive = %q, want stripped", got)
	}
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want kept", got)
	}
	if got := upstream.Get("Set-Cookie"); got != "session=abc" {
		t.Errorf("upstream Set-Cookie = %q after call, want untouched", got)
	}
}
