package gateway

import (
	"fmt"
	"net/http"

	"github.com/cachefront/cachefront/pkg/classify"
)

const (
	headerCacheStatus = "X-Cache-Status"
	cacheStatusHit    = "HIT"
	cacheStatusMiss   = "MISS"

	noStoreDirectives = "no-cache, no-store, must-revalidate"
)

// hopByHopHeaders are connection-scoped fields that end at the proxy in
// both directions: they are neither forwarded to the upstream nor passed
// back to the client.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// mergeHeaders returns a new header map holding base with override's
// values replacing same-named fields. Neither input is modified.
func mergeHeaders(base, override http.Header) http.Header {
	merged := make(http.Header, len(base)+len(override))
	for name, values := range base {
		merged[name] = append([]string(nil), values...)
	}
	for name, values := range override {
		merged[name] = append([]string(nil), values...)
	}
	return merged
}

// cacheHeaders returns the cache directives for a classified GET
// response: a public max-age and a MISS marker when cacheable, the
// deny-cache directives otherwise.
func cacheHeaders(d classify.Disposition) http.Header {
	h := http.Header{}
	if d.Cacheable {
		h.Set("Cache-Control", publicCacheControl(d))
		h.Set(headerCacheStatus, cacheStatusMiss)
	} else {
		h.Set("Cache-Control", noStoreDirectives)
	}
	return h
}

// publicCacheControl renders the shared-cache directive for a cacheable
// disposition.
func publicCacheControl(d classify.Disposition) string {
	return fmt.Sprintf("public, max-age=%d", int(d.TTL.Seconds()))
}

// upstreamHeaders builds the header set forwarded to the upstream: the
// inbound headers minus hop-by-hop fields, with the service credential
// injected as the apikey header and, when the caller supplied no
// Authorization of its own, as a bearer token.
func upstreamHeaders(inbound http.Header, credential string) http.Header {
	h := inbound.Clone()
	if h == nil {
		h = http.Header{}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	// Encoding is negotiated by the transport, which decompresses
	// transparently. Stored bodies stay identity-encoded, so an entry is
	// never replayed to a client that cannot decode it.
	h.Del("Accept-Encoding")
	h.Set("apikey", credential)
	if h.Get("Authorization") == "" {
		h.Set("Authorization", "Bearer "+credential)
	}
	return h
}

// responseHeaders returns upstream response headers fit for forwarding
// to the client: connection-scoped fields end at the gateway.
func responseHeaders(upstream http.Header) http.Header {
	h := upstream.Clone()
	if h == nil {
		h = http.Header{}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	return h
}

// storableHeaders returns the response headers fit for a shared cache
// entry: the forwardable set minus Set-Cookie, which belongs to the
// client that triggered the miss and must not be replayed to others.
func storableHeaders(upstream http.Header) http.Header {
	h := responseHeaders(upstream)
	h.Del("Set-Cookie")
	return h
}

// writeHeaders copies a composed header map onto the ResponseWriter.
func writeHeaders(w http.ResponseWriter, headers http.Header) {
	dst := w.Header()
	for name, values := range headers {
		dst[name] = values
	}
}
