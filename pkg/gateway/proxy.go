package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/origin"
)

// backgroundWriteTimeout bounds the detached cache write.
const backgroundWriteTimeout = 10 * time.Second

// handleProxy serves the proxiable prefixes: cache hits for GETs, then
// upstream forwarding with classification and a background store on
// cacheable misses. PURGE requests divert to the purge handler.
func (g *Gateway) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method == methodPurge {
		g.handlePurge(w, r)
		return
	}

	decision := decisionFrom(r.Context())
	key := cache.KeyFromRequest(r)

	if r.Method == http.MethodGet {
		entry, err := g.store.Lookup(r.Context(), key)
		if err != nil && err != cache.ErrMiss {
			// Fail open: a broken store degrades to proxying, not to 5xx.
			storeFailuresTotal.WithLabelValues("lookup").Inc()
			g.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache lookup failed, treating as miss")
		}
		if entry != nil {
			g.serveHit(w, decision, entry)
			return
		}
	}

	g.forward(w, r, decision, key)
}

// serveHit writes a stored entry. CORS headers are recomputed for the
// current request and override whatever the entry carries.
func (g *Gateway) serveHit(w http.ResponseWriter, decision origin.Decision, entry *cache.Entry) {
	cacheStatusTotal.WithLabelValues("hit").Inc()

	headers := mergeHeaders(entry.Header, decision.Headers())
	headers.Set(headerCacheStatus, cacheStatusHit)
	writeHeaders(w, headers)
	w.WriteHeader(entry.StatusCode)
	if _, err := w.Write(entry.Body); err != nil {
		g.logger.Debug().Err(err).Msg("Client disconnected during hit write")
	}
}

// forward relays the request to the upstream. GET responses answered
// with a full 200 run through the classifier; cacheable ones are
// buffered so a copy can be stored after the client write.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, decision origin.Decision, key cache.Key) {
	upReq, err := g.upstreamRequest(r)
	if err != nil {
		upstreamFailuresTotal.Inc()
		g.writeError(w, decision.Headers(), &Error{Kind: KindUpstreamFailure, Message: "upstream request could not be built", Err: err})
		return
	}

	resp, err := g.client.Do(upReq)
	if err != nil {
		upstreamFailuresTotal.Inc()
		g.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
		g.writeError(w, decision.Headers(), &Error{Kind: KindUpstreamFailure, Message: "upstream unavailable", Err: err})
		return
	}
	defer resp.Body.Close()

	headers := mergeHeaders(responseHeaders(resp.Header), decision.Headers())

	// Cache treatment applies only to GETs answered with a full 200. A
	// 206 from a Range request (or any other 2xx variant) must never be
	// stored under the full resource key, so those relay verbatim.
	if r.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		g.relay(w, resp, headers)
		return
	}

	disposition := g.classifier.Classify(r.Method, r.URL.Path)
	headers = mergeHeaders(headers, cacheHeaders(disposition))

	if !disposition.Cacheable {
		g.relay(w, resp, headers)
		return
	}

	cacheStatusTotal.WithLabelValues("miss").Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamFailuresTotal.Inc()
		g.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Reading upstream response failed")
		g.writeError(w, decision.Headers(), &Error{Kind: KindUpstreamFailure, Message: "upstream unavailable", Err: err})
		return
	}

	writeHeaders(w, headers)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		g.logger.Debug().Err(err).Msg("Client disconnected during miss write")
	}

	// The stored copy keeps the storable upstream headers plus the cache
	// directive. CORS is recomputed per request when the entry is served.
	stored := mergeHeaders(storableHeaders(resp.Header), http.Header{
		"Cache-Control": {publicCacheControl(disposition)},
	})
	g.storeAsync(key, body, resp.StatusCode, stored, disposition.TTL)
}

// relay streams an upstream response through unchanged.
func (g *Gateway) relay(w http.ResponseWriter, resp *http.Response, headers http.Header) {
	writeHeaders(w, headers)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Debug().Err(err).Msg("Client disconnected during relay")
	}
}

// upstreamRequest rebuilds the inbound request against the upstream
// base URL: same method, path and query, body forwarded for non-GET/HEAD
// methods, credentials injected.
func (g *Gateway) upstreamRequest(r *http.Request) (*http.Request, error) {
	target := *g.upstream
	target.Path = strings.TrimRight(target.Path, "/") + r.URL.Path
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if body != nil {
		req.ContentLength = r.ContentLength
	}
	req.Header = upstreamHeaders(r.Header, g.upstreamKey)

	return req, nil
}

// storeAsync stores a response copy without blocking the response path.
// The write is detached from the request context; failures are logged
// and counted, never surfaced.
func (g *Gateway) storeAsync(key cache.Key, body []byte, statusCode int, header http.Header, ttl time.Duration) {
	entry, err := cache.EntryFromBytes(body, statusCode, header, ttl)
	if err != nil {
		g.logger.Warn().Err(err).Str("key", key.String()).Msg("Could not build cache entry")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundWriteTimeout)
		defer cancel()

		if err := g.store.Put(ctx, key, entry, ttl); err != nil {
			storeFailuresTotal.WithLabelValues("put").Inc()
			g.logger.Warn().Err(err).Str("key", key.String()).Msg("Background cache write failed")
			return
		}
		g.logger.Debug().Str("key", key.String()).Dur("ttl", ttl).Msg("Cached upstream response")
	}()
}
