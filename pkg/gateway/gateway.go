// Package gateway orchestrates the edge proxy: it gates requests on the
// origin policy, serves cache hits, forwards misses to the upstream with
// injected credentials, and handles explicit purges.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/classify"
	"github.com/cachefront/cachefront/pkg/config"
	"github.com/cachefront/cachefront/pkg/origin"
)

const (
	serviceName = "cachefront"

	methodPurge = "PURGE"

	headerPurgeSecret = "X-Purge-Secret"
)

// Version is stamped into status payloads; overridden via ldflags.
var Version = "dev"

func init() {
	chi.RegisterMethod(methodPurge)
}

type ctxKey int

const decisionCtxKey ctxKey = iota

// Gateway is the edge proxy handler. All fields are immutable after New;
// shared mutable state lives exclusively in the Store.
type Gateway struct {
	store      cache.Store
	policy     *origin.Policy
	classifier *classify.Classifier
	upstream   *url.URL
	client     *http.Client
	logger     zerolog.Logger
	router     chi.Router

	upstreamKey   string
	purgeSecret   string
	environment   string
	proxyPrefixes []string
	missing       []string
}

// New creates a Gateway from the given configuration and store. An
// incomplete configuration is accepted — the per-request config check
// answers 500 until the mandatory settings are present — but a malformed
// upstream URL is refused here.
func New(cfg config.Config, store cache.Store) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	var upstream *url.URL
	if cfg.UpstreamURL != "" {
		u, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("parse upstream URL: %w", err)
		}
		upstream = u
	}

	prefixes := cfg.ProxyPrefixes
	if len(prefixes) == 0 {
		prefixes = config.Default().ProxyPrefixes
	}

	timeout := cfg.UpstreamTimeout
	if timeout <= 0 {
		timeout = config.Default().UpstreamTimeout
	}

	g := &Gateway{
		store: store,
		policy: origin.NewPolicy(origin.Config{
			AllowedOrigins:  cfg.AllowedOrigins,
			MobileUAMarkers: cfg.MobileUAMarkers,
			Production:      cfg.Environment == "production",
		}),
		classifier: classify.New(classify.Config{
			MasterData:    cfg.MasterData,
			Transactional: cfg.Transactional,
			MasterDataTTL: cfg.MasterDataTTL,
		}),
		upstream:      upstream,
		client:        &http.Client{Timeout: timeout},
		logger:        log.With().Str("component", "gateway").Logger(),
		upstreamKey:   cfg.UpstreamKey,
		purgeSecret:   cfg.PurgeSecret,
		environment:   cfg.Environment,
		proxyPrefixes: prefixes,
		missing:       cfg.MissingSettings(),
	}
	g.router = g.routes()

	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

// routes assembles the router. The middleware order mirrors the request
// state machine: config check, origin gate, preflight, then dispatch.
// NotFound responses pass through the same chain, so they carry CORS
// headers too.
func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(g.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(g.configCheck)
	r.Use(g.originGate)
	r.Use(g.preflight)

	r.Handle("/", http.HandlerFunc(g.handleStatus))
	r.Handle("/health", http.HandlerFunc(g.handleStatus))
	r.Handle("/info", http.HandlerFunc(g.handleStatus))

	for _, prefix := range g.proxyPrefixes {
		r.Handle(prefix+"*", http.HandlerFunc(g.handleProxy))
	}

	r.NotFound(g.handleNotFound)

	return r
}

// logRequests emits one structured log line per request and feeds the
// request metrics.
func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := g.routeLabel(r)
		requestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(duration.Seconds())

		evt := g.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", duration)
		if cs := ww.Header().Get(headerCacheStatus); cs != "" {
			evt = evt.Str("cache_status", cs)
		}
		evt.Msg("Request handled")
	})
}

// routeLabel buckets requests into low-cardinality route classes for
// metric labels.
func (g *Gateway) routeLabel(r *http.Request) string {
	switch {
	case r.Method == http.MethodOptions:
		return "preflight"
	case r.Method == methodPurge:
		return "purge"
	case r.URL.Path == "/" || r.URL.Path == "/health" || r.URL.Path == "/info":
		return "status"
	default:
		for _, prefix := range g.proxyPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				return "proxy"
			}
		}
		return "other"
	}
}

// configCheck refuses requests while mandatory settings are absent. The
// binary validates at startup; this guard keeps an embedded gateway from
// silently proxying without credentials. Config errors answer with
// wildcard CORS so a browser can read the body.
func (g *Gateway) configCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.missing) > 0 {
			g.writeError(w, origin.Decision{AllowOrigin: "*"}.Headers(), &Error{
				Kind:    KindConfigMissing,
				Message: "server configuration incomplete: " + strings.Join(g.missing, ", "),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originGate evaluates the origin policy and stores the decision in the
// request context. Rejections answer 403 with Vary: Origin and no
// allow-origin or cache headers.
func (g *Gateway) originGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, ok := g.policy.Evaluate(r.Header.Get("Origin"), r.Header.Get("User-Agent"))
		if !ok {
			originRejectsTotal.Inc()
			w.Header().Set("Vary", "Origin")
			g.writeError(w, nil, &Error{Kind: KindOriginRejected, Message: "origin not allowed"})
			return
		}

		ctx := context.WithValue(r.Context(), decisionCtxKey, decision)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// preflight answers OPTIONS for any path before route dispatch. The
// upstream is never consulted.
func (g *Gateway) preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		decision := decisionFrom(r.Context())
		writeHeaders(w, decision.PreflightHeaders(r.Header.Get("Access-Control-Request-Headers")))
		w.WriteHeader(http.StatusNoContent)
	})
}

// decisionFrom returns the origin decision stored by the origin gate.
// Requests short-circuited before the gate read as wildcard.
func decisionFrom(ctx context.Context) origin.Decision {
	if d, ok := ctx.Value(decisionCtxKey).(origin.Decision); ok {
		return d
	}
	return origin.Decision{AllowOrigin: "*"}
}

type statusPayload struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// handleStatus serves the synthesized status document on /, /health and
// /info.
func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	decision := decisionFrom(r.Context())

	writeHeaders(w, decision.Headers())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(statusPayload{
		Service:     serviceName,
		Version:     Version,
		Environment: g.environment,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleNotFound answers unrouted paths with a CORS-carrying 404.
func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	decision := decisionFrom(r.Context())
	g.writeError(w, decision.Headers(), &Error{
		Kind:    KindNotFound,
		Message: "no route for " + r.URL.Path,
	})
}

// writeError renders a JSON error body. The composed headers are applied
// first so CORS survives on errors; internals never reach the body.
func (g *Gateway) writeError(w http.ResponseWriter, headers http.Header, gerr *Error) {
	writeHeaders(w, headers)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(gerr.Kind))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": gerr.Message})
}
