// Package origin implements the cross-origin access policy of the proxy.
package origin

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Response header values shared by every allowed request.
const (
	allowMethods  = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
	allowHeaders  = "Authorization, Apikey, Content-Type, X-Client-Info, X-Purge-Secret"
	exposeHeaders = "Content-Length, X-Cache-Status"
	maxAgeValue   = "86400"
)

// defaultMobileMarkers identify non-browser HTTP runtimes by their
// User-Agent string. Such callers get wildcard access without credentials.
var defaultMobileMarkers = []string{"dart", "okhttp", "cfnetwork"}

// loopbackHosts are hostnames always granted credentialed access,
// independent of the allowlist.
var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
}

// Decision is the outcome of an origin evaluation for an allowed caller.
type Decision struct {
	// AllowOrigin is the Access-Control-Allow-Origin value: the echoed
	// caller origin or "*".
	AllowOrigin string

	// AllowCredentials reports whether credentialed requests are
	// permitted. Never true together with the wildcard origin.
	AllowCredentials bool
}

// Config holds the policy inputs. All fields are copied at construction.
type Config struct {
	// AllowedOrigins is the exact-match origin allowlist.
	AllowedOrigins []string

	// MobileUAMarkers overrides the default mobile-runtime markers.
	MobileUAMarkers []string

	// Production suppresses logging of rejected origin values.
	Production bool
}

// Policy evaluates caller origins. It is immutable and safe for
// concurrent use.
type Policy struct {
	allowed    map[string]struct{}
	markers    []string
	production bool
	logger     zerolog.Logger
}

// NewPolicy creates a Policy from the given configuration.
func NewPolicy(cfg Config) *Policy {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}

	markers := cfg.MobileUAMarkers
	if len(markers) == 0 {
		markers = defaultMobileMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}

	return &Policy{
		allowed:    allowed,
		markers:    lowered,
		production: cfg.Production,
		logger:     log.With().Str("component", "origin").Logger(),
	}
}

// Evaluate decides whether a caller is permitted. The second return value
// is false on rejection.
//
// Allowlisted and loopback origins are echoed back with credentials
// enabled. Callers without an Origin header, and callers whose User-Agent
// marks a mobile runtime, get the wildcard origin without credentials.
// Everything else is rejected.
func (p *Policy) Evaluate(originHeader, userAgent string) (Decision, bool) {
	if originHeader != "" {
		if _, ok := p.allowed[originHeader]; ok || isLoopback(originHeader) {
			return Decision{AllowOrigin: originHeader, AllowCredentials: true}, true
		}
	}

	if originHeader == "" || p.hasMobileMarker(userAgent) {
		return Decision{AllowOrigin: "*"}, true
	}

	if !p.production {
		p.logger.Debug().Str("origin", originHeader).Msg("Origin rejected")
	}
	return Decision{}, false
}

// hasMobileMarker reports whether the user agent names a known mobile
// HTTP runtime.
func (p *Policy) hasMobileMarker(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range p.markers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// isLoopback reports whether the origin's hostname is a loopback address.
func isLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	_, ok := loopbackHosts[u.Hostname()]
	return ok
}

// Headers renders the CORS response header set for the decision.
func (d Decision) Headers() http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", d.AllowOrigin)
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Expose-Headers", exposeHeaders)
	h.Set("Access-Control-Max-Age", maxAgeValue)
	if d.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	h.Set("Vary", "Origin")
	return h
}

// PreflightHeaders renders the header set for an OPTIONS preflight
// response. The caller's Access-Control-Request-Headers value is echoed
// back verbatim when present, replacing the static list.
func (d Decision) PreflightHeaders(requestedHeaders string) http.Header {
	h := d.Headers()
	if requestedHeaders != "" {
		h.Set("Access-Control-Allow-Headers", requestedHeaders)
	}
	h.Set("Vary", "Origin, Access-Control-Request-Headers")
	return h
}
