package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cachefront/cachefront/pkg/cache"
	"github.com/cachefront/cachefront/pkg/origin"
)

type purgeResult struct {
	Purged    bool   `json:"purged"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// handlePurge removes a single cached entry. The presented secret must
// match in constant time and the target path must be purgeable; the
// deleted key is the one a GET for the same URL would populate.
func (g *Gateway) handlePurge(w http.ResponseWriter, r *http.Request) {
	decision := decisionFrom(r.Context())

	if !g.purgeAuthorized(r.Header.Get(headerPurgeSecret)) {
		purgesTotal.WithLabelValues("unauthorized").Inc()
		g.logger.Warn().Str("path", r.URL.Path).Msg("Purge rejected: invalid secret")
		g.writePurgeError(w, decision, &Error{Kind: KindPurgeUnauthorized, Message: "invalid purge secret"})
		return
	}

	if !g.classifier.Purgeable(r.URL.Path) {
		purgesTotal.WithLabelValues("not_allowed").Inc()
		g.logger.Warn().Str("path", r.URL.Path).Msg("Purge rejected: path not purgeable")
		g.writePurgeError(w, decision, &Error{Kind: KindPurgeNotAllowed, Message: "path is not purgeable"})
		return
	}

	key := cache.KeyFromRequest(r).GET()
	purged, err := g.store.Delete(r.Context(), key)
	if err != nil {
		// Fail open: report the entry as not purged instead of erroring.
		storeFailuresTotal.WithLabelValues("delete").Inc()
		g.logger.Warn().Err(err).Str("key", key.String()).Msg("Purge delete failed")
		purged = false
	}

	outcome := "absent"
	if purged {
		outcome = "purged"
	}
	purgesTotal.WithLabelValues(outcome).Inc()
	g.logger.Info().Str("path", r.URL.Path).Bool("purged", purged).Msg("Purge handled")

	writeHeaders(w, decision.Headers())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(purgeResult{
		Purged:    purged,
		URL:       r.URL.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// purgeAuthorized compares the presented secret against the configured
// one in constant time. An empty configured secret disables purging.
func (g *Gateway) purgeAuthorized(presented string) bool {
	if presented == "" || g.purgeSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(g.purgeSecret)) == 1
}

// writePurgeError renders a purge rejection in the purge result shape,
// with the response status taken from the error kind.
func (g *Gateway) writePurgeError(w http.ResponseWriter, decision origin.Decision, err *Error) {
	writeHeaders(w, decision.Headers())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(err.Kind))
	_ = json.NewEncoder(w).Encode(purgeResult{Purged: false, Error: err.Message})
}
