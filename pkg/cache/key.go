package cache

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by request identity. Only GET
// requests are ever stored, so purge keys are normalized to GET.
type Key struct {
	// Method is the request method (GET for every stored entry).
	Method string

	// Path is the request path (e.g. "/rest/v1/companies").
	Path string

	// Query holds the request query parameters.
	Query url.Values
}

// KeyFromRequest derives the cache key for an inbound request. Headers
// never contribute to the key, so purge authorization cannot leak into it.
func KeyFromRequest(r *http.Request) Key {
	return Key{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}
}

// GET returns the key for the GET request with the same path and query.
// Purges target this key regardless of the purge request's own method.
func (k Key) GET() Key {
	k.Method = http.MethodGet
	return k
}

// keyEscaper encodes the characters that separate key components, "%"
// first so the encoding stays reversible. A raw ":" or "=" inside a
// path or query component would otherwise render the same key as a
// different request identity.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "=", "%3D")

// String generates a deterministic key string.
// Format: edge:METHOD:path:query1=val1:query2=val2
//
// Query parameters are sorted by name (values sorted within a name), so
// equivalent URLs always map to the same entry. ":", "=", and "%" inside
// any component are percent-encoded, so distinct URLs never share a key.
//
// Example:
//
//	edge:GET:/rest/v1/companies:select=id
func (k Key) String() string {
	parts := []string{"edge", keyEscaper.Replace(k.Method), keyEscaper.Replace(k.Path)}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			for _, v := range values {
				parts = append(parts, fmt.Sprintf("%s=%s", keyEscaper.Replace(name), keyEscaper.Replace(v)))
			}
		}
	}

	return strings.Join(parts, ":")
}
