// Package classify derives the caching disposition of proxied requests
// from the configured resource name sets.
package classify

import (
	"net/http"
	"strings"
	"time"
)

// Class identifies the resource class a request path resolved to.
type Class string

const (
	// ClassMasterData marks slowly changing reference resources.
	ClassMasterData Class = "master_data"

	// ClassTransactional marks volatile business resources.
	ClassTransactional Class = "transactional"

	// ClassUnclassified marks paths matching neither configured set.
	ClassUnclassified Class = "unclassified"
)

// DefaultRPCMarker is the path segment identifying remote procedure
// calls, which are never cacheable regardless of resource class.
const DefaultRPCMarker = "/rpc/"

// Disposition is the caching decision for one request.
type Disposition struct {
	// Class is the resource class the path resolved to.
	Class Class

	// Cacheable reports whether the response may be stored.
	Cacheable bool

	// TTL is the freshness lifetime for cacheable responses, zero otherwise.
	TTL time.Duration
}

// Config holds the classification inputs. All fields are copied at
// construction; the Classifier never observes later mutation.
type Config struct {
	// MasterData and Transactional are resource names matched by
	// substring containment against the request path.
	MasterData    []string
	Transactional []string

	// MasterDataTTL is the lifetime granted to cacheable responses
	// (default 1 hour).
	MasterDataTTL time.Duration

	// RPCMarker overrides DefaultRPCMarker when set.
	RPCMarker string
}

// Classifier decides cacheability for request paths. It is immutable and
// safe for concurrent use.
type Classifier struct {
	masterData    []string
	transactional []string
	ttl           time.Duration
	rpcMarker     string
}

// New creates a Classifier from the given configuration.
func New(cfg Config) *Classifier {
	ttl := cfg.MasterDataTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	marker := cfg.RPCMarker
	if marker == "" {
		marker = DefaultRPCMarker
	}
	return &Classifier{
		masterData:    append([]string(nil), cfg.MasterData...),
		transactional: append([]string(nil), cfg.Transactional...),
		ttl:           ttl,
		rpcMarker:     marker,
	}
}

// Classify returns the disposition for a request. Only GET requests on
// master-data paths outside the RPC namespace are cacheable; everything
// else falls to the deny-cache default.
func (c *Classifier) Classify(method, path string) Disposition {
	d := Disposition{Class: c.resolveClass(path)}

	if method != http.MethodGet {
		return d
	}
	if strings.Contains(path, c.rpcMarker) {
		return d
	}
	if d.Class == ClassMasterData {
		d.Cacheable = true
		d.TTL = c.ttl
	}
	return d
}

// Purgeable reports whether entries for the path may be purged. The
// purgeable paths are exactly the paths whose GET responses are cacheable.
func (c *Classifier) Purgeable(path string) bool {
	return c.Classify(http.MethodGet, path).Cacheable
}

// resolveClass maps a path to its resource class. The transactional set
// is consulted first so that a path matching both sets stays uncacheable.
func (c *Classifier) resolveClass(path string) Class {
	for _, name := range c.transactional {
		if strings.Contains(path, name) {
			return ClassTransactional
		}
	}
	for _, name := range c.masterData {
		if strings.Contains(path, name) {
			return ClassMasterData
		}
	}
	return ClassUnclassified
}
