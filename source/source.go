// Package source defines the uniform adapter interface over retrieval
// backends and the document records they return.
package source

import (
	"context"
	"errors"
)

// Kind identifies which class of backend produced a document.
type Kind string

const (
	// KindInternal is the managed document-search index.
	KindInternal Kind = "internal-index"
	// KindWeb is the public web-snippet search.
	KindWeb Kind = "web"
	// KindNone marks the no-grounding backend.
	KindNone Kind = "none"
)

// ErrUnconfigured is returned by adapters that exist in the wiring but lack
// the configuration needed to serve queries. Distinct from a runtime
// failure: the coordinator treats it as a hard configuration problem when
// the source is required.
var ErrUnconfigured = errors.New("source adapter not configured")

// Document is one retrieval hit. Created per request and owned by the
// retrieval coordinator for the request's lifetime.
type Document struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet"`
	URI     string  `json:"uri,omitempty"`
	Kind    Kind    `json:"source_kind"`
	Score   float64 `json:"score"`
}

// Adapter wraps one retrieval backend. Implementations must honour ctx
// cancellation and return ErrUnconfigured when they cannot serve at all.
type Adapter interface {
	Kind() Kind
	Search(ctx context.Context, query string, limit int) ([]Document, error)
	// Configured reports whether the adapter can serve queries, without
	// performing one. Used by the health probe and the coordinator's
	// hard-failure check.
	Configured() bool
}

// Noop is the no-grounding adapter: always configured, always empty.
type Noop struct{}

func (Noop) Kind() Kind       { return KindNone }
func (Noop) Configured() bool { return true }

func (Noop) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	return nil, nil
}
