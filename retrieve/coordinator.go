// Package retrieve fans a query out across the configured source adapters
// and merges the hits into one deterministic context slice.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sweetpotato0/evoseek/errors"
	"github.com/sweetpotato0/evoseek/pkg/logging"
	"github.com/sweetpotato0/evoseek/source"
)

// Options selects which sources serve one retrieval pass.
type Options struct {
	// Grounded requires the internal index: if it cannot serve and no web
	// fallback is enabled, retrieval fails hard with a configuration error.
	Grounded bool
	// Web enables the public web-snippet source.
	Web bool
	// Limit caps the merged document count. Zero means the coordinator
	// default.
	Limit int
}

// Result is the merged retrieval outcome plus the diagnostics the response
// assembler surfaces as warnings.
type Result struct {
	Documents        []source.Document
	SourcesAttempted []source.Kind
	SourcesSucceeded []source.Kind
	// Degraded is set when a source that was attempted failed at runtime
	// and the request continued on partial (or empty) context.
	Degraded bool
	Warnings []string
}

// Coordinator owns the adapter set and the per-source timeout. Adapters run
// concurrently; one slow or failing source never blocks the others.
type Coordinator struct {
	index         source.Adapter
	web           source.Adapter
	sourceTimeout time.Duration
	limit         int
	logger        *slog.Logger
}

// Option mutates coordinator construction.
type Option func(*Coordinator)

// WithSourceTimeout overrides the default 8s per-source timeout.
func WithSourceTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.sourceTimeout = d
		}
	}
}

// WithLimit overrides the default merged-document cap.
func WithLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New builds a coordinator over the internal index and web adapters. Either
// may be nil; a nil adapter is simply never attempted.
func New(index, web source.Adapter, opts ...Option) *Coordinator {
	c := &Coordinator{
		index:         index,
		web:           web,
		sourceTimeout: 8 * time.Second,
		limit:         8,
		logger:        logging.WithComponent("retrieval"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sourceOutcome struct {
	kind source.Kind
	docs []source.Document
	err  error
}

// Retrieve runs the enabled adapters concurrently, each under its own
// timeout, and merges the hits: internal-index documents strictly precede
// web documents, ordered by score descending within each source with
// arrival order breaking ties.
//
// Runtime source failures degrade the result instead of failing the
// request. The only hard error is a configuration one: grounding was
// required but the index cannot serve and web fallback is off.
func (c *Coordinator) Retrieve(ctx context.Context, query string, opts Options) (*Result, error) {
	indexReady := c.index != nil && c.index.Configured()
	if opts.Grounded && !indexReady && !opts.Web {
		return nil, fmt.Errorf("retrieve: %w: grounding required but document index is not configured and web fallback is disabled", errors.ErrConfiguration)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = c.limit
	}

	res := &Result{}
	if opts.Grounded && !indexReady {
		// Web fallback keeps the request alive, but the grounding
		// requirement goes unmet and the caller must see that.
		c.logger.Warn("document index unconfigured, continuing on web fallback")
		res.Degraded = true
		res.Warnings = append(res.Warnings, "document index unconfigured, grounding requirement not met")
	}

	// Fixed slots keep the merge deterministic regardless of which
	// goroutine finishes first.
	var attempts []source.Adapter
	if indexReady {
		attempts = append(attempts, c.index)
	}
	if opts.Web && c.web != nil && c.web.Configured() {
		attempts = append(attempts, c.web)
	}
	if len(attempts) == 0 {
		if opts.Grounded || opts.Web {
			res.Degraded = true
			res.Warnings = append(res.Warnings, "no retrieval source available, continuing ungrounded")
		}
		return res, nil
	}

	outcomes := make([]sourceOutcome, len(attempts))
	var wg sync.WaitGroup
	for i, adapter := range attempts {
		wg.Add(1)
		go func(slot int, a source.Adapter) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, c.sourceTimeout)
			defer cancel()
			docs, err := a.Search(sctx, query, limit)
			outcomes[slot] = sourceOutcome{kind: a.Kind(), docs: docs, err: err}
		}(i, adapter)
	}
	wg.Wait()

	for _, out := range outcomes {
		res.SourcesAttempted = append(res.SourcesAttempted, out.kind)
		if out.err != nil {
			c.logger.Warn("source search failed", "source", out.kind, "error", out.err)
			res.Degraded = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("source %s failed: %v", out.kind, out.err))
			continue
		}
		res.SourcesSucceeded = append(res.SourcesSucceeded, out.kind)
		docs := out.docs
		sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
		res.Documents = append(res.Documents, docs...)
	}

	res.Documents = dedupe(res.Documents)
	if len(res.Documents) > limit {
		res.Documents = res.Documents[:limit]
	}

	c.logger.Debug("retrieval merged",
		"attempted", len(res.SourcesAttempted),
		"succeeded", len(res.SourcesSucceeded),
		"documents", len(res.Documents),
		"degraded", res.Degraded)
	return res, nil
}

// dedupe drops later documents that repeat an earlier URI or ID. Because
// internal-index hits are merged first, they win over web duplicates.
func dedupe(docs []source.Document) []source.Document {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0]
	for _, d := range docs {
		key := d.URI
		if key == "" {
			key = string(d.Kind) + "/" + d.ID
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
