// Package rewrite turns a raw user query into a retrieval-optimized one
// via a single bounded completion call. Rewrite failure is never fatal:
// the original query flows through with zero confidence.
package rewrite

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/message"
	"github.com/sweetpotato0/evoseek/pkg/logging"
)

const rewritePrompt = `Rewrite the user's request into a clean, search-ready query.
Produce a retrieval-optimized restatement only. Do NOT answer the question,
do not add commentary, return the query text and nothing else.`

// Sanitizer scrubs PII from text before it leaves the process. Optional.
type Sanitizer interface {
	Sanitize(ctx context.Context, text string) (string, error)
}

// Result carries the rewritten query. Confidence is a coarse heuristic:
// 1 when the rewrite call succeeded, 0 when the original was reused.
type Result struct {
	Original   string
	Rewritten  string
	Confidence float64
}

// Rewriter issues the rewrite call on the fast tier with its own short
// timeout, since this is a latency-sensitive pre-step.
type Rewriter struct {
	llm       completion.Client
	sanitizer Sanitizer
	timeout   time.Duration
	logger    *slog.Logger
}

// New builds a rewriter. sanitizer may be nil.
func New(llm completion.Client, sanitizer Sanitizer, timeout time.Duration) *Rewriter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Rewriter{
		llm:       llm,
		sanitizer: sanitizer,
		timeout:   timeout,
		logger:    logging.WithComponent("rewriter"),
	}
}

// Rewrite optionally sanitizes the query, then asks the fast tier for a
// search-ready restatement. On any failure (timeout, empty output, missing
// client) the original query is returned with Confidence 0 and the
// pipeline continues.
func (r *Rewriter) Rewrite(ctx context.Context, query string, sanitize bool) Result {
	// Original always holds the caller's pre-pipeline text; sanitization
	// only changes what is sent onward.
	original := strings.TrimSpace(query)
	query = original

	if sanitize && r.sanitizer != nil {
		cleaned, err := r.sanitizer.Sanitize(ctx, query)
		if err != nil {
			r.logger.Warn("sanitizer failed, continuing with raw query", "error", err)
		} else if strings.TrimSpace(cleaned) != "" {
			query = strings.TrimSpace(cleaned)
		}
	}

	fallback := Result{Original: original, Rewritten: query, Confidence: 0}
	if r.llm == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.llm.Complete(ctx, &completion.Request{
		Tier: completion.TierFast,
		Messages: []*message.Message{
			message.System(rewritePrompt),
			message.User(query),
		},
	})
	if err != nil {
		r.logger.Warn("query rewrite failed, using original query", "error", err)
		return fallback
	}

	rewritten := strings.TrimSpace(resp.Text)
	// Models occasionally wrap the query in quotes or a one-line fence.
	rewritten = strings.Trim(rewritten, "`\"'")
	if rewritten == "" || strings.Count(rewritten, "\n") > 2 {
		r.logger.Warn("query rewrite produced unusable output, using original query")
		return fallback
	}

	r.logger.Debug("query rewritten", "original_len", len(original), "rewritten_len", len(rewritten))
	return Result{Original: original, Rewritten: rewritten, Confidence: 1}
}
