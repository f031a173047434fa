// Package completion abstracts the LLM completion service behind one
// client interface and routes calls to a model tier.
package completion

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sweetpotato0/evoseek/errors"
	"github.com/sweetpotato0/evoseek/message"
)

// ModelTier selects which model class serves a completion call.
type ModelTier string

const (
	// TierFast is the low-latency model used for rewrites and light tasks.
	TierFast ModelTier = "fast"
	// TierCapable is the stronger model used for investor/legal/governance
	// synthesis and repair calls.
	TierCapable ModelTier = "capable"
)

// Request bundles inputs for one completion call.
type Request struct {
	Messages    []*message.Message
	Tier        ModelTier
	MaxTokens   int64
	Temperature float64
}

// Response captures the completion reply.
type Response struct {
	Text  string
	Model string
}

// Client is implemented by provider adapters under contrib/provider.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Ping verifies the provider is reachable; used by the health probe.
	Ping(ctx context.Context) error
}

// Router dispatches requests to per-tier clients with a per-call timeout.
// A tier without its own client falls back to the default client.
type Router struct {
	fast     Client
	capable  Client
	fallback Client
	timeout  time.Duration
}

// NewRouter builds a tier router. Any of fast/capable may be nil as long
// as fallback is set.
func NewRouter(fast, capable, fallback Client, timeout time.Duration) (*Router, error) {
	if fallback == nil {
		fallback = fast
	}
	if fallback == nil {
		fallback = capable
	}
	if fallback == nil {
		return nil, fmt.Errorf("completion: %w: no client configured", errors.ErrConfiguration)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Router{fast: fast, capable: capable, fallback: fallback, timeout: timeout}, nil
}

func (r *Router) client(tier ModelTier) Client {
	switch tier {
	case TierFast:
		if r.fast != nil {
			return r.fast
		}
	case TierCapable:
		if r.capable != nil {
			return r.capable
		}
	}
	return r.fallback
}

// Complete runs the request against the client serving its tier, bounded
// by the router timeout unless the request context is already tighter.
// Timeouts and provider failures map onto the shared error taxonomy.
func (r *Router) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("completion: request cannot be nil")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client(req.Tier).Complete(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("completion (%s tier): %w: %v", req.Tier, errors.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("completion (%s tier): %w: %v", req.Tier, errors.ErrUpstreamFailure, err)
	}
	if resp == nil || resp.Text == "" {
		return nil, fmt.Errorf("completion (%s tier): %w: empty response", req.Tier, errors.ErrUpstreamFailure)
	}
	return resp, nil
}

// Ping checks the fallback client for reachability.
func (r *Router) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.fallback.Ping(ctx)
}
