package engine

import (
	"time"

	"github.com/sweetpotato0/evoseek/archive"
	"github.com/sweetpotato0/evoseek/brand"
	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/rewrite"
	"github.com/sweetpotato0/evoseek/source"
	"github.com/sweetpotato0/evoseek/task"
)

// options collects everything engine construction needs. All fields have
// working defaults except the completion client.
type options struct {
	llm            completion.Client
	index          source.Adapter
	web            source.Adapter
	sanitizer      rewrite.Sanitizer
	policy         *brand.Policy
	store          archive.Store
	profiles       []task.Profile
	globalTimeout  time.Duration
	rewriteTimeout time.Duration
	sourceTimeout  time.Duration
	retrievalLimit int
	tokenBudget    int
	maxTokens      int64
	temperature    float64
}

func defaultOptions() *options {
	return &options{
		profiles:       task.DefaultProfiles(),
		globalTimeout:  120 * time.Second,
		rewriteTimeout: 5 * time.Second,
		sourceTimeout:  8 * time.Second,
		retrievalLimit: 8,
		tokenBudget:    3000,
		maxTokens:      2048,
		temperature:    0.4,
	}
}

// Option configures the engine.
type Option func(*options)

// WithCompletion sets the completion client serving all model calls.
// Required.
func WithCompletion(c completion.Client) Option {
	return func(o *options) { o.llm = c }
}

// WithIndexAdapter sets the internal document-index adapter.
func WithIndexAdapter(a source.Adapter) Option {
	return func(o *options) { o.index = a }
}

// WithWebAdapter sets the web-snippet adapter.
func WithWebAdapter(a source.Adapter) Option {
	return func(o *options) { o.web = a }
}

// WithSanitizer sets the optional PII sanitizer applied before rewriting.
func WithSanitizer(s rewrite.Sanitizer) Option {
	return func(o *options) { o.sanitizer = s }
}

// WithBrandPolicy overrides the built-in brand policy.
func WithBrandPolicy(p *brand.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithArchive sets the best-effort persistence sink for accepted answers.
func WithArchive(s archive.Store) Option {
	return func(o *options) { o.store = s }
}

// WithProfiles overrides the task profile table.
func WithProfiles(profiles []task.Profile) Option {
	return func(o *options) { o.profiles = profiles }
}

// WithGlobalTimeout bounds the whole request, independent of the
// per-stage budgets.
func WithGlobalTimeout(d time.Duration) Option {
	return func(o *options) { o.globalTimeout = d }
}

// WithRewriteTimeout bounds the query-rewrite call.
func WithRewriteTimeout(d time.Duration) Option {
	return func(o *options) { o.rewriteTimeout = d }
}

// WithSourceTimeout bounds each retrieval source independently.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *options) { o.sourceTimeout = d }
}

// WithRetrievalLimit caps the merged document count per request.
func WithRetrievalLimit(n int) Option {
	return func(o *options) { o.retrievalLimit = n }
}

// WithTokenBudget caps the retrieved context offered to the model, in
// tokens.
func WithTokenBudget(n int) Option {
	return func(o *options) { o.tokenBudget = n }
}

// WithMaxTokens caps the synthesis output length.
func WithMaxTokens(n int64) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithTemperature sets the synthesis sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// LowLatencyPreset trims every budget for interactive use: shorter
// timeouts, a smaller context window, fewer documents.
func LowLatencyPreset() Option {
	return func(o *options) {
		o.globalTimeout = 30 * time.Second
		o.rewriteTimeout = 3 * time.Second
		o.sourceTimeout = 4 * time.Second
		o.retrievalLimit = 4
		o.tokenBudget = 1500
		o.maxTokens = 1024
	}
}

// ThoroughPreset widens the budgets for long-form content where latency
// matters less than coverage.
func ThoroughPreset() Option {
	return func(o *options) {
		o.globalTimeout = 300 * time.Second
		o.sourceTimeout = 15 * time.Second
		o.retrievalLimit = 12
		o.tokenBudget = 6000
		o.maxTokens = 4096
	}
}
