// Package engine runs the grounded-generation pipeline: route the task,
// rewrite the query, retrieve context, synthesize under constraints,
// validate against the guardrail and assemble the response.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/evoseek/archive"
	"github.com/sweetpotato0/evoseek/brand"
	"github.com/sweetpotato0/evoseek/config"
	"github.com/sweetpotato0/evoseek/content"
	"github.com/sweetpotato0/evoseek/errors"
	"github.com/sweetpotato0/evoseek/guardrail"
	"github.com/sweetpotato0/evoseek/pkg/logging"
	"github.com/sweetpotato0/evoseek/pkg/telemetry"
	"github.com/sweetpotato0/evoseek/retrieve"
	"github.com/sweetpotato0/evoseek/rewrite"
	"github.com/sweetpotato0/evoseek/source"
	"github.com/sweetpotato0/evoseek/synthesize"
	"github.com/sweetpotato0/evoseek/task"
)

// stage names the pipeline states, in execution order.
type stage string

const (
	stageRouting      stage = "routing"
	stageRewriting    stage = "rewriting"
	stageRetrieving   stage = "retrieving"
	stageSynthesizing stage = "synthesizing"
	stageValidating   stage = "validating"
	stageAssembling   stage = "assembling"
)

// Request is one content request. Grounded and Web default to the task
// profile when nil.
type Request struct {
	Query    string    `json:"query"`
	Task     task.Task `json:"task"`
	Grounded *bool     `json:"grounded,omitempty"`
	Web      *bool     `json:"web,omitempty"`
	Sanitize bool      `json:"sanitize,omitempty"`
}

// Citation is one source exposed to the caller. Only id, snippet and uri
// survive past assembly.
type Citation struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	URI     string `json:"uri,omitempty"`
}

// Response is the engine's caller-facing result. OK=true guarantees Answer
// is structurally valid and every citation resolves to a retrieved
// document; OK=false guarantees no partial answer is attached.
type Response struct {
	OK             bool                `json:"ok"`
	Answer         *content.Structured `json:"answer"`
	Grounded       bool                `json:"grounded"`
	Sources        []Citation          `json:"sources"`
	WebSources     []Citation          `json:"web_sources"`
	RewrittenQuery string              `json:"rewritten_query"`
	Warnings       []string            `json:"warnings"`
	Error          string              `json:"error,omitempty"`
}

// Engine wires the pipeline stages. Safe for concurrent use; per-request
// state lives on the stack of Seek.
type Engine struct {
	router      *task.Router
	rewriter    *rewrite.Rewriter
	retriever   *retrieve.Coordinator
	synthesizer *synthesize.Synthesizer
	validator   *guardrail.Validator
	store       archive.Store
	timeout     time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New assembles an engine from options. A completion client is required;
// everything else has a default or is optional.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	v := config.NewValidator().
		RequireNotNil("completion client", o.llm).
		RequirePositiveDuration("global timeout", o.globalTimeout).
		ValidateRange("retrieval limit", o.retrievalLimit, 1, 64).
		RequirePositive("token budget", o.tokenBudget)
	if v.HasErrors() {
		return nil, fmt.Errorf("engine: %w: %v", errors.ErrConfiguration, v.Error())
	}

	policy := o.policy
	if policy == nil {
		policy = brand.Default()
	}

	return &Engine{
		router:   task.NewRouterWithProfiles(o.profiles),
		rewriter: rewrite.New(o.llm, o.sanitizer, o.rewriteTimeout),
		retriever: retrieve.New(o.index, o.web,
			retrieve.WithSourceTimeout(o.sourceTimeout),
			retrieve.WithLimit(o.retrievalLimit)),
		synthesizer: synthesize.New(o.llm, policy,
			synthesize.WithTokenBudget(o.tokenBudget),
			synthesize.WithMaxTokens(o.maxTokens),
			synthesize.WithTemperature(o.temperature)),
		validator: guardrail.New(o.llm, policy),
		store:     o.store,
		timeout:   o.globalTimeout,
		logger:    logging.WithComponent("engine"),
		tracer:    telemetry.Tracer(),
	}, nil
}

// Seek runs one request through the pipeline. It always returns a
// response; fatal conditions set OK=false with a stable error code.
func (e *Engine) Seek(ctx context.Context, req *Request) *Response {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if req == nil {
		req = &Request{}
	}
	ctx, span := e.tracer.Start(ctx, "engine.seek",
		trace.WithAttributes(attribute.String("task", string(req.Task))))
	resp := &Response{}
	defer func() { telemetry.End(span, failErr(resp)) }()

	if req.Query == "" {
		return e.fail(resp, fmt.Errorf("engine: %w: query cannot be empty", errors.ErrValidation))
	}

	// Routing: pure lookup, never fails.
	profile := e.resolve(ctx, req.Task)
	grounded := profile.DefaultGrounded
	if req.Grounded != nil {
		grounded = *req.Grounded
	}
	web := profile.DefaultWeb
	if req.Web != nil {
		web = *req.Web
	}
	span.SetAttributes(
		attribute.Bool("grounded", grounded),
		attribute.Bool("web", web),
		attribute.String("model_tier", string(profile.ModelTier)),
	)
	e.logger.Info("request accepted",
		"task", profile.Task, "grounded", grounded, "web", web)

	// Rewriting: never fatal.
	rewritten := e.doRewrite(ctx, req.Query, req.Sanitize)
	resp.RewrittenQuery = rewritten.Rewritten
	if rewritten.Confidence == 0 {
		resp.Warnings = append(resp.Warnings, "query rewrite unavailable, original query used")
	}

	// Retrieving: the only hard failure here is misconfiguration.
	result, err := e.doRetrieve(ctx, rewritten.Rewritten, retrieve.Options{Grounded: grounded, Web: web})
	if err != nil {
		return e.fail(resp, err)
	}
	resp.Warnings = append(resp.Warnings, result.Warnings...)

	// Synthesizing.
	answer, err := e.doSynthesize(ctx, synthesize.Input{
		Query:     rewritten.Rewritten,
		Profile:   profile,
		Documents: result.Documents,
		Grounded:  grounded,
	})
	if err != nil {
		return e.fail(resp, err)
	}
	if answer.Sentinel {
		// Valid, expected outcome: grounding was required and nothing was
		// retrieved. Answer with the explicit sentinel, marked ungrounded.
		resp.OK = true
		resp.Grounded = false
		resp.Answer = synthesize.Sentinel(req.Query)
		resp.Warnings = append(resp.Warnings, "insufficient source material: returning the explicit not-enough-information answer")
		e.archiveAnswer(ctx, req, resp)
		return resp
	}

	// Validating, including the bounded repair.
	doc, report, err := e.doValidate(ctx, guardrail.Input{
		Raw:      answer.Raw,
		RefIDs:   refIDs(answer.Refs),
		Grounded: grounded,
		Tier:     profile.ModelTier,
	})
	if err != nil {
		return e.fail(resp, err)
	}
	for _, w := range report.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	if report.Repaired {
		resp.Warnings = append(resp.Warnings, "output required one repair pass")
	}

	// Assembling: deterministic, no external calls.
	e.assemble(ctx, resp, doc, answer.Refs, report.CitedRefs, result, grounded)
	e.archiveAnswer(ctx, req, resp)
	return resp
}

func (e *Engine) resolve(ctx context.Context, t task.Task) task.Profile {
	_, span := e.tracer.Start(ctx, "engine."+string(stageRouting))
	defer span.End()
	return e.router.Resolve(t)
}

func (e *Engine) doRewrite(ctx context.Context, query string, sanitize bool) rewrite.Result {
	ctx, span := e.tracer.Start(ctx, "engine."+string(stageRewriting))
	defer span.End()
	return e.rewriter.Rewrite(ctx, query, sanitize)
}

func (e *Engine) doRetrieve(ctx context.Context, query string, opts retrieve.Options) (*retrieve.Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine."+string(stageRetrieving))
	result, err := e.retriever.Retrieve(ctx, query, opts)
	telemetry.End(span, err)
	return result, err
}

func (e *Engine) doSynthesize(ctx context.Context, in synthesize.Input) (*synthesize.Answer, error) {
	ctx, span := e.tracer.Start(ctx, "engine."+string(stageSynthesizing))
	answer, err := e.synthesizer.Synthesize(ctx, in)
	telemetry.End(span, err)
	return answer, err
}

func (e *Engine) doValidate(ctx context.Context, in guardrail.Input) (*content.Structured, *guardrail.Report, error) {
	ctx, span := e.tracer.Start(ctx, "engine."+string(stageValidating))
	doc, report, err := e.validator.Validate(ctx, in)
	telemetry.End(span, err)
	return doc, report, err
}

// assemble fills the response from the validated document. Only documents
// the answer actually cites are exposed; everything else is dropped here
// so no orphan sources reach the caller.
func (e *Engine) assemble(ctx context.Context, resp *Response, doc *content.Structured,
	refs []synthesize.Ref, cited []string, result *retrieve.Result, groundedRequested bool) {
	_, span := e.tracer.Start(ctx, "engine."+string(stageAssembling))
	defer span.End()

	byID := make(map[string]synthesize.Ref, len(refs))
	for _, r := range refs {
		byID[r.ID] = r
	}
	for _, id := range cited {
		r, ok := byID[id]
		if !ok {
			continue
		}
		c := Citation{ID: r.ID, Snippet: r.Document.Snippet, URI: r.Document.URI}
		if r.Document.Kind == source.KindWeb {
			resp.WebSources = append(resp.WebSources, c)
		} else {
			resp.Sources = append(resp.Sources, c)
		}
	}

	resp.OK = true
	resp.Answer = doc
	resp.Grounded = e.groundedOutcome(result, groundedRequested, len(resp.Sources)+len(resp.WebSources))
	e.logger.Info("request complete",
		"grounded", resp.Grounded,
		"sources", len(resp.Sources),
		"web_sources", len(resp.WebSources),
		"warnings", len(resp.Warnings))
}

// groundedOutcome decides the response's grounded flag. A request that
// demanded grounding only reports grounded when the internal index
// actually served it; web snippets alone do not satisfy a grounding
// requirement, they only keep the request alive in degraded form.
func (e *Engine) groundedOutcome(result *retrieve.Result, groundedRequested bool, citations int) bool {
	if citations == 0 {
		return false
	}
	if !groundedRequested {
		return true
	}
	for _, kind := range result.SourcesSucceeded {
		if kind == source.KindInternal {
			return true
		}
	}
	return false
}

// archiveAnswer persists an accepted answer when a store is wired.
// Failures become warnings, never request failures.
func (e *Engine) archiveAnswer(ctx context.Context, req *Request, resp *Response) {
	if e.store == nil || !resp.OK || resp.Answer == nil {
		return
	}
	err := e.store.Save(ctx, &archive.Record{
		Task:     string(req.Task),
		Query:    req.Query,
		Content:  resp.Answer,
		Grounded: resp.Grounded,
	})
	if err != nil {
		e.logger.Warn("archive save failed", "error", err)
		resp.Warnings = append(resp.Warnings, "answer could not be archived")
	}
}

func (e *Engine) fail(resp *Response, err error) *Response {
	e.logger.Error("request failed", "error", err, "code", errors.Code(err))
	resp.OK = false
	resp.Answer = nil
	resp.Grounded = false
	resp.Sources = nil
	resp.WebSources = nil
	resp.Error = errors.Code(err)
	return resp
}

// failErr reconstructs a span error from a failed response.
func failErr(resp *Response) error {
	if resp.OK || resp.Error == "" {
		return nil
	}
	return fmt.Errorf("request failed: %s", resp.Error)
}

func refIDs(refs []synthesize.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}
