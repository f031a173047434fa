// Package synthesize builds the constrained generation prompt from the
// task profile, brand voice and retrieved context, and runs the main
// completion call.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sweetpotato0/evoseek/brand"
	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/content"
	"github.com/sweetpotato0/evoseek/message"
	"github.com/sweetpotato0/evoseek/pkg/logging"
	"github.com/sweetpotato0/evoseek/prompt"
	"github.com/sweetpotato0/evoseek/source"
	"github.com/sweetpotato0/evoseek/task"
)

const systemTemplate = `You write content for a thoroughbred racing and ownership company.
## Voice
{{.Voice}}

## Task
{{.Tone}}

## Output format
{{.Schema}}
`

const schemaDescription = `Return ONLY a JSON object with exactly these fields, no prose before or after:
{
  "headline": string,
  "subheadline": string,
  "sections": [{"heading": string, "body": string}],
  "key_points": [string],
  "quote": string,
  "quote_by": string,
  "social_caption": string
}
"sections" must contain at least one entry with a non-empty body.
When you state a fact taken from a numbered snippet, cite it inline in the
body text using the snippet's reference id in square brackets, e.g. [S1].
Never cite a reference id that was not provided. Do not invent facts,
results, odds, or quotes.`

var templates = prompt.NewManager()

func init() {
	if err := templates.RegisterString("synthesis.system", systemTemplate); err != nil {
		panic(err)
	}
}

// Ref binds a stable in-prompt reference id to the document it numbers.
type Ref struct {
	ID       string
	Document source.Document
}

// Answer is the raw synthesis output before guardrail validation.
type Answer struct {
	Raw   string
	Model string
	// Refs lists every snippet offered to the model, in prompt order.
	// Citation extraction resolves [S#] markers against this list.
	Refs []Ref
	// Sentinel marks the "insufficient information" outcome: grounding was
	// required but retrieval came back empty, so no completion ran.
	Sentinel bool
}

// Input carries one synthesis request.
type Input struct {
	Query     string
	Profile   task.Profile
	Documents []source.Document
	// Grounded means grounding was required for this request, which makes
	// an empty Documents slice a sentinel outcome instead of a free pass.
	Grounded bool
}

// Synthesizer owns the prompt assembly and the context token budget.
type Synthesizer struct {
	llm         completion.Client
	policy      *brand.Policy
	tokenBudget int
	maxTokens   int64
	temperature float64
	logger      *slog.Logger
}

// Option mutates synthesizer construction.
type Option func(*Synthesizer)

// WithTokenBudget caps the retrieved-context window in tokens.
func WithTokenBudget(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.tokenBudget = n
		}
	}
}

// WithMaxTokens caps the completion output length.
func WithMaxTokens(n int64) Option {
	return func(s *Synthesizer) { s.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *Synthesizer) { s.temperature = t }
}

// New builds a synthesizer over the completion client and brand policy.
// A nil policy uses the built-in defaults.
func New(llm completion.Client, policy *brand.Policy, opts ...Option) *Synthesizer {
	if policy == nil {
		policy = brand.Default()
	}
	s := &Synthesizer{
		llm:         llm,
		policy:      policy,
		tokenBudget: 3000,
		maxTokens:   2048,
		temperature: 0.4,
		logger:      logging.WithComponent("synthesizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize runs the main completion call at the profile's model tier.
// When grounding was required and no documents survived retrieval it does
// not call the model at all: it returns the sentinel answer so the caller
// never presents invented content as grounded.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (*Answer, error) {
	if in.Grounded && len(in.Documents) == 0 {
		s.logger.Info("grounding required but context is empty, returning sentinel")
		return &Answer{Sentinel: true}, nil
	}

	docs := s.fitBudget(in.Documents)
	refs := make([]Ref, len(docs))
	for i, d := range docs {
		refs[i] = Ref{ID: fmt.Sprintf("S%d", i+1), Document: d}
	}

	system, err := templates.Render("synthesis.system", map[string]interface{}{
		"Voice":  s.policy.VoiceText(),
		"Tone":   in.Profile.Tone,
		"Schema": schemaDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: render system prompt: %w", err)
	}

	user := prompt.NewBuilder()
	if len(refs) > 0 {
		ctxb := prompt.NewBuilder()
		for _, r := range refs {
			line := r.Document.Snippet
			if r.Document.Title != "" {
				line = r.Document.Title + ": " + line
			}
			ctxb.AddFormat("[%s] %s\n", r.ID, line)
		}
		user.AddSection("Context snippets", ctxb.Build())
		user.AddLine("Base every factual claim on the snippets above.")
	} else {
		user.AddLine("No source material is available. Write from general knowledge only and make no specific factual claims about results, figures, or dates.")
	}
	user.AddSection("Request", in.Query)

	resp, err := s.llm.Complete(ctx, &completion.Request{
		Tier:        in.Profile.ModelTier,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []*message.Message{
			message.System(system),
			message.User(user.Build()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	s.logger.Debug("synthesis complete", "model", resp.Model, "snippets", len(refs))
	return &Answer{Raw: resp.Text, Model: resp.Model, Refs: refs}, nil
}

// fitBudget drops whole snippets from the tail until the context fits the
// token budget. Snippets are never truncated mid-text.
func (s *Synthesizer) fitBudget(docs []source.Document) []source.Document {
	total := 0
	for i, d := range docs {
		total += countTokens(d.Title) + countTokens(d.Snippet)
		if total > s.tokenBudget {
			s.logger.Debug("context over token budget, dropping tail snippets",
				"kept", i, "dropped", len(docs)-i)
			return docs[:i]
		}
	}
	return docs
}

var (
	encOnce sync.Once
	encoder *tiktoken.Tiktoken
)

// countTokens measures text with the cl100k_base encoding, falling back to
// a bytes/4 estimate when the encoding cannot be loaded.
func countTokens(text string) int {
	encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logging.WithComponent("synthesizer").Warn("tiktoken encoding unavailable, using byte estimate", "error", err)
			return
		}
		encoder = enc
	})
	if encoder == nil {
		return len(text) / 4
	}
	return len(encoder.Encode(text, nil, nil))
}

// Sentinel returns the valid "insufficient information" record used when
// grounding was required but nothing was retrieved. It passes structural
// validation and is always tagged ungrounded by the caller.
func Sentinel(query string) *content.Structured {
	s := &content.Structured{
		Headline:    "Not enough information",
		Subheadline: "We could not find verified source material for this request.",
		Sections: []content.Section{{
			Heading: "What we know",
			Body: "There is not enough verified information to answer this request yet. " +
				"No source documents matched the query, and we do not publish unverified claims.",
		}},
		KeyPoints: []string{"No matching source material was found", "Try rephrasing or narrowing the request"},
	}
	if q := strings.TrimSpace(query); q != "" {
		s.SocialCaption = "We're still gathering the facts on this one."
	}
	return content.Normalize(s)
}
