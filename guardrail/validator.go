// Package guardrail parses raw model output into structured content and
// enforces the schema and brand policy on it, with a single bounded repair
// attempt before any terminal failure.
package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sweetpotato0/evoseek/brand"
	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/content"
	"github.com/sweetpotato0/evoseek/errors"
	"github.com/sweetpotato0/evoseek/message"
	"github.com/sweetpotato0/evoseek/pkg/logging"
	"github.com/sweetpotato0/evoseek/prompt"
)

const repairTemplate = `Your previous output violated the required format.
## Violations
{{range .Violations}}- {{.}}
{{end}}
## Previous output
{{.Previous}}

Return ONLY the corrected structured record as a JSON object, no prose, no markdown fences.`

var templates = prompt.NewManager()

func init() {
	if err := templates.RegisterString("guardrail.repair", repairTemplate); err != nil {
		panic(err)
	}
}

// Kind classifies a validation finding.
type Kind string

const (
	KindSchemaViolation Kind = "schema-violation"
	KindBannedTerm      Kind = "banned-term"
	KindToneDrift       Kind = "tone-drift"
	KindMissingCitation Kind = "missing-citation"
)

// Finding is one validation observation.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (f Finding) String() string { return fmt.Sprintf("%s: %s", f.Kind, f.Message) }

// Report is the validation outcome attached to every accepted answer.
// Errors block; warnings ride along on the response.
type Report struct {
	Passed   bool      `json:"passed"`
	Warnings []Finding `json:"warnings"`
	Errors   []Finding `json:"errors"`
	// Repaired is set when the single repair completion was spent.
	Repaired bool `json:"repaired"`
	// CitedRefs lists the reference ids the answer actually cites, in
	// first-use order. The assembler drops documents outside this set.
	CitedRefs []string `json:"cited_refs"`
}

// Input is one validation request.
type Input struct {
	// Raw is the unparsed model output.
	Raw string
	// RefIDs are the reference ids that were offered to the model.
	// Citations outside this set are stripped and flagged.
	RefIDs []string
	// Grounded marks that factual claims must carry citations.
	Grounded bool
	// Tier selects the model used for the repair call.
	Tier completion.ModelTier
}

// Validator runs the check-then-repair loop.
type Validator struct {
	llm    completion.Client
	policy *brand.Policy
	logger *slog.Logger
}

// New builds a validator. A nil policy uses the built-in defaults; a nil
// llm disables repair (the first terminal condition fails immediately).
func New(llm completion.Client, policy *brand.Policy) *Validator {
	if policy == nil {
		policy = brand.Default()
	}
	return &Validator{llm: llm, policy: policy, logger: logging.WithComponent("guardrail")}
}

// Validate parses and checks raw model output. The loop is strictly
// bounded: parse failure or a structural error spends the one repair call;
// a failure after that is terminal (ErrParse or ErrValidation). Tone and
// citation findings are warnings and never block.
func (v *Validator) Validate(ctx context.Context, in Input) (*content.Structured, *Report, error) {
	report := &Report{}

	doc, err := parse(in.Raw)
	if err != nil {
		v.logger.Warn("model output failed to parse, attempting repair", "error", err)
		repairedRaw, rerr := v.repair(ctx, in, []string{"the output was not a valid JSON object: " + err.Error()})
		if rerr != nil {
			return nil, nil, fmt.Errorf("guardrail: %w: repair call failed: %v", errors.ErrParse, rerr)
		}
		report.Repaired = true
		if doc, err = parse(repairedRaw); err != nil {
			return nil, nil, fmt.Errorf("guardrail: %w: output unparseable after repair: %v", errors.ErrParse, err)
		}
	}
	content.Normalize(doc)

	if structural := v.structuralCheck(doc); len(structural) > 0 {
		if report.Repaired {
			report.Errors = structural
			return nil, report, fmt.Errorf("guardrail: %w: %s", errors.ErrValidation, joinFindings(structural))
		}
		v.logger.Warn("structural check failed, attempting repair", "violations", len(structural))
		repairedRaw, rerr := v.repair(ctx, in, findingMessages(structural))
		if rerr != nil {
			report.Errors = structural
			return nil, report, fmt.Errorf("guardrail: %w: repair call failed: %v", errors.ErrValidation, rerr)
		}
		report.Repaired = true
		if doc, err = parse(repairedRaw); err != nil {
			return nil, report, fmt.Errorf("guardrail: %w: output unparseable after repair: %v", errors.ErrParse, err)
		}
		content.Normalize(doc)
		if structural = v.structuralCheck(doc); len(structural) > 0 {
			report.Errors = structural
			return nil, report, fmt.Errorf("guardrail: %w: %s", errors.ErrValidation, joinFindings(structural))
		}
	}

	report.Warnings = append(report.Warnings, v.scanRestrictedTerms(doc)...)
	report.Warnings = append(report.Warnings, v.scanTone(doc)...)
	cited, citationWarnings := v.checkCitations(doc, in.RefIDs, in.Grounded)
	report.Warnings = append(report.Warnings, citationWarnings...)
	report.CitedRefs = cited
	report.Passed = true
	return doc, report, nil
}

// repair issues the single bounded repair completion listing the specific
// violations alongside the offending output.
func (v *Validator) repair(ctx context.Context, in Input, violations []string) (string, error) {
	if v.llm == nil {
		return "", fmt.Errorf("no completion client for repair")
	}
	p, err := templates.Render("guardrail.repair", map[string]interface{}{
		"Violations": violations,
		"Previous":   in.Raw,
	})
	if err != nil {
		return "", fmt.Errorf("render repair prompt: %w", err)
	}

	tier := in.Tier
	if tier == "" {
		tier = completion.TierCapable
	}
	resp, err := v.llm.Complete(ctx, &completion.Request{
		Tier:     tier,
		Messages: []*message.Message{message.User(p)},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (v *Validator) structuralCheck(doc *content.Structured) []Finding {
	var out []Finding
	if strings.TrimSpace(doc.Headline) == "" {
		out = append(out, Finding{KindSchemaViolation, "headline is empty"})
	}
	if len(doc.Sections) == 0 {
		out = append(out, Finding{KindSchemaViolation, "sections is empty; at least one section with a non-empty body is required"})
	}
	if doc.Meta.WordCount == 0 && len(doc.Sections) > 0 {
		out = append(out, Finding{KindSchemaViolation, "section bodies contain no words"})
	}
	return out
}

// scanRestrictedTerms does a case-insensitive substring scan for banned and
// hype terms across every textual field.
func (v *Validator) scanRestrictedTerms(doc *content.Structured) []Finding {
	text := strings.ToLower(doc.FullText())
	var out []Finding
	for _, term := range v.policy.AllRestricted() {
		if strings.Contains(text, strings.ToLower(term)) {
			out = append(out, Finding{KindBannedTerm, fmt.Sprintf("restricted term %q found in output", term)})
		}
	}
	return out
}

var (
	repeatedPunct  = regexp.MustCompile(`[!?]{2,}|\.{4,}`)
	shoutingWord   = regexp.MustCompile(`\b[A-Z]{4,}\b`)
	markdownEmph   = regexp.MustCompile(`\*{2,}|_{2,}`)
	citationMarker = regexp.MustCompile(`\[(S\d+)\]`)
	numericClaim   = regexp.MustCompile(`\d`)
)

// scanTone flags repeated punctuation and emphasis patterns that break the
// understated voice.
func (v *Validator) scanTone(doc *content.Structured) []Finding {
	text := doc.FullText()
	var out []Finding
	if m := repeatedPunct.FindString(text); m != "" {
		out = append(out, Finding{KindToneDrift, fmt.Sprintf("repeated punctuation %q", m)})
	}
	if m := shoutingWord.FindString(text); m != "" {
		out = append(out, Finding{KindToneDrift, fmt.Sprintf("all-caps emphasis %q", m)})
	}
	if markdownEmph.MatchString(text) {
		out = append(out, Finding{KindToneDrift, "markdown emphasis markers in output"})
	}
	if strings.Count(text, "!") > 1 {
		out = append(out, Finding{KindToneDrift, "multiple exclamation marks"})
	}
	return out
}

// checkCitations resolves [S#] markers against the offered reference ids.
// Markers for unknown ids are stripped from the record and flagged; when
// grounding was required, factual sentences without any citation are
// flagged too. Returns the valid cited ids in first-use order.
func (v *Validator) checkCitations(doc *content.Structured, refIDs []string, grounded bool) ([]string, []Finding) {
	valid := make(map[string]struct{}, len(refIDs))
	for _, id := range refIDs {
		valid[id] = struct{}{}
	}

	var findings []Finding
	var cited []string
	seen := make(map[string]struct{})
	unknown := make(map[string]struct{})

	for _, m := range citationMarker.FindAllStringSubmatch(doc.FullText(), -1) {
		id := m[1]
		if _, ok := valid[id]; !ok {
			unknown[id] = struct{}{}
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			cited = append(cited, id)
		}
	}

	for id := range unknown {
		stripMarker(doc, id)
		findings = append(findings, Finding{KindMissingCitation,
			fmt.Sprintf("citation [%s] does not match any retrieved snippet; marker removed", id)})
	}

	if grounded {
		for _, sentence := range splitSentences(doc.BodyText()) {
			if numericClaim.MatchString(sentence) && !citationMarker.MatchString(sentence) {
				findings = append(findings, Finding{KindMissingCitation,
					fmt.Sprintf("factual claim without citation: %q", truncate(sentence, 80))})
			}
		}
	}
	return cited, findings
}

func stripMarker(doc *content.Structured, id string) {
	marker := "[" + id + "]"
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, " "+marker, ""), marker, ""))
	}
	doc.Headline = clean(doc.Headline)
	doc.Subheadline = clean(doc.Subheadline)
	doc.Quote = clean(doc.Quote)
	doc.SocialCaption = clean(doc.SocialCaption)
	for i := range doc.Sections {
		doc.Sections[i].Body = clean(doc.Sections[i].Body)
	}
	for i := range doc.KeyPoints {
		doc.KeyPoints[i] = clean(doc.KeyPoints[i])
	}
}

var sentenceEnd = regexp.MustCompile(`[.!?\n]+`)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceEnd.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parse extracts the JSON object from raw model output, tolerating
// markdown fences and surrounding prose.
func parse(raw string) (*content.Structured, error) {
	cleaned := sanitizeJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object in output")
	}
	var doc content.Structured
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal structured content: %w", err)
	}
	return &doc, nil
}

// sanitizeJSON strips markdown code fences and trims to the outermost
// object braces.
func sanitizeJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func findingMessages(fs []Finding) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Message
	}
	return out
}

func joinFindings(fs []Finding) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}
