package guardrail

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/errors"
)

const validOutput = `{
  "headline": "Quiet week, steady progress",
  "subheadline": "Training milestones on track",
  "sections": [{"heading": "Track work", "body": "The colt completed three gallops. [S1]"}],
  "key_points": ["Three gallops completed"],
  "quote": "",
  "quote_by": "",
  "social_caption": "Steady progress this week."
}`

type stubLLM struct {
	replies []string
	calls   int
}

func (s *stubLLM) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	reply := "{}"
	if s.calls < len(s.replies) {
		reply = s.replies[s.calls]
	}
	s.calls++
	return &completion.Response{Text: reply, Model: "stub"}, nil
}

func (s *stubLLM) Ping(ctx context.Context) error { return nil }

func TestValidateAcceptsCleanOutput(t *testing.T) {
	llm := &stubLLM{}
	v := New(llm, nil)

	doc, report, err := v.Validate(context.Background(), Input{Raw: validOutput, RefIDs: []string{"S1"}, Grounded: true})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed {
		t.Fatal("report not passed")
	}
	if llm.calls != 0 {
		t.Errorf("repair spent on clean output (%d calls)", llm.calls)
	}
	if len(report.CitedRefs) != 1 || report.CitedRefs[0] != "S1" {
		t.Errorf("cited refs = %v, want [S1]", report.CitedRefs)
	}
	if doc.Meta.WordCount == 0 {
		t.Error("meta not recomputed")
	}
}

func TestValidateStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + validOutput + "\n```"
	doc, _, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: fenced, RefIDs: []string{"S1"}})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Headline != "Quiet week, steady progress" {
		t.Errorf("headline = %q", doc.Headline)
	}
}

func TestValidateParseFailureRepairsOnce(t *testing.T) {
	llm := &stubLLM{replies: []string{validOutput}}
	v := New(llm, nil)

	doc, report, err := v.Validate(context.Background(), Input{Raw: "sorry, I cannot do JSON", RefIDs: []string{"S1"}})
	if err != nil {
		t.Fatal(err)
	}
	if llm.calls != 1 {
		t.Fatalf("repair calls = %d, want 1", llm.calls)
	}
	if !report.Repaired {
		t.Error("report should record the repair")
	}
	if len(doc.Sections) == 0 {
		t.Error("repaired document missing sections")
	}
}

func TestValidateDoubleParseFailureIsTerminal(t *testing.T) {
	llm := &stubLLM{replies: []string{"still not json"}}
	v := New(llm, nil)

	_, _, err := v.Validate(context.Background(), Input{Raw: "not json either"})
	if !errors.Is(err, errors.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	if llm.calls != 1 {
		t.Fatalf("repair calls = %d, want exactly 1 (no second repair)", llm.calls)
	}
}

func TestValidateEmptySectionsRepairsThenFails(t *testing.T) {
	empty := `{"headline": "h", "sections": []}`
	llm := &stubLLM{replies: []string{empty}}
	v := New(llm, nil)

	_, report, err := v.Validate(context.Background(), Input{Raw: empty})
	if !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if llm.calls != 1 {
		t.Fatalf("repair calls = %d, want 1", llm.calls)
	}
	if len(report.Errors) == 0 {
		t.Error("report missing error findings")
	}
}

func TestValidateBannedTermIsWarningNotError(t *testing.T) {
	hyped := strings.Replace(validOutput, "Steady progress this week.", "This game-changing week was amazing.", 1)
	_, report, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: hyped, RefIDs: []string{"S1"}})
	if err != nil {
		t.Fatalf("banned term must not fail the request: %v", err)
	}
	var found bool
	for _, w := range report.Warnings {
		if w.Kind == KindBannedTerm {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want a banned-term finding", report.Warnings)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none", report.Errors)
	}
}

func TestValidateToneDriftFlagsRepeatedPunctuation(t *testing.T) {
	loud := strings.Replace(validOutput, "Steady progress this week.", "What a result!!!", 1)
	_, report, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: loud, RefIDs: []string{"S1"}})
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, w := range report.Warnings {
		if w.Kind == KindToneDrift {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want a tone-drift finding", report.Warnings)
	}
}

func TestValidateUnknownCitationStrippedAndFlagged(t *testing.T) {
	fabricated := strings.Replace(validOutput, "[S1]", "[S9]", 1)
	doc, report, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: fabricated, RefIDs: []string{"S1"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(doc.FullText(), "[S9]") {
		t.Error("unknown citation marker survived")
	}
	if len(report.CitedRefs) != 0 {
		t.Errorf("cited refs = %v, want none", report.CitedRefs)
	}
	var found bool
	for _, w := range report.Warnings {
		if w.Kind == KindMissingCitation {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want a missing-citation finding", report.Warnings)
	}
}

func TestValidateGroundedUncitedFactIsFlagged(t *testing.T) {
	uncited := strings.Replace(validOutput,
		`"body": "The colt completed three gallops. [S1]"`,
		`"body": "The colt ran 1200m in 69.8 seconds."`, 1)
	_, report, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: uncited, RefIDs: []string{"S1"}, Grounded: true})
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, w := range report.Warnings {
		if w.Kind == KindMissingCitation {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want a missing-citation finding for the uncited figure", report.Warnings)
	}
}

func TestValidateSectionAsBareString(t *testing.T) {
	loose := `{"headline": "h", "sections": ["just a paragraph of body text"]}`
	doc, _, err := New(&stubLLM{}, nil).Validate(context.Background(), Input{Raw: loose})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Body != "just a paragraph of body text" {
		t.Fatalf("sections = %+v", doc.Sections)
	}
}
