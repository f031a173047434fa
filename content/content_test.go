package content

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReadabilityBands(t *testing.T) {
	cases := []struct {
		words int
		want  string
	}{
		{0, "very_short"},
		{79, "very_short"},
		{80, "good"},
		{219, "good"},
		{220, "long"},
		{1000, "long"},
	}
	for _, c := range cases {
		if got := ReadabilityBand(c.words); got != c.want {
			t.Errorf("ReadabilityBand(%d) = %q, want %q", c.words, got, c.want)
		}
	}
}

func TestExtractKeywordsOrdering(t *testing.T) {
	text := "Randwick gallops gallops gallops trackwork trackwork yearling"
	got := ExtractKeywords(text, 3)
	want := []string{"gallops", "trackwork", "randwick"}
	if len(got) != len(want) {
		t.Fatalf("keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keywords = %v, want %v", got, want)
		}
	}
}

func TestExtractKeywordsSkipsStopwordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("the and for with colt colt", 10)
	if len(got) != 1 || got[0] != "colt" {
		t.Fatalf("keywords = %v, want [colt]", got)
	}
}

func TestNormalizeDropsEmptyAndAssignsIDs(t *testing.T) {
	s := &Structured{
		Headline: "  Headline  ",
		Sections: []Section{
			{Heading: "Keep", Body: "  some body text here  "},
			{Heading: "Drop", Body: "   "},
		},
		KeyPoints: []string{" point ", ""},
	}
	Normalize(s)

	if s.Headline != "Headline" {
		t.Errorf("headline = %q", s.Headline)
	}
	if len(s.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(s.Sections))
	}
	if s.Sections[0].ID != "sec-1" {
		t.Errorf("section id = %q, want sec-1", s.Sections[0].ID)
	}
	if len(s.KeyPoints) != 1 || s.KeyPoints[0] != "point" {
		t.Errorf("key points = %v", s.KeyPoints)
	}
	if s.Meta.WordCount != 4 {
		t.Errorf("word count = %d, want 4", s.Meta.WordCount)
	}
	if s.Meta.ReadabilityBand != "very_short" {
		t.Errorf("band = %q", s.Meta.ReadabilityBand)
	}
}

func TestSectionUnmarshalAcceptsBareString(t *testing.T) {
	var s Structured
	raw := `{"headline":"h","sections":["plain body", {"heading":"t","body":"b"}]}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatal(err)
	}
	if len(s.Sections) != 2 {
		t.Fatalf("sections = %d", len(s.Sections))
	}
	if s.Sections[0].Body != "plain body" || s.Sections[1].Heading != "t" {
		t.Errorf("sections = %+v", s.Sections)
	}
}

func TestAnalyze(t *testing.T) {
	text := strings.Repeat("steady trackwork progress ", 30)
	got := Analyze(text)
	if got.WordCount != 90 {
		t.Errorf("word count = %d, want 90", got.WordCount)
	}
	if got.ReadabilityBand != "good" {
		t.Errorf("band = %q, want good", got.ReadabilityBand)
	}
	if len(got.Keywords) == 0 {
		t.Error("no keywords extracted")
	}
}

func TestFullTextIncludesEveryField(t *testing.T) {
	s := &Structured{
		Headline:      "head",
		Subheadline:   "sub",
		Sections:      []Section{{Body: "body"}},
		KeyPoints:     []string{"kp"},
		Quote:         "quote",
		SocialCaption: "caption",
	}
	full := s.FullText()
	for _, want := range []string{"head", "sub", "body", "kp", "quote", "caption"} {
		if !strings.Contains(full, want) {
			t.Errorf("FullText missing %q", want)
		}
	}
}
