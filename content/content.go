// Package content defines the canonical structured output record and the
// text analysis helpers (word counts, readability bands, keywords) applied
// to it.
package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Section is one titled block of body text.
type Section struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// UnmarshalJSON accepts either the full section object or a bare string,
// which models sometimes emit; a bare string becomes an untitled body.
func (s *Section) UnmarshalJSON(data []byte) error {
	var body string
	if err := json.Unmarshal(data, &body); err == nil {
		*s = Section{Body: body}
		return nil
	}
	type plain Section
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Section(p)
	return nil
}

// Meta carries derived metadata recomputed from the section bodies.
type Meta struct {
	WordCount       int      `json:"word_count"`
	ReadabilityBand string   `json:"readability_band"`
	Keywords        []string `json:"keywords"`
}

// Structured is the canonical validated output record. It is the only
// entity that survives past the request boundary.
type Structured struct {
	Headline      string    `json:"headline"`
	Subheadline   string    `json:"subheadline"`
	Sections      []Section `json:"sections"`
	KeyPoints     []string  `json:"key_points"`
	Quote         string    `json:"quote"`
	QuoteBy       string    `json:"quote_by"`
	SocialCaption string    `json:"social_caption"`
	Meta          Meta      `json:"meta"`
}

// BodyText joins all section bodies into one block.
func (s *Structured) BodyText() string {
	parts := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Body != "" {
			parts = append(parts, sec.Body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FullText joins every textual field, used for tone scanning.
func (s *Structured) FullText() string {
	parts := []string{s.Headline, s.Subheadline, s.BodyText(), s.Quote, s.SocialCaption}
	parts = append(parts, s.KeyPoints...)
	return strings.Join(parts, "\n")
}

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"the and or a an to of in for on with at by from up about into over after " +
			"is it as be are was were this that those these can will just than then " +
			"but so if out not no we you our their they them he she his her its i me my") {
		stopwords[w] = struct{}{}
	}
}

// Tokenize lowercases text and splits it into word tokens.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// ReadabilityBand buckets a word count into very_short / good / long.
func ReadabilityBand(wordCount int) string {
	switch {
	case wordCount < 80:
		return "very_short"
	case wordCount < 220:
		return "good"
	default:
		return "long"
	}
}

// ExtractKeywords returns the most frequent non-stopword tokens longer than
// three characters. Ties break toward longer words, then lexicographically.
func ExtractKeywords(text string, limit int) []string {
	freq := make(map[string]int)
	for _, word := range Tokenize(text) {
		if len(word) <= 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		freq[word]++
	}
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		a, b := words[i], words[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words
}

// Analysis is the result of analyzing free text.
type Analysis struct {
	WordCount       int      `json:"word_count"`
	ReadabilityBand string   `json:"readability_band"`
	Keywords        []string `json:"keywords"`
}

// Analyze computes word count, readability band and keywords for raw text.
func Analyze(text string) Analysis {
	tokens := Tokenize(text)
	return Analysis{
		WordCount:       len(tokens),
		ReadabilityBand: ReadabilityBand(len(tokens)),
		Keywords:        ExtractKeywords(text, 10),
	}
}

// Normalize trims every string field, drops empty sections and key points,
// assigns sequential section IDs where missing, and recomputes Meta from
// the section bodies. It mutates and returns s.
func Normalize(s *Structured) *Structured {
	if s == nil {
		return nil
	}
	s.Headline = strings.TrimSpace(s.Headline)
	s.Subheadline = strings.TrimSpace(s.Subheadline)
	s.Quote = strings.TrimSpace(s.Quote)
	s.QuoteBy = strings.TrimSpace(s.QuoteBy)
	s.SocialCaption = strings.TrimSpace(s.SocialCaption)

	sections := s.Sections[:0]
	for _, sec := range s.Sections {
		sec.Heading = strings.TrimSpace(sec.Heading)
		sec.Body = strings.TrimSpace(sec.Body)
		if sec.Body == "" {
			continue
		}
		sections = append(sections, sec)
	}
	s.Sections = sections
	for i := range s.Sections {
		if strings.TrimSpace(s.Sections[i].ID) == "" {
			s.Sections[i].ID = sectionID(i)
		}
	}

	points := s.KeyPoints[:0]
	for _, kp := range s.KeyPoints {
		kp = strings.TrimSpace(kp)
		if kp == "" {
			continue
		}
		points = append(points, kp)
	}
	s.KeyPoints = points

	body := s.BodyText()
	tokens := Tokenize(body)
	s.Meta = Meta{
		WordCount:       len(tokens),
		ReadabilityBand: ReadabilityBand(len(tokens)),
		Keywords:        ExtractKeywords(body, 8),
	}
	return s
}

func sectionID(idx int) string {
	return fmt.Sprintf("sec-%d", idx+1)
}
