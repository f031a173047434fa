// Package brand loads the brand voice rules and banned-term lists consumed
// by the synthesizer and the guardrail. The rules are static data owned by
// an external config directory; this package only reads them and falls back
// to the built-in defaults when no files are present.
package brand

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Policy bundles the voice profile and content restrictions applied to all
// generated output. Read-only after Load; safe for concurrent use.
type Policy struct {
	Voice          Voice    `json:"voice"`
	BannedTerms    []string `json:"banned_words"`
	HypeTerms      []string `json:"hype_words"`
	AvoidPatterns  []string `json:"avoid_patterns"`
	PreferPatterns []string `json:"prefer_patterns"`
}

// Voice describes the brand voice used to condition prompts.
type Voice struct {
	Style       string   `json:"style"`
	Description string   `json:"description"`
	Principles  []string `json:"principles"`
}

// Default returns the built-in policy used when no config directory is
// provided. The voice mirrors the published brand guidance: understated
// authority, no hype.
func Default() *Policy {
	return &Policy{
		Voice: Voice{
			Style:       "Understated Authority",
			Description: "Speak from an established leadership position. Inform without arrogance; never invent results, odds, or quotes.",
			Principles:  []string{"clear and direct", "confident but calm", "human and relatable", "visionary but grounded"},
		},
		BannedTerms: []string{
			"revolutionising", "revolutionizing", "cutting-edge", "democratising",
			"democratizing", "game-changing", "disruptive", "synergy",
		},
		HypeTerms: []string{
			"amazing", "incredible", "unbelievable", "mind-blowing", "epic",
			"next-level", "world-class", "best-in-class",
		},
		AvoidPatterns:  []string{"exclamation marks", "emojis", "rhetorical questions"},
		PreferPatterns: []string{"short declarative sentences", "concrete numbers with sources"},
	}
}

// Load reads brand_rules.json and banned_words.json from dir, layering them
// over the defaults. Missing files are not errors; malformed files are.
func Load(dir string) (*Policy, error) {
	p := Default()
	if dir == "" {
		return p, nil
	}

	if err := readInto(filepath.Join(dir, "brand_rules.json"), p); err != nil {
		return nil, err
	}
	var words struct {
		BannedWords []string `json:"banned_words"`
		HypeWords   []string `json:"hype_words"`
	}
	if err := readInto(filepath.Join(dir, "banned_words.json"), &words); err != nil {
		return nil, err
	}
	if len(words.BannedWords) > 0 {
		p.BannedTerms = words.BannedWords
	}
	if len(words.HypeWords) > 0 {
		p.HypeTerms = words.HypeWords
	}
	return p, nil
}

func readInto(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("brand: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("brand: parse %s: %w", path, err)
	}
	return nil
}

// VoiceText renders the voice profile as prompt conditioning text.
func (p *Policy) VoiceText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand voice: %s.\n", p.Voice.Style)
	if len(p.Voice.Principles) > 0 {
		fmt.Fprintf(&b, "Principles: %s.\n", strings.Join(p.Voice.Principles, "; "))
	}
	if p.Voice.Description != "" {
		b.WriteString(p.Voice.Description)
		b.WriteString("\n")
	}
	if len(p.AvoidPatterns) > 0 {
		fmt.Fprintf(&b, "Avoid: %s.\n", strings.Join(p.AvoidPatterns, "; "))
	}
	if len(p.PreferPatterns) > 0 {
		fmt.Fprintf(&b, "Prefer: %s.\n", strings.Join(p.PreferPatterns, "; "))
	}
	if banned := p.AllRestricted(); len(banned) > 0 {
		limit := len(banned)
		if limit > 15 {
			limit = 15
		}
		fmt.Fprintf(&b, "Banned words (never use): %s.", strings.Join(banned[:limit], ", "))
	}
	return strings.TrimSpace(b.String())
}

// AllRestricted returns the banned and hype terms as one list.
func (p *Policy) AllRestricted() []string {
	out := make([]string, 0, len(p.BannedTerms)+len(p.HypeTerms))
	out = append(out, p.BannedTerms...)
	out = append(out, p.HypeTerms...)
	return out
}
