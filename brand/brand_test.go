package brand

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()
	if p.Voice.Style == "" {
		t.Error("default voice style empty")
	}
	if len(p.BannedTerms) == 0 || len(p.HypeTerms) == 0 {
		t.Error("default restriction lists empty")
	}
}

func TestLoadMissingDirUsesDefaults(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Voice.Style != Default().Voice.Style {
		t.Errorf("voice = %q", p.Voice.Style)
	}
}

func TestLoadMissingFilesAreNotErrors(t *testing.T) {
	if _, err := Load(t.TempDir()); err != nil {
		t.Fatal(err)
	}
}

func TestLoadLayersWordLists(t *testing.T) {
	dir := t.TempDir()
	words := `{"banned_words": ["moonshot"], "hype_words": ["legendary"]}`
	if err := os.WriteFile(filepath.Join(dir, "banned_words.json"), []byte(words), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.BannedTerms) != 1 || p.BannedTerms[0] != "moonshot" {
		t.Errorf("banned = %v", p.BannedTerms)
	}
	if len(p.HypeTerms) != 1 || p.HypeTerms[0] != "legendary" {
		t.Errorf("hype = %v", p.HypeTerms)
	}
	// Fields the file does not carry keep their defaults.
	if p.Voice.Style != Default().Voice.Style {
		t.Errorf("voice = %q", p.Voice.Style)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "brand_rules.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed rules file")
	}
}

func TestVoiceTextCapsBannedList(t *testing.T) {
	p := Default()
	for i := 0; i < 30; i++ {
		p.BannedTerms = append(p.BannedTerms, "filler")
	}
	text := p.VoiceText()
	if !strings.Contains(text, p.Voice.Style) {
		t.Error("voice text missing style")
	}
	if strings.Count(text, ",") > 40 {
		t.Error("banned list not capped in prompt text")
	}
}
