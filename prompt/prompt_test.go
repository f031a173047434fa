package prompt

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := NewTemplate("greeting", "Hello {{.Name}}, welcome to {{.Place}}.")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tmpl.Render(map[string]interface{}{"Name": "rider", "Place": "Randwick"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello rider, welcome to Randwick." {
		t.Errorf("rendered = %q", got)
	}
}

func TestNewTemplateRejectsBadSyntax(t *testing.T) {
	if _, err := NewTemplate("bad", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestManagerRegisterAndRender(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("summary", "Summarise: {{.Topic}}"); err != nil {
		t.Fatal(err)
	}
	got, err := m.Render("summary", map[string]interface{}{"Topic": "trackwork"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Summarise: trackwork" {
		t.Errorf("rendered = %q", got)
	}
}

func TestManagerRejectsDuplicateRegistration(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("once", "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterString("once", "b"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestManagerRenderUnknownTemplate(t *testing.T) {
	if _, err := NewManager().Render("missing", nil); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestBuilderSections(t *testing.T) {
	got := NewBuilder().
		AddLine("intro").
		AddSection("Context", "snippets here").
		AddFormat("[%s] %s\n", "S1", "first").
		Build()

	for _, want := range []string{"intro\n", "## Context\nsnippets here\n", "[S1] first\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("built prompt missing %q:\n%s", want, got)
		}
	}
}
