package task

import (
	"testing"

	"github.com/sweetpotato0/evoseek/completion"
)

func TestResolveKnownTasks(t *testing.T) {
	r := NewRouter()

	investor := r.Resolve(Investor)
	if investor.ModelTier != completion.TierCapable {
		t.Errorf("investor tier = %q, want capable", investor.ModelTier)
	}
	if !investor.DefaultGrounded {
		t.Error("investor should ground by default")
	}

	social := r.Resolve(Social)
	if social.ModelTier != completion.TierFast {
		t.Errorf("social tier = %q, want fast", social.ModelTier)
	}
	if !social.DefaultWeb {
		t.Error("social should default to web snippets")
	}
}

func TestResolveUnknownFallsBackToGeneral(t *testing.T) {
	r := NewRouter()
	got := r.Resolve(Task("definitely-not-a-task"))
	if got.Task != General {
		t.Fatalf("task = %q, want general fallback", got.Task)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewRouter()
	for _, task := range []Task{General, Investor, Social, ShortForm, Legal, Governance, StructuredRewrite} {
		first := r.Resolve(task)
		second := r.Resolve(task)
		if first != second {
			t.Errorf("Resolve(%q) drifted: %+v vs %+v", task, first, second)
		}
	}
}

func TestCustomProfileTable(t *testing.T) {
	r := NewRouterWithProfiles([]Profile{
		{Task: General, ModelTier: completion.TierCapable, Tone: "custom"},
	})
	got := r.Resolve(Investor)
	if got.Tone != "custom" {
		t.Fatalf("missing tasks must resolve to the supplied general profile, got %+v", got)
	}
}
