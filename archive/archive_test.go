package archive

import (
	"context"
	"testing"

	"github.com/sweetpotato0/evoseek/content"
)

func TestMemorySaveStampsRecord(t *testing.T) {
	store := NewMemory()
	rec := &Record{
		Task:  "investor",
		Query: "summarise last race",
		Content: &content.Structured{
			Headline: "h",
			Sections: []content.Section{{Heading: "a", Body: "b"}},
		},
		Grounded: true,
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("id not assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}

	all := store.All()
	if len(all) != 1 || all[0].ID != rec.ID {
		t.Fatalf("All() = %+v", all)
	}
}

func TestMemoryPreservesCallerID(t *testing.T) {
	store := NewMemory()
	rec := &Record{ID: "fixed", Content: &content.Structured{}}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != "fixed" {
		t.Errorf("id = %q, want fixed", rec.ID)
	}
}
