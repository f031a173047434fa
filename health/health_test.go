package health

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/evoseek/archive"
	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/source"
)

type stubAdapter struct {
	kind       source.Kind
	configured bool
}

func (s stubAdapter) Kind() source.Kind { return s.kind }
func (s stubAdapter) Configured() bool  { return s.configured }
func (s stubAdapter) Search(ctx context.Context, query string, limit int) ([]source.Document, error) {
	return nil, nil
}

type stubLLM struct{ pingErr error }

func (s stubLLM) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	return &completion.Response{Text: "x"}, nil
}
func (s stubLLM) Ping(ctx context.Context) error { return s.pingErr }

func TestCheckReportsEachService(t *testing.T) {
	p := New(
		stubAdapter{kind: source.KindInternal, configured: true},
		stubAdapter{kind: source.KindWeb, configured: false},
		stubLLM{},
		archive.NewMemory(),
	)
	got := p.Check(context.Background())
	if !got.OK {
		t.Error("expected OK with reachable completion")
	}
	want := map[string]bool{"document_index": true, "web_search": false, "archive": true, "completion": true}
	for name, v := range want {
		if got.Services[name] != v {
			t.Errorf("services[%s] = %v, want %v", name, got.Services[name], v)
		}
	}
}

func TestCheckCompletionUnreachable(t *testing.T) {
	p := New(nil, nil, stubLLM{pingErr: errors.New("down")}, nil)
	got := p.Check(context.Background())
	if got.OK {
		t.Error("OK must be false when completion is unreachable")
	}
	if got.Services["document_index"] || got.Services["web_search"] || got.Services["archive"] {
		t.Errorf("nil dependencies must report unavailable: %v", got.Services)
	}
}
