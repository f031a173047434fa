// Package health reports per-dependency availability for startup and
// operational diagnostics. It never touches the request pipeline.
package health

import (
	"context"
	"time"

	"github.com/sweetpotato0/evoseek/archive"
	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/source"
)

// Status is the capability snapshot returned by the probe.
type Status struct {
	OK       bool            `json:"ok"`
	Services map[string]bool `json:"services"`
}

// Probe checks each wired dependency. Nil dependencies simply report
// unavailable.
type Probe struct {
	index      source.Adapter
	web        source.Adapter
	completion completion.Client
	store      archive.Store
	timeout    time.Duration
}

// New builds a probe over the engine's dependencies; any may be nil.
func New(index, web source.Adapter, llm completion.Client, store archive.Store) *Probe {
	return &Probe{index: index, web: web, completion: llm, store: store, timeout: 5 * time.Second}
}

// Check reports which services can currently serve. Adapter checks are
// configuration-only; the completion check performs a cheap live ping.
// OK means the pipeline can produce some answer, which requires only the
// completion service.
func (p *Probe) Check(ctx context.Context) Status {
	services := map[string]bool{
		"document_index": p.index != nil && p.index.Configured(),
		"web_search":     p.web != nil && p.web.Configured(),
		"archive":        p.store != nil && p.store.Configured(),
	}

	reachable := false
	if p.completion != nil {
		pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
		reachable = p.completion.Ping(pingCtx) == nil
		cancel()
	}
	services["completion"] = reachable

	return Status{OK: reachable, Services: services}
}
