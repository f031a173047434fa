// Package task classifies incoming requests into task categories and
// resolves each category to its routing profile.
package task

import "github.com/sweetpotato0/evoseek/completion"

// Task is a request's content category.
type Task string

const (
	General           Task = "general"
	Investor          Task = "investor"
	Social            Task = "social"
	ShortForm         Task = "short-form"
	Legal             Task = "legal"
	Governance        Task = "governance"
	StructuredRewrite Task = "structured-rewrite"
)

// Profile is the resolved routing policy for a task category.
type Profile struct {
	Task            Task
	ModelTier       completion.ModelTier
	Tone            string // prompt conditioning text for this category
	DefaultGrounded bool
	DefaultWeb      bool
}

// Router resolves tasks against an immutable profile table built once at
// construction. Resolve is a pure lookup; unknown tasks fall back to the
// general profile so classification never blocks the pipeline.
type Router struct {
	profiles map[Task]Profile
	fallback Profile
}

// NewRouter builds a router over the default profile table.
func NewRouter() *Router {
	return NewRouterWithProfiles(DefaultProfiles())
}

// NewRouterWithProfiles builds a router over a caller-supplied table. The
// table must include a General entry; it becomes the fallback.
func NewRouterWithProfiles(profiles []Profile) *Router {
	table := make(map[Task]Profile, len(profiles))
	fallback := Profile{
		Task:      General,
		ModelTier: completion.TierFast,
		Tone:      "Provide a clear, factual answer.",
	}
	for _, p := range profiles {
		table[p.Task] = p
		if p.Task == General {
			fallback = p
		}
	}
	return &Router{profiles: table, fallback: fallback}
}

// Resolve maps a task to its profile. Unknown values resolve to the general
// profile rather than failing.
func (r *Router) Resolve(t Task) Profile {
	if p, ok := r.profiles[t]; ok {
		return p
	}
	return r.fallback
}

// DefaultProfiles returns the static task table. Investor, legal and
// governance requests route to the capable tier and ground by default;
// race-facing short-form content leans on web snippets instead.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Task:      General,
			ModelTier: completion.TierFast,
			Tone:      "Provide a clear, factual answer.",
		},
		{
			Task:            Investor,
			ModelTier:       completion.TierCapable,
			Tone:            "Write an investor update in an understated, confident, direct tone.",
			DefaultGrounded: true,
		},
		{
			Task:       Social,
			ModelTier:  completion.TierFast,
			Tone:       "Write a concise, understated social post.",
			DefaultWeb: true,
		},
		{
			Task:       ShortForm,
			ModelTier:  completion.TierFast,
			Tone:       "Write a short, punchy script for a faceless vertical video.",
			DefaultWeb: true,
		},
		{
			Task:            Legal,
			ModelTier:       completion.TierCapable,
			Tone:            "Summarise with precision and preserve legal meaning.",
			DefaultGrounded: true,
		},
		{
			Task:            Governance,
			ModelTier:       completion.TierCapable,
			Tone:            "Report on governance matters plainly, citing the underlying documents.",
			DefaultGrounded: true,
		},
		{
			Task:      StructuredRewrite,
			ModelTier: completion.TierCapable,
			Tone:      "Rewrite the supplied raw update into polished structured content without adding facts.",
		},
	}
}
