// Package archive persists accepted structured content. Persistence is a
// best-effort side channel: a failed save becomes a response warning,
// never a request failure.
package archive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweetpotato0/evoseek/content"
)

// Record is one archived answer.
type Record struct {
	ID        string              `json:"id" bson:"_id"`
	Task      string              `json:"task" bson:"task"`
	Query     string              `json:"query" bson:"query"`
	Content   *content.Structured `json:"content" bson:"content"`
	Grounded  bool                `json:"grounded" bson:"grounded"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}

// Store is implemented by the persistence backends.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	// Configured reports whether the store can accept writes; used by the
	// health probe.
	Configured() bool
}

// stamp fills the generated fields on first save.
func stamp(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// Memory is the in-process store used in tests and single-node setups.
type Memory struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Configured() bool { return true }

func (m *Memory) Save(ctx context.Context, rec *Record) error {
	stamp(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// All returns a snapshot of the archived records in insertion order.
func (m *Memory) All() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, len(m.records))
	copy(out, m.records)
	return out
}
