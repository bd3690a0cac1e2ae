package domain

import (
	"context"

	"github.com/google/uuid"
)

// FactStore persists verified facts. Implementations must make each call
// atomic; callers serialize read-modify-write sequences (dedup then
// create-or-reinforce) above this interface.
type FactStore interface {
	Create(ctx context.Context, f *Fact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Fact, error)
	List(ctx context.Context) ([]Fact, error)
	ListRecent(ctx context.Context, limit int) ([]Fact, error)
	Recall(ctx context.Context, embedding []float32, topK int) ([]FactWithScore, error)
	UpdateReinforcement(ctx context.Context, id uuid.UUID, confidence float32, reinforcementCount int) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// QuarantineStore is append-only storage for claims that failed verification
// or are pending trust.
type QuarantineStore interface {
	Add(ctx context.Context, qc *QuarantinedClaim) error
	List(ctx context.Context, status QuarantineStatus) ([]QuarantinedClaim, error)
	CountPending(ctx context.Context) (int, error)
}

// AuditStore is the append-only command gating trail, capped at a bounded
// retention window (oldest entries pruned FIFO).
type AuditStore interface {
	Append(ctx context.Context, e *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
	TrimToLast(ctx context.Context, keep int) (int64, error)
}

// RecordStore persists one document per processed turn.
type RecordStore interface {
	Create(ctx context.Context, r *Record) error
	ListRecent(ctx context.Context, channel Channel, limit int) ([]Record, error)
}

// SessionStore owns the per-session counters.
type SessionStore interface {
	Current(ctx context.Context) (*Session, error)
	IncrementMessages(ctx context.Context, id uuid.UUID) error
	IncrementLearnings(ctx context.Context, id uuid.UUID, n int) error
	IncrementAlerts(ctx context.Context, id uuid.UUID, n int) error
	Reset(ctx context.Context) (*Session, error)
}

// LLMClient is the model transport collaborator. Complete fails with
// llm.UnavailableError on connection, timeout, or non-success status.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// EmbeddingClient converts text to a vector for fact recall.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
