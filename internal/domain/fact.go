package domain

import (
	"time"

	"github.com/google/uuid"
)

// Fact is a verified, persisted piece of learned knowledge. Facts are never
// deleted by the pipeline itself; removal is an administrative operation.
type Fact struct {
	ID                 uuid.UUID   `json:"id"`
	Type               ClaimType   `json:"type"`
	Content            string      `json:"content"`
	Embedding          []float32   `json:"-"`
	Confidence         float32     `json:"confidence"`
	Source             ClaimSource `json:"source"`
	ReinforcementCount int         `json:"reinforcement_count"`
	LastReinforced     *time.Time  `json:"last_reinforced,omitempty"`
	LearnedAt          time.Time   `json:"learned_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// FactWithScore pairs a fact with a similarity score from embedding recall.
type FactWithScore struct {
	Fact
	Score float32 `json:"score"`
}

// QuarantineStatus is the lifecycle state of a quarantined claim.
// Rejected is terminal; pending claims can only be promoted through the same
// verification path as any new claim, never by elapsed time.
type QuarantineStatus string

const (
	QuarantinePending  QuarantineStatus = "pending"
	QuarantineRejected QuarantineStatus = "rejected"
)

// QuarantinedClaim is a claim that failed verification or is of unverified
// external provenance, held outside the trusted fact store.
type QuarantinedClaim struct {
	ID        uuid.UUID        `json:"id"`
	Claim     Claim            `json:"claim"`
	Reason    string           `json:"reason"`
	Status    QuarantineStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
