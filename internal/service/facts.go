package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/security"
)

var (
	ErrClaimEmpty       = errors.New("claim text is required")
	ErrInvalidClaimType = errors.New("invalid claim type")
)

// DuplicateThreshold is the Jaccard similarity at or above which a claim is
// treated as a restatement of an existing fact.
const DuplicateThreshold = 0.75

// LearnOutcome summarizes one batch of claims pushed through verification
// and deduplication.
type LearnOutcome struct {
	Stored      int `json:"stored"`
	Reinforced  int `json:"reinforced"`
	Quarantined int `json:"quarantined"`
	Discarded   int `json:"discarded"`
}

// FactService is the single writer for the fact store. All claim batches pass
// through truth verification, then dedup against the current fact set. The
// mutex serializes the read-compare-write sequence so concurrent turns cannot
// race duplicate inserts past each other.
type FactService struct {
	factStore       domain.FactStore
	quarantineStore domain.QuarantineStore
	truths          *security.TruthTable
	embeddingClient domain.EmbeddingClient
	logger          *zap.Logger

	mu sync.Mutex
}

func NewFactService(fs domain.FactStore, qs domain.QuarantineStore, tt *security.TruthTable, ec domain.EmbeddingClient, logger *zap.Logger) *FactService {
	return &FactService{
		factStore:       fs,
		quarantineStore: qs,
		truths:          tt,
		embeddingClient: ec,
		logger:          logger,
	}
}

// Learn verifies, deduplicates, and persists a batch of extracted claims.
// Claims contradicting a core truth go to quarantine as rejected. A claim
// similar to an existing fact reinforces it when its confidence is at least
// the stored confidence, and is discarded otherwise. Novel claims become new
// facts.
func (s *FactService) Learn(ctx context.Context, claims []domain.Claim) (*LearnOutcome, error) {
	outcome := &LearnOutcome{}
	if len(claims) == 0 {
		return outcome, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.factStore.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, claim := range claims {
		if claim.Text == "" {
			continue
		}

		if valid, correction := s.truths.VerifyClaim(claim.Text); !valid {
			if err := s.quarantineStore.Add(ctx, &domain.QuarantinedClaim{
				Claim:  claim,
				Reason: correction,
				Status: domain.QuarantineRejected,
			}); err != nil {
				return nil, err
			}
			outcome.Quarantined++
			s.logger.Warn("claim contradicts core truth, quarantined",
				zap.String("claim", truncate(claim.Text, 80)),
				zap.String("correction", correction))
			continue
		}

		if dup := findDuplicate(existing, claim.Text); dup != nil {
			if claim.Confidence >= dup.Confidence {
				newConf := claim.Confidence
				if dup.Confidence > newConf {
					newConf = dup.Confidence
				}
				if err := s.factStore.UpdateReinforcement(ctx, dup.ID, newConf, dup.ReinforcementCount+1); err != nil {
					return nil, err
				}
				dup.Confidence = newConf
				dup.ReinforcementCount++
				outcome.Reinforced++
				s.logger.Info("fact reinforced",
					zap.String("fact_id", dup.ID.String()),
					zap.Float32("confidence", newConf),
					zap.Int("reinforcement_count", dup.ReinforcementCount))
			} else {
				outcome.Discarded++
			}
			continue
		}

		fact := &domain.Fact{
			Type:       claim.Type,
			Content:    claim.Text,
			Confidence: claim.Confidence,
			Source:     claim.Source,
		}
		if s.embeddingClient != nil {
			vec, err := s.embeddingClient.Embed(ctx, claim.Text)
			if err != nil {
				s.logger.Warn("embedding failed, storing fact without vector", zap.Error(err))
			} else {
				fact.Embedding = vec
			}
		}
		if err := s.factStore.Create(ctx, fact); err != nil {
			return nil, err
		}
		existing = append(existing, *fact)
		outcome.Stored++
		s.logger.Info("new fact learned",
			zap.String("fact_id", fact.ID.String()),
			zap.String("type", string(fact.Type)),
			zap.Float32("confidence", fact.Confidence))
	}

	return outcome, nil
}

// QuarantineExternal records an externally sourced claim as pending. Pending
// claims never auto-promote; they re-enter through Learn like any other claim.
func (s *FactService) QuarantineExternal(ctx context.Context, claim domain.Claim, reason string) error {
	return s.quarantineStore.Add(ctx, &domain.QuarantinedClaim{
		Claim:  claim,
		Reason: reason,
		Status: domain.QuarantinePending,
	})
}

func findDuplicate(facts []domain.Fact, text string) *domain.Fact {
	for i := range facts {
		if JaccardSimilarity(text, facts[i].Content) >= DuplicateThreshold {
			return &facts[i]
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
