package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kivosy/aegis/internal/domain"
)

type FactStore struct {
	db *pgxpool.Pool
}

func NewFactStore(db *pgxpool.Pool) *FactStore {
	return &FactStore{db: db}
}

func (s *FactStore) Create(ctx context.Context, f *domain.Fact) error {
	var embedding *pgvector.Vector
	if len(f.Embedding) > 0 {
		v := pgvector.NewVector(f.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO facts (type, content, embedding, confidence, source, reinforcement_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, learned_at, updated_at`,
		f.Type, f.Content, embedding, f.Confidence, f.Source, f.ReinforcementCount,
	).Scan(&f.ID, &f.LearnedAt, &f.UpdatedAt)
}

func (s *FactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	f := &domain.Fact{}
	err := s.db.QueryRow(ctx,
		`SELECT id, type, content, confidence, source, reinforcement_count, last_reinforced, learned_at, updated_at
		 FROM facts WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.Type, &f.Content, &f.Confidence, &f.Source, &f.ReinforcementCount, &f.LastReinforced, &f.LearnedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *FactStore) List(ctx context.Context) ([]domain.Fact, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, content, confidence, source, reinforcement_count, last_reinforced, learned_at, updated_at
		 FROM facts ORDER BY learned_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

func (s *FactStore) ListRecent(ctx context.Context, limit int) ([]domain.Fact, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, content, confidence, source, reinforcement_count, last_reinforced, learned_at, updated_at
		 FROM facts ORDER BY learned_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFacts(rows)
}

// Recall returns the facts most similar to the query embedding, most similar
// first. Facts without an embedding are excluded.
func (s *FactStore) Recall(ctx context.Context, embedding []float32, topK int) ([]domain.FactWithScore, error) {
	if topK <= 0 {
		topK = 10
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, type, content, confidence, source, reinforcement_count, last_reinforced, learned_at, updated_at,
		        1 - (embedding <=> $1) AS score
		 FROM facts
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("recall query: %w", err)
	}
	defer rows.Close()

	var results []domain.FactWithScore
	for rows.Next() {
		var fs domain.FactWithScore
		if err := rows.Scan(&fs.ID, &fs.Type, &fs.Content, &fs.Confidence, &fs.Source,
			&fs.ReinforcementCount, &fs.LastReinforced, &fs.LearnedAt, &fs.UpdatedAt, &fs.Score); err != nil {
			return nil, fmt.Errorf("scan recall row: %w", err)
		}
		results = append(results, fs)
	}
	return results, rows.Err()
}

// UpdateReinforcement atomically updates confidence, reinforcement_count, and
// last_reinforced.
func (s *FactStore) UpdateReinforcement(ctx context.Context, id uuid.UUID, confidence float32, reinforcementCount int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE facts SET confidence = $1, reinforcement_count = $2, last_reinforced = NOW(), updated_at = NOW() WHERE id = $3`,
		confidence, reinforcementCount, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FactStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM facts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FactStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM facts`).Scan(&count)
	return count, err
}

func scanFacts(rows pgx.Rows) ([]domain.Fact, error) {
	var facts []domain.Fact
	for rows.Next() {
		var f domain.Fact
		if err := rows.Scan(&f.ID, &f.Type, &f.Content, &f.Confidence, &f.Source,
			&f.ReinforcementCount, &f.LastReinforced, &f.LearnedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
