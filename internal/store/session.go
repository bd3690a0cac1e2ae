package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivosy/aegis/internal/domain"
)

// SessionStore keeps exactly one active session row. Current creates it on
// first use; Reset closes the active row and starts a fresh one.
type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Current(ctx context.Context) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.QueryRow(ctx,
		`SELECT id, started_at, message_count, learning_count, security_alerts
		 FROM sessions WHERE active ORDER BY started_at DESC LIMIT 1`,
	).Scan(&sess.ID, &sess.StartedAt, &sess.MessageCount, &sess.LearningCount, &sess.SecurityAlerts)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return s.create(ctx)
}

func (s *SessionStore) create(ctx context.Context) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO sessions (active) VALUES (TRUE)
		 RETURNING id, started_at, message_count, learning_count, security_alerts`,
	).Scan(&sess.ID, &sess.StartedAt, &sess.MessageCount, &sess.LearningCount, &sess.SecurityAlerts)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) IncrementMessages(ctx context.Context, id uuid.UUID) error {
	return s.increment(ctx, id, `UPDATE sessions SET message_count = message_count + 1 WHERE id = $1`)
}

func (s *SessionStore) IncrementLearnings(ctx context.Context, id uuid.UUID, n int) error {
	if n <= 0 {
		return nil
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET learning_count = learning_count + $2 WHERE id = $1`, id, n)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) IncrementAlerts(ctx context.Context, id uuid.UUID, n int) error {
	if n <= 0 {
		return nil
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET security_alerts = security_alerts + $2 WHERE id = $1`, id, n)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) Reset(ctx context.Context) (*domain.Session, error) {
	if _, err := s.db.Exec(ctx, `UPDATE sessions SET active = FALSE WHERE active`); err != nil {
		return nil, err
	}
	return s.create(ctx)
}

func (s *SessionStore) increment(ctx context.Context, id uuid.UUID, query string) error {
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
