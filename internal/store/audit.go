package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivosy/aegis/internal/domain"
)

type AuditStore struct {
	db *pgxpool.Pool
	// maxEntries caps the trail on every append; 0 disables the inline trim
	// and leaves pruning entirely to the background retention pass.
	maxEntries int
}

func NewAuditStore(db *pgxpool.Pool, maxEntries int) *AuditStore {
	return &AuditStore{db: db, maxEntries: maxEntries}
}

func (s *AuditStore) Append(ctx context.Context, e *domain.AuditEntry) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO audit_entries (command_type, command_args, status, reason)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.CommandType, e.CommandArgs, e.Status, e.Reason,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return err
	}

	// The entry is durable at this point. A failed trim must not surface as
	// an append failure, or the gate would refuse commands it already logged;
	// the background retention pass retries the trim anyway.
	if s.maxEntries > 0 {
		_, _ = s.TrimToLast(ctx, s.maxEntries)
	}
	return nil
}

func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, command_type, command_args, status, reason, created_at
		 FROM audit_entries ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.CommandType, &e.CommandArgs, &e.Status, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TrimToLast deletes the oldest entries so that at most keep rows remain.
// Returns the number of rows removed.
func (s *AuditStore) TrimToLast(ctx context.Context, keep int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM audit_entries
		 WHERE id NOT IN (SELECT id FROM audit_entries ORDER BY id DESC LIMIT $1)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
