package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivosy/aegis/internal/domain"
)

type QuarantineStore struct {
	db *pgxpool.Pool
}

func NewQuarantineStore(db *pgxpool.Pool) *QuarantineStore {
	return &QuarantineStore{db: db}
}

func (s *QuarantineStore) Add(ctx context.Context, qc *domain.QuarantinedClaim) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO quarantined_claims (claim_text, claim_source, claim_type, claim_confidence, reason, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		qc.Claim.Text, qc.Claim.Source, qc.Claim.Type, qc.Claim.Confidence, qc.Reason, qc.Status,
	).Scan(&qc.ID, &qc.CreatedAt)
}

func (s *QuarantineStore) List(ctx context.Context, status domain.QuarantineStatus) ([]domain.QuarantinedClaim, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, claim_text, claim_source, claim_type, claim_confidence, reason, status, created_at
		 FROM quarantined_claims
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC`,
		string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []domain.QuarantinedClaim
	for rows.Next() {
		var qc domain.QuarantinedClaim
		if err := rows.Scan(&qc.ID, &qc.Claim.Text, &qc.Claim.Source, &qc.Claim.Type,
			&qc.Claim.Confidence, &qc.Reason, &qc.Status, &qc.CreatedAt); err != nil {
			return nil, err
		}
		claims = append(claims, qc)
	}
	return claims, rows.Err()
}

func (s *QuarantineStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quarantined_claims WHERE status = $1`,
		domain.QuarantinePending,
	).Scan(&count)
	return count, err
}
