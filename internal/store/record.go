package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kivosy/aegis/internal/domain"
)

type RecordStore struct {
	db *pgxpool.Pool
}

func NewRecordStore(db *pgxpool.Pool) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Create(ctx context.Context, r *domain.Record) error {
	security, err := json.Marshal(r.Security)
	if err != nil {
		return fmt.Errorf("marshal security metadata: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO records (channel, content, response, status, security, learned)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		r.Channel, r.Content, r.Response, r.Status, security, r.Learned,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *RecordStore) ListRecent(ctx context.Context, channel domain.Channel, limit int) ([]domain.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, channel, content, response, status, security, learned, created_at
		 FROM records
		 WHERE ($1 = '' OR channel = $1)
		 ORDER BY created_at DESC LIMIT $2`,
		string(channel), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var r domain.Record
		var security []byte
		if err := rows.Scan(&r.ID, &r.Channel, &r.Content, &r.Response, &r.Status, &security, &r.Learned, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(security) > 0 {
			if err := json.Unmarshal(security, &r.Security); err != nil {
				return nil, fmt.Errorf("unmarshal security metadata: %w", err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
