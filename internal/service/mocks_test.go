package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kivosy/aegis/internal/domain"
)

// mockFactStore implements domain.FactStore for testing.
type mockFactStore struct {
	facts     map[uuid.UUID]*domain.Fact
	order     []uuid.UUID
	createErr error
}

func newMockFactStore() *mockFactStore {
	return &mockFactStore{facts: make(map[uuid.UUID]*domain.Fact)}
}

func (m *mockFactStore) Create(ctx context.Context, f *domain.Fact) error {
	if m.createErr != nil {
		return m.createErr
	}
	f.ID = uuid.New()
	f.LearnedAt = time.Now()
	f.UpdatedAt = f.LearnedAt
	cp := *f
	m.facts[f.ID] = &cp
	m.order = append(m.order, f.ID)
	return nil
}

func (m *mockFactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	f, ok := m.facts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *f
	return &cp, nil
}

func (m *mockFactStore) List(ctx context.Context) ([]domain.Fact, error) {
	out := make([]domain.Fact, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.facts[id])
	}
	return out, nil
}

func (m *mockFactStore) ListRecent(ctx context.Context, limit int) ([]domain.Fact, error) {
	all, _ := m.List(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].LearnedAt.After(all[j].LearnedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockFactStore) Recall(ctx context.Context, embedding []float32, topK int) ([]domain.FactWithScore, error) {
	var out []domain.FactWithScore
	for _, id := range m.order {
		f := m.facts[id]
		if len(f.Embedding) == 0 {
			continue
		}
		out = append(out, domain.FactWithScore{Fact: *f, Score: 0.9})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (m *mockFactStore) UpdateReinforcement(ctx context.Context, id uuid.UUID, confidence float32, reinforcementCount int) error {
	f, ok := m.facts[id]
	if !ok {
		return errors.New("not found")
	}
	now := time.Now()
	f.Confidence = confidence
	f.ReinforcementCount = reinforcementCount
	f.LastReinforced = &now
	f.UpdatedAt = now
	return nil
}

func (m *mockFactStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.facts[id]; !ok {
		return errors.New("not found")
	}
	delete(m.facts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockFactStore) Count(ctx context.Context) (int, error) {
	return len(m.facts), nil
}

// mockQuarantineStore implements domain.QuarantineStore for testing.
type mockQuarantineStore struct {
	claims []domain.QuarantinedClaim
	addErr error
}

func (m *mockQuarantineStore) Add(ctx context.Context, qc *domain.QuarantinedClaim) error {
	if m.addErr != nil {
		return m.addErr
	}
	qc.ID = uuid.New()
	qc.CreatedAt = time.Now()
	m.claims = append(m.claims, *qc)
	return nil
}

func (m *mockQuarantineStore) List(ctx context.Context, status domain.QuarantineStatus) ([]domain.QuarantinedClaim, error) {
	if status == "" {
		return append([]domain.QuarantinedClaim(nil), m.claims...), nil
	}
	var out []domain.QuarantinedClaim
	for _, c := range m.claims {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockQuarantineStore) CountPending(ctx context.Context) (int, error) {
	n := 0
	for _, c := range m.claims {
		if c.Status == domain.QuarantinePending {
			n++
		}
	}
	return n, nil
}

// mockAuditStore implements domain.AuditStore for testing. The mutex lets
// the retention service trim from a background goroutine under -race.
type mockAuditStore struct {
	mu        sync.Mutex
	entries   []domain.AuditEntry
	nextID    int64
	appendErr error
}

func (m *mockAuditStore) Append(ctx context.Context, e *domain.AuditEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockAuditStore) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.AuditEntry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAuditStore) TrimToLast(ctx context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) <= keep {
		return 0, nil
	}
	trimmed := int64(len(m.entries) - keep)
	m.entries = m.entries[len(m.entries)-keep:]
	return trimmed, nil
}

func (m *mockAuditStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockRecordStore implements domain.RecordStore for testing.
type mockRecordStore struct {
	records   []domain.Record
	createErr error
}

func (m *mockRecordStore) Create(ctx context.Context, r *domain.Record) error {
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.records = append(m.records, *r)
	return nil
}

func (m *mockRecordStore) ListRecent(ctx context.Context, channel domain.Channel, limit int) ([]domain.Record, error) {
	var out []domain.Record
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if channel == "" || m.records[i].Channel == channel {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

// mockSessionStore implements domain.SessionStore for testing.
type mockSessionStore struct {
	session domain.Session
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{session: domain.Session{ID: uuid.New(), StartedAt: time.Now()}}
}

func (m *mockSessionStore) Current(ctx context.Context) (*domain.Session, error) {
	cp := m.session
	return &cp, nil
}

func (m *mockSessionStore) IncrementMessages(ctx context.Context, id uuid.UUID) error {
	m.session.MessageCount++
	return nil
}

func (m *mockSessionStore) IncrementLearnings(ctx context.Context, id uuid.UUID, n int) error {
	m.session.LearningCount += n
	return nil
}

func (m *mockSessionStore) IncrementAlerts(ctx context.Context, id uuid.UUID, n int) error {
	m.session.SecurityAlerts += n
	return nil
}

func (m *mockSessionStore) Reset(ctx context.Context) (*domain.Session, error) {
	m.session = domain.Session{ID: uuid.New(), StartedAt: time.Now()}
	cp := m.session
	return &cp, nil
}
