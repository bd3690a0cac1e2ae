package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
)

const (
	defaultRetentionInterval = 10 * time.Minute
	// DefaultAuditRetention is how many audit entries survive a trim pass.
	DefaultAuditRetention = 1000
)

// RetentionService keeps the audit trail bounded: a background pass trims the
// store to the newest N entries, oldest first.
type RetentionService struct {
	auditStore domain.AuditStore
	keep       int
	logger     *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewRetentionService(as domain.AuditStore, keep int, logger *zap.Logger) *RetentionService {
	if keep <= 0 {
		keep = DefaultAuditRetention
	}
	return &RetentionService{
		auditStore: as,
		keep:       keep,
		logger:     logger,
		interval:   defaultRetentionInterval,
		stopCh:     make(chan struct{}),
	}
}

func (s *RetentionService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the trimmer on a periodic schedule in a background goroutine.
func (s *RetentionService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("audit retention started",
			zap.Duration("interval", s.interval),
			zap.Int("keep", s.keep))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("audit retention stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the trimmer.
func (s *RetentionService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *RetentionService) run(ctx context.Context) {
	trimmed, err := s.auditStore.TrimToLast(ctx, s.keep)
	if err != nil {
		s.logger.Error("audit trim failed", zap.Error(err))
		return
	}
	if trimmed > 0 {
		s.logger.Info("trimmed audit entries", zap.Int64("count", trimmed))
	}
}
