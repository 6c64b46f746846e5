package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
)

// healthService implements the HealthService interface.
type healthService struct {
	pinger  db.HealthPinger
	version string
	logger  *zap.Logger
	now     func() time.Time
}

// NewHealthService creates a HealthService that pings the store through pinger.
func NewHealthService(pinger db.HealthPinger, version string, logger *zap.Logger) HealthService {
	return &healthService{
		pinger:  pinger,
		version: version,
		logger:  logger,
		now:     time.Now,
	}
}

// Check performs a single store read and reports its latency. It never fails;
// problems are reported inside the returned report.
func (s *healthService) Check(ctx context.Context) models.HealthReport {
	start := s.now()
	err := s.pinger.Ping(ctx)
	latency := s.now().Sub(start).Milliseconds()

	store := models.StoreHealth{Status: models.HealthOK, LatencyMs: &latency}
	if err != nil {
		s.logger.Warn("health check store ping failed", zap.Error(err))
		store.Status = models.HealthError
		store.Error = err.Error()
	}

	return models.HealthReport{
		Status:    store.Status,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Version:   s.version,
		Firestore: store,
	}
}
