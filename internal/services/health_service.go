package services

import (
	"context"
	"runtime"
	"time"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// HealthService provides health check functionality.
type HealthService struct {
	version   string
	startTime time.Time
	store     *DatasetStore
}

// HealthStatus represents the health status response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

// NewHealthService creates a new health service.
func NewHealthService(store *DatasetStore) *HealthService {
	return &HealthService{
		version:   Version,
		startTime: time.Now(),
		store:     store,
	}
}

// HealthCheck reports liveness plus a few runtime figures.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"uptime_seconds":  time.Since(s.startTime).Seconds(),
			"go_version":      runtime.Version(),
			"goroutines":      runtime.NumGoroutine(),
			"cached_datasets": s.store.Len(),
		},
	}
}

// Version reports the service version.
func (s *HealthService) Version() map[string]string {
	return map[string]string{"version": s.version}
}
