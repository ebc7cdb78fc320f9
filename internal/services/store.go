package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"revlens/internal/dataprocessing"
	"revlens/pkg/contracts/domain"
)

// DatasetStore is the session-scoped cache of cleaned datasets, keyed
// by upload content hash. Re-uploading identical bytes never re-parses,
// and concurrent uploads of the same content are collapsed into one
// parse. Capacity is bounded; the oldest dataset is evicted first.
type DatasetStore struct {
	logger   *slog.Logger
	capacity int

	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
	order    []string

	group singleflight.Group
}

// NewDatasetStore creates a dataset store holding at most capacity
// datasets.
func NewDatasetStore(capacity int, logger *slog.Logger) *DatasetStore {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetStore{
		logger:   logger.With(slog.String("component", "dataset_store")),
		capacity: capacity,
		datasets: make(map[string]*domain.Dataset),
	}
}

// Ingest parses an upload into the cache, or returns the cached
// dataset when the same content was seen before.
func (s *DatasetStore) Ingest(ctx context.Context, filename string, content []byte) (*domain.Dataset, error) {
	key := contentKey(content)

	s.mu.RLock()
	cached, ok := s.datasets[key]
	s.mu.RUnlock()
	if ok {
		s.logger.DebugContext(ctx, "dataset cache hit",
			slog.String("dataset_id", cached.ID),
			slog.String("filename", filename))
		return cached, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		ds, err := dataprocessing.ParseUpload(content, filename)
		if err != nil {
			return nil, err
		}
		s.put(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}

	ds := v.(*domain.Dataset)
	s.logger.InfoContext(ctx, "dataset ingested",
		slog.String("dataset_id", ds.ID),
		slog.String("filename", filename),
		slog.Int("records", len(ds.Records)),
		slog.Int("rows_dropped", ds.RowsDropped),
		slog.Int("skipped_cells", ds.SkippedCells),
		slog.Bool("shared", shared))
	return ds, nil
}

// Get returns the cached dataset for an ID, if present.
func (s *DatasetStore) Get(id string) (*domain.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	return ds, ok
}

// Delete removes a dataset from the cache. It reports whether the
// dataset existed. This is the caller-controlled invalidation hook.
func (s *DatasetStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return false
	}
	delete(s.datasets, id)
	for i, key := range s.order {
		if key == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of cached datasets.
func (s *DatasetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

func (s *DatasetStore) put(key string, ds *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[key]; ok {
		return
	}

	for len(s.datasets) >= s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.datasets, oldest)
		s.logger.Info("evicted dataset from cache", slog.String("dataset_id", oldest))
	}

	s.datasets[key] = ds
	s.order = append(s.order, key)
}

// contentKey matches the dataset ID derivation in the loader so the
// cache key and the public dataset ID are the same value.
func contentKey(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)[:16]
}
