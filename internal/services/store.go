package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"retail-dashboard/internal/cache"
	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/models"
)

// ErrNoDataset is returned when a session has not uploaded a workbook yet or
// its dataset has been evicted.
var ErrNoDataset = errors.New("no dataset loaded")

// Parser turns uploaded bytes into a Dataset.
type Parser interface {
	Parse(ctx context.Context, name string, data []byte) (*models.Dataset, error)
}

// DatasetStore memoizes parsed uploads by content digest and remembers which
// dataset each browser session is looking at.
type DatasetStore struct {
	parser Parser
	logger *slog.Logger

	datasets *cache.LRU[*models.Dataset]
	group    singleflight.Group

	// bindMu serializes session rebinding with the cache deletes it
	// triggers. Lock order: bindMu, then the cache, then mu.
	bindMu sync.Mutex

	mu       sync.Mutex
	sessions map[string]string // session id -> digest
	ids      map[string]string // dataset id -> digest

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func NewDatasetStore(parser Parser, maxEntries int, ttl time.Duration, logger *slog.Logger) *DatasetStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DatasetStore{
		parser:   parser,
		logger:   logger,
		datasets: cache.NewLRU[*models.Dataset](maxEntries, ttl),
		sessions: make(map[string]string),
		ids:      make(map[string]string),
	}
	s.datasets.OnEvict(s.evicted)
	return s
}

// evicted runs under the cache lock whenever capacity or expiry removes a
// dataset.
func (s *DatasetStore) evicted(digest string, ds *models.Dataset) {
	s.evictions.Add(1)

	s.mu.Lock()
	delete(s.ids, ds.ID)
	unbound := 0
	for sessionID, d := range s.sessions {
		if d == digest {
			delete(s.sessions, sessionID)
			unbound++
		}
	}
	s.mu.Unlock()

	s.logger.Info("dataset evicted", "dataset_id", ds.ID, "digest", digest, "sessions", unbound)
}

// Load parses data unless an identical upload is already cached, then binds
// the dataset to the session. The session's previous dataset is dropped from
// the cache when nothing else references it.
func (s *DatasetStore) Load(ctx context.Context, sessionID, name string, data []byte) (*models.Dataset, error) {
	s.Sweep()
	digest := loader.Digest(data)

	ds, ok := s.datasets.Get(digest)
	if ok {
		s.hits.Add(1)
		s.logger.Debug("dataset cache hit", "digest", digest, "dataset_id", ds.ID)
	} else {
		s.misses.Add(1)
		v, err, shared := s.group.Do(digest, func() (any, error) {
			if cached, ok := s.datasets.Get(digest); ok {
				return cached, nil
			}
			parsed, err := s.parser.Parse(ctx, name, data)
			if err != nil {
				return nil, err
			}
			s.datasets.Set(digest, parsed)
			s.mu.Lock()
			s.ids[parsed.ID] = digest
			s.mu.Unlock()
			return parsed, nil
		})
		if err != nil {
			return nil, err
		}
		ds = v.(*models.Dataset)
		if shared {
			s.logger.Debug("dataset load shared", "digest", digest)
		}
	}

	s.bind(sessionID, digest, ds)
	return ds, nil
}

// bind points the session at ds. The dataset is stored again first, so a
// concurrent drop or eviction between the lookup in Load and this call
// cannot leave the session bound to nothing.
func (s *DatasetStore) bind(sessionID, digest string, ds *models.Dataset) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	s.datasets.Set(digest, ds)

	s.mu.Lock()
	s.ids[ds.ID] = digest
	if sessionID == "" {
		s.mu.Unlock()
		return
	}
	prev := s.sessions[sessionID]
	s.sessions[sessionID] = digest
	drop := prev != "" && prev != digest && !s.referencedLocked(prev)
	s.mu.Unlock()

	if drop {
		s.drop(prev)
	}
}

// Current returns the dataset bound to the session.
func (s *DatasetStore) Current(sessionID string) (*models.Dataset, error) {
	s.mu.Lock()
	digest, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoDataset
	}

	ds, ok := s.datasets.Get(digest)
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Get looks a dataset up by its id.
func (s *DatasetStore) Get(datasetID string) (*models.Dataset, error) {
	s.mu.Lock()
	digest, ok := s.ids[datasetID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoDataset
	}

	ds, ok := s.datasets.Get(digest)
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Invalidate unbinds the session and drops its dataset when unreferenced.
func (s *DatasetStore) Invalidate(sessionID string) bool {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	s.mu.Lock()
	digest, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	drop := ok && !s.referencedLocked(digest)
	s.mu.Unlock()

	if drop {
		s.drop(digest)
	}
	return ok
}

// drop must be called with bindMu held.
func (s *DatasetStore) drop(digest string) {
	ds, ok := s.datasets.Get(digest)
	if !ok {
		return
	}
	s.datasets.Delete(digest)

	s.mu.Lock()
	delete(s.ids, ds.ID)
	s.mu.Unlock()
	s.logger.Info("dataset invalidated", "dataset_id", ds.ID, "digest", digest)
}

func (s *DatasetStore) referencedLocked(digest string) bool {
	for _, d := range s.sessions {
		if d == digest {
			return true
		}
	}
	return false
}

// Sweep evicts expired datasets along with the sessions bound to them.
func (s *DatasetStore) Sweep() int {
	return s.datasets.CleanExpired()
}

// Stats reports counters without touching the cache.
func (s *DatasetStore) Stats() map[string]any {
	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()

	return map[string]any{
		"datasets":     s.datasets.Len(),
		"sessions":     sessions,
		"cache_hits":   s.hits.Load(),
		"cache_misses": s.misses.Load(),
		"evictions":    s.evictions.Load(),
	}
}
