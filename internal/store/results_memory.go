package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryResults keeps results in process when no redis is configured.
type MemoryResults struct {
	cache *gocache.Cache
}

func NewMemoryResults(ttl time.Duration) *MemoryResults {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryResults{cache: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemoryResults) Set(_ context.Context, r Result) error {
	s.cache.Set(r.JobID, r, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryResults) Get(_ context.Context, jobID string) (Result, bool, error) {
	if v, found := s.cache.Get(jobID); found {
		return v.(Result), true, nil
	}
	return Result{}, false, nil
}

func (s *MemoryResults) Ping(context.Context) error { return nil }

func (s *MemoryResults) Close() error {
	s.cache.Flush()
	return nil
}
