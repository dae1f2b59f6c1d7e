// Package settings caches the SystemSettings singleton for 60 seconds,
// invalidating on write. Validation runs struct-tag checks via
// go-playground/validator, then a custom business-rule check appended
// after.
package settings

import (
	"context"
	"sync"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

const cacheTTL = 60 * time.Second

// Service wraps a store.SettingsRepo with a single-writer-invalidates TTL
// cache.
type Service struct {
	repo store.SettingsRepo

	mu        sync.RWMutex
	cached    domain.SystemSettings
	cachedAt  time.Time
	hasCached bool
}

// New constructs a Service over repo.
func New(repo store.SettingsRepo) *Service {
	return &Service{repo: repo}
}

// Get returns the cached settings if fresh, otherwise reads through to
// the repo and refreshes the cache.
func (s *Service) Get(ctx context.Context) (domain.SystemSettings, error) {
	s.mu.RLock()
	if s.hasCached && time.Since(s.cachedAt) < cacheTTL {
		v := s.cached
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	v, err := s.repo.Get(ctx)
	if err != nil {
		return domain.SystemSettings{}, err
	}

	s.mu.Lock()
	s.cached = v
	s.cachedAt = time.Now()
	s.hasCached = true
	s.mu.Unlock()
	return v, nil
}

// Save validates v, persists it, and invalidates the cache.
func (s *Service) Save(ctx context.Context, v domain.SystemSettings) error {
	if err := domain.ValidateSettingsDTO(v); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		return err
	}

	s.mu.Lock()
	s.hasCached = false
	s.mu.Unlock()
	return nil
}
