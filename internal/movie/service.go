package movie

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/pkg/logger"
)

// service implements the Service interface on top of a Repository with a TTL
type service struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewService creates a movie cache service with expiry validation and defaults
func NewService(cfg *config.RecommenderConfig, repo Repository, log *logger.Logger) (Service, error) {
	ttl := 24 * time.Hour
	if cfg != nil && cfg.CacheExpiry != "" {
		d, err := time.ParseDuration(cfg.CacheExpiry)
		if err != nil {
			return nil, fmt.Errorf("invalid cache expiry '%s': %v", cfg.CacheExpiry, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid cache expiry '%s': must be positive", cfg.CacheExpiry)
		}
		ttl = d
	}

	return &service{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithComponent("movie-cache"),
	}, nil
}

func (s *service) Cache(m *Movie) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.CachedAt = s.now()
	if err := s.repo.Upsert(m); err != nil {
		s.logger.Errorf(err, "Failed to cache movie %d", m.ID)
		return err
	}
	return nil
}

func (s *service) Get(id int) (*Movie, error) {
	m, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if m.Expired(s.now(), s.ttl) {
		s.logger.Debugf("Cached movie %d expired", id)
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *service) All() ([]Movie, error) {
	return s.repo.FindAll()
}

func (s *service) PurgeExpired() (int64, error) {
	n, err := s.repo.DeleteCachedBefore(s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to purge movie cache: %w", err)
	}
	if n > 0 {
		s.logger.Infof("Purged %d expired movies from cache", n)
	}
	return n, nil
}

// IsNotFound reports soft-miss errors from Get
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
