// Package service provides the account service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/accounts/internal/adapters/repository"
	"github.com/okian/accounts/internal/config"
	"github.com/okian/accounts/internal/domain/model"
	"github.com/okian/accounts/pkg/logger"
	"github.com/okian/accounts/pkg/metrics"
)

// Service creates and lists accounts through the persistence gateway.
type Service struct {
	mu sync.RWMutex

	cfg             *config.Config
	store           repository.Store
	ownsStore       bool
	redactPasswords bool

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig supplies the settings used to open the store at Start.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
			s.redactPasswords = cfg.RedactPasswords
		}
	}
}

// WithStore injects an already constructed store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRedactPasswords masks passwords returned by ListUsers.
func WithRedactPasswords(enabled bool) Option {
	return func(s *Service) {
		s.redactPasswords = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store when one was not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		if s.cfg == nil {
			return ErrNoConfig
		}
		s.logger.Info(ctx, "connecting to database", logger.String("config", s.cfg.String()))
		store, err := repository.Open(ctx, s.cfg, repository.WithLogger(s.logger.Named("store")))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	if !s.redactPasswords {
		s.logger.Warn(ctx, "user listing returns stored passwords in clear text; set redact_passwords to mask them")
	}

	s.started = true
	s.logger.Info(ctx, "account service started", logger.Bool("redactPasswords", s.redactPasswords))
	return nil
}

// Stop closes the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing database pool failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}
	s.started = false
	s.logger.Info(ctx, "account service stopped")
}

func (s *Service) activeStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// CreateUser inserts u. Store failures are returned as classified by the
// gateway; logging them is left to the caller.
func (s *Service) CreateUser(ctx context.Context, u model.User) error {
	store, err := s.activeStore()
	if err != nil {
		return err
	}
	if err := store.Insert(ctx, u); err != nil {
		if repository.KindOf(err) == repository.KindConflict {
			metrics.RecordUserConflict()
		}
		return err
	}
	metrics.RecordUserCreated()
	s.logger.Debug(ctx, "user created", logger.String("userId", u.ID))
	return nil
}

// ListUsers returns every stored user.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	store, err := s.activeStore()
	if err != nil {
		return nil, err
	}
	users, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.redactPasswords {
		for i := range users {
			users[i] = users[i].Redacted()
		}
	}
	metrics.RecordUserList(len(users))
	return users, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	store, err := s.activeStore()
	if err != nil {
		return err
	}
	return store.Ping(ctx)
}

// PoolStats returns the current pool snapshot and publishes it as metrics.
func (s *Service) PoolStats() repository.PoolStats {
	store, err := s.activeStore()
	if err != nil {
		return repository.PoolStats{}
	}
	st := store.Stats()
	metrics.UpdatePoolStats(metrics.PoolStats{
		MaxOpen:        st.MaxOpen,
		Open:           st.Open,
		InUse:          st.InUse,
		Idle:           st.Idle,
		WaitCount:      st.WaitCount,
		WaitDurationMs: float64(st.WaitDurationMs),
	})
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	redact := s.redactPasswords
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         started,
		"redactPasswords": redact,
	}
	if started {
		stats["pool"] = s.PoolStats()
	}
	return stats
}
