package repository

import (
	"github.com/okian/accounts/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger used for pool lifecycle messages.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics toggles Prometheus recording for statements.
func WithMetrics(enabled bool) Option {
	return func(s *SQLStore) {
		s.metricsEnabled = enabled
	}
}
