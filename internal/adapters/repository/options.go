package repository

import (
	"time"

	"github.com/okian/swiss/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxOpenConns caps the connection pool. SQLite always uses one connection.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithConnectTimeout bounds the initial ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithoutMigrations skips applying the embedded schema on open.
func WithoutMigrations() Option {
	return func(s *SQLStore) {
		s.migrate = false
	}
}
