package live

import (
	"net/http"

	"github.com/okian/swiss/pkg/logger"
)

// Option configures a Hub.
type Option func(*Hub)

// WithInitial sends the result of fn to each client as soon as it connects.
func WithInitial(fn InitialFunc) Option {
	return func(h *Hub) {
		h.initial = fn
	}
}

// WithCheckOrigin replaces the default allow-all origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
