package snapshot

import (
	"strings"
	"time"

	"github.com/okian/swiss/pkg/logger"
)

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithPrefix sets the key prefix. Leading and trailing slashes are ignored.
func WithPrefix(prefix string) ExporterOption {
	return func(e *Exporter) {
		e.prefix = strings.Trim(prefix, "/")
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the exporter logger.
func WithLogger(l logger.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}
