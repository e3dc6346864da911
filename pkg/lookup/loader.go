// Package lookup loads contextual option lists (database names, group
// names, model field lists) keyed by another field's current value. A
// refresh is keyed: when the dependency value changes again before an
// earlier fetch resolves, the earlier resolution is stale and must be
// discarded. A loader that has been closed discards every late resolution.
package lookup

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Fetcher retrieves the option list for one dependency key.
type Fetcher func(ctx context.Context, key string) ([]string, error)

// Loader tracks the latest refresh per dependency key and applies only the
// resolution matching the current key at resolution time.
type Loader struct {
	fetch  Fetcher
	logger *zap.Logger

	mu      sync.Mutex
	key     string
	seq     uint64
	options []string
	err     error
	closed  bool
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader builds a loader around a fetcher.
func NewLoader(fetch Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetch:  fetch,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh re-fetches the options for a new dependency key. The fetch runs
// asynchronously; the returned channel closes once its resolution has been
// applied or discarded. Only the resolution matching the loader's current
// key is applied.
func (l *Loader) Refresh(ctx context.Context, key string) <-chan struct{} {
	l.mu.Lock()
	l.key = key
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		options, err := l.fetch(ctx, key)

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			l.logger.Debug("lookup: discarding resolution after close",
				zap.String("key", key))
			return
		}
		if seq != l.seq {
			l.logger.Debug("lookup: discarding stale resolution",
				zap.String("key", key),
				zap.String("current", l.key))
			return
		}
		l.options = options
		l.err = err
	}()
	return done
}

// Options returns the most recently applied option list and the fetch error
// that produced it, if any.
func (l *Loader) Options() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.options, l.err
}

// Key returns the current dependency key.
func (l *Loader) Key() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

// Close marks the loader's screen as dismissed. Every resolution arriving
// afterwards is discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
