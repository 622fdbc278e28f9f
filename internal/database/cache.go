package database

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/raunakjaimini/chatmate/internal/observability"
)

type OpenFunc func(ctx context.Context) (*Handle, error)

// Source hands out the handle to use for the current interaction.
type Source interface {
	Handle(ctx context.Context) (*Handle, error)
}

// Cache memoizes one handle and rebuilds it on the first use after ttl has
// elapsed since it was created. Failed opens are not cached.
//
// A replaced handle may still be in use by a request that fetched it just
// before expiry, so it is retired rather than closed and only closed at the
// following rotation (or on Close), one full ttl later.
type Cache struct {
	open   OpenFunc
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	handle    *Handle
	retired   *Handle
	createdAt time.Time
}

func NewCache(open OpenFunc, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{open: open, ttl: ttl, logger: logger, now: time.Now}
}

func (c *Cache) Handle(ctx context.Context) (*Handle, error) {
	c.mu.Lock()
	if c.handle != nil && c.now().Sub(c.createdAt) < c.ttl {
		handle := c.handle
		c.mu.Unlock()
		return handle, nil
	}

	handle, err := c.open(ctx)
	if err != nil {
		c.mu.Unlock()
		observability.ObserveDatabaseOpen(false)
		return nil, err
	}
	stale := c.retired
	previous := c.handle
	c.retired = previous
	c.handle = handle
	c.createdAt = c.now()
	c.mu.Unlock()

	observability.ObserveDatabaseOpen(true)
	if stale != nil {
		if err := stale.Close(); err != nil {
			c.logger.WarnContext(ctx, "close retired database handle", slog.Any("error", err))
		}
	}
	if previous != nil {
		c.logger.InfoContext(ctx, "database handle expired, reopened", slog.String("ttl", c.ttl.String()))
	} else {
		c.logger.InfoContext(ctx, "database handle opened", slog.String("dialect", string(handle.Dialect())))
	}
	return handle, nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, handle := range []*Handle{c.retired, c.handle} {
		if handle != nil {
			errs = append(errs, handle.Close())
		}
	}
	c.handle, c.retired = nil, nil
	return errors.Join(errs...)
}

type staticSource struct {
	handle *Handle
}

// Static wraps an already open handle as a Source.
func Static(handle *Handle) Source {
	return staticSource{handle: handle}
}

func (s staticSource) Handle(context.Context) (*Handle, error) {
	return s.handle, nil
}
