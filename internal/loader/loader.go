// Package loader implements the resilient list-loading pattern: race a
// primary data source against a bounded wait and fall back to a secondary
// source when the primary is slow, erroring, or empty.
package loader

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Origin records which source produced a committed result.
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginFallback Origin = "fallback"
)

// Source is a one-shot list producer.
type Source[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

// Fetch implements Source.
func (f SourceFunc[T]) Fetch(ctx context.Context) ([]T, error) { return f(ctx) }

// Result is the single committed outcome of a load.
type Result[T any] struct {
	Items  []T
	Origin Origin
}

// Loader acquires a list for a screen, tolerating an unavailable primary.
//
// Policy: a primary result arriving within the timeout with at least one
// record wins and the fallback is never consulted. An empty primary result
// falls through to the fallback when one exists — early-life deployments had
// no primary data, so empty-from-primary means "try the fallback", not "show
// nothing". A primary error or timeout cancels the primary and invokes the
// fallback exactly once. A failing fallback resolves to an empty list;
// failures are logged, never raised, because this is display-layer loading.
type Loader[T any] struct {
	Primary  Source[T]
	Fallback Source[T] // optional
	Timeout  time.Duration
	Scope    func(T) bool // optional viewer scoping, applied to both outcomes
	Logger   *zap.Logger
}

type fetchOutcome[T any] struct {
	items []T
	err   error
}

// Load produces exactly one Result. The primary source is cancelled as soon
// as it loses the race, and abandoned entirely when ctx is torn down.
func (l *Loader[T]) Load(ctx context.Context) Result[T] {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	primaryCtx, cancelPrimary := context.WithTimeout(ctx, l.Timeout)
	defer cancelPrimary()

	outcome := make(chan fetchOutcome[T], 1)
	go func() {
		items, err := l.Primary.Fetch(primaryCtx)
		outcome <- fetchOutcome[T]{items: items, err: err}
	}()

	select {
	case res := <-outcome:
		if res.err == nil {
			if len(res.items) > 0 || l.Fallback == nil {
				return Result[T]{Items: l.scope(res.items), Origin: OriginPrimary}
			}
			logger.Debug("primary source returned no records, trying fallback")
		} else {
			logger.Warn("primary source failed, trying fallback", zap.Error(res.err))
		}
	case <-primaryCtx.Done():
		cancelPrimary()
		logger.Warn("primary source timed out, trying fallback",
			zap.Duration("timeout", l.Timeout))
	}

	return l.loadFallback(ctx, logger)
}

func (l *Loader[T]) loadFallback(ctx context.Context, logger *zap.Logger) Result[T] {
	if l.Fallback == nil {
		return Result[T]{Items: l.scope(nil), Origin: OriginFallback}
	}
	items, err := l.Fallback.Fetch(ctx)
	if err != nil {
		logger.Error("fallback source failed, resolving to empty list", zap.Error(err))
		return Result[T]{Items: l.scope(nil), Origin: OriginFallback}
	}
	return Result[T]{Items: l.scope(items), Origin: OriginFallback}
}

func (l *Loader[T]) scope(items []T) []T {
	if items == nil {
		items = []T{}
	}
	if l.Scope == nil {
		return items
	}
	scoped := make([]T, 0, len(items))
	for _, item := range items {
		if l.Scope(item) {
			scoped = append(scoped, item)
		}
	}
	return scoped
}
