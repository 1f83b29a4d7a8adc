package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverResponseCache serves from primary until it errors, then from fallback,
// probing primary again once per recoveryInterval.
type FailoverResponseCache struct {
	primary   domain.ResponseCache
	fallback  domain.ResponseCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverResponseCache(primary, fallback domain.ResponseCache, logger *zerolog.Logger) *FailoverResponseCache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverResponseCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether primary should be tried. A recovered primary is
// bumped first: mutations made during the outage never reached it.
func (r *FailoverResponseCache) usePrimary(ctx context.Context) bool {
	if !r.isDown.Load() {
		return true
	}
	if r.now().Sub(time.Unix(0, r.lastCheck.Load())) < recoveryInterval {
		return false
	}
	r.lastCheck.Store(r.now().UnixNano())
	if _, err := r.primary.Bump(ctx); err != nil {
		return false
	}
	r.logger.Info().Msg("Primary response cache recovered")
	r.isDown.Store(false)
	return true
}

// markDown switches to fallback and invalidates whatever it kept from an earlier outage.
func (r *FailoverResponseCache) markDown(ctx context.Context, err error) {
	if r.isDown.Swap(true) {
		return
	}
	r.lastCheck.Store(r.now().UnixNano())
	r.logger.Error().Err(err).Msg("Primary response cache failed, falling back to memory")
	_, _ = r.fallback.Bump(ctx)
}

func (r *FailoverResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.usePrimary(ctx) {
		val, ok, err := r.primary.Get(ctx, key)
		if err == nil {
			return val, ok, nil
		}
		r.markDown(ctx, err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *FailoverResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.usePrimary(ctx) {
		err := r.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		r.markDown(ctx, err)
	}
	return r.fallback.Set(ctx, key, value, ttl)
}

func (r *FailoverResponseCache) Generation(ctx context.Context) (int64, error) {
	if r.usePrimary(ctx) {
		gen, err := r.primary.Generation(ctx)
		if err == nil {
			return gen, nil
		}
		r.markDown(ctx, err)
	}
	return r.fallback.Generation(ctx)
}

func (r *FailoverResponseCache) Bump(ctx context.Context) (int64, error) {
	if r.usePrimary(ctx) {
		gen, err := r.primary.Bump(ctx)
		if err == nil {
			return gen, nil
		}
		r.markDown(ctx, err)
	}
	return r.fallback.Bump(ctx)
}
