package repository

import (
	"context"
	"sync/atomic"
	"time"

	"skiphire/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves from primary (redis) and falls back to
// the in-memory repository when it errors. The primary is probed again
// after a cooldown so a recovered redis takes over without a restart.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	if !r.isDown.Load() {
		val, err := r.primary.Get(ctx, sessionID, key)
		if err == nil {
			return val, nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		val, err := r.primary.Get(ctx, sessionID, key)
		if err == nil {
			r.isDown.Store(false)
			return val, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Get(ctx, sessionID, key)
}

func (r *FailoverSessionRepository) Put(ctx context.Context, sessionID, key string, value []byte) error {
	if !r.isDown.Load() {
		err := r.primary.Put(ctx, sessionID, key, value)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Put(ctx, sessionID, key, value)
}

func (r *FailoverSessionRepository) Clear(ctx context.Context, sessionID string, keys ...string) error {
	if !r.isDown.Load() {
		err := r.primary.Clear(ctx, sessionID, keys...)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Clear(ctx, sessionID, keys...)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, clientID string, limit int, windowSeconds int) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientID, limit, windowSeconds)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, clientID, limit, windowSeconds)
}
