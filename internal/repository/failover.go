package repository

import (
	"context"
	"sync/atomic"
	"time"

	"jetcharter/internal/domain"
	"jetcharter/internal/models"

	"github.com/rs/zerolog"
)

const primaryRetryInterval = time.Minute

// FailoverStateRepository uses primary until it fails, then serves from
// fallback and retries primary once a minute.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64

	now func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverStateRepository) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > primaryRetryInterval
}

func (r *FailoverStateRepository) observe(err error) {
	if err == nil {
		if r.isDown.CompareAndSwap(true, false) {
			r.logger.Info().Msg("Primary state repository recovered")
		}
		return
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverStateRepository) GetState(ctx context.Context, sessionID string) (*models.SessionState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, sessionID)
		r.observe(err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, sessionID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.SessionState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		r.observe(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, sessionID string) error {
	if r.usePrimary() {
		err := r.primary.ClearState(ctx, sessionID)
		r.observe(err)
		if err == nil {
			// the fallback may hold a copy written while primary was down
			_ = r.fallback.ClearState(ctx, sessionID)
			return nil
		}
	}
	return r.fallback.ClearState(ctx, sessionID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		r.observe(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
