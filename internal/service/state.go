package service

import (
	"context"
	"time"

	"jetcharter/internal/domain"
	"jetcharter/internal/models"
	"jetcharter/internal/session"

	"github.com/rs/zerolog"
)

// StateService loads and stores the per-session state the use cases work on.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *StateService) Load(ctx context.Context, sessionID string) (*models.SessionState, error) {
	state, err := session.Load(ctx, s.stateRepo, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session state")
		return nil, err
	}
	return state, nil
}

func (s *StateService) Save(ctx context.Context, state *models.SessionState) error {
	state.UpdatedAt = s.now()
	if err := s.stateRepo.SetState(ctx, state); err != nil {
		s.logger.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to save session state")
		return err
	}
	return nil
}

// Session returns the handler view of the stored state.
func (s *StateService) Session(ctx context.Context, sessionID string) (session.Session, error) {
	state, err := s.Load(ctx, sessionID)
	if err != nil {
		return session.Session{ID: sessionID}, err
	}
	return session.FromState(state), nil
}
