// Package session carries the per-browser session explicitly and keeps its
// signed-in state in step with the identity provider.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"jetcharter/internal/domain"
	"jetcharter/internal/identity"
	"jetcharter/internal/logging"
	"jetcharter/internal/models"

	"github.com/rs/zerolog"
)

// Session is what a handler knows about the browser it is serving.
type Session struct {
	ID       string `json:"id"`
	SignedIn bool   `json:"signed_in"`
	Username string `json:"username,omitempty"`
}

func FromState(st *models.SessionState) Session {
	if st == nil {
		return Session{}
	}
	return Session{ID: st.SessionID, SignedIn: st.SignedIn, Username: st.Username}
}

// Load returns the stored state of sessionID, or a fresh one when none is stored.
func Load(ctx context.Context, repo domain.StateRepository, sessionID string) (*models.SessionState, error) {
	st, err := repo.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = models.NewSessionState(sessionID)
	}
	return st, nil
}

// Apply copies the provider's view of the user onto st; nil signs it out.
func Apply(st *models.SessionState, user *identity.User) {
	if user == nil {
		st.SignOut()
		return
	}
	st.SignedIn = true
	st.UID = user.UID
	st.Email = user.Email
	st.Username = user.Username()
}

var ErrAlreadyMounted = errors.New("session tracker already mounted")

const trackerWriteTimeout = 5 * time.Second

// Tracker holds the single provider subscription of the process. It is taken
// in Mount and released in Unmount.
type Tracker struct {
	provider identity.Provider
	repo     domain.StateRepository
	logger   *zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func NewTracker(provider identity.Provider, repo domain.StateRepository, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		provider: provider,
		repo:     repo,
		logger:   logging.Component(logger, "session_tracker"),
	}
}

func (t *Tracker) Mount() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe != nil {
		return ErrAlreadyMounted
	}
	t.unsubscribe = t.provider.OnAuthStateChanged(t.onChange)
	t.logger.Debug().Msg("Subscribed to auth state changes")
	return nil
}

// Unmount releases the subscription. It is safe to call when not mounted.
func (t *Tracker) Unmount() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe == nil {
		return
	}
	t.unsubscribe()
	t.unsubscribe = nil
	t.logger.Debug().Msg("Unsubscribed from auth state changes")
}

func (t *Tracker) Mounted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unsubscribe != nil
}

func (t *Tracker) onChange(clientID string, user *identity.User) {
	ctx, cancel := context.WithTimeout(context.Background(), trackerWriteTimeout)
	defer cancel()

	st, err := Load(ctx, t.repo, clientID)
	if err != nil {
		t.logger.Error().Err(err).Str("session_id", clientID).Msg("Failed to load session state")
		return
	}
	Apply(st, user)
	st.UpdatedAt = time.Now()
	if err := t.repo.SetState(ctx, st); err != nil {
		t.logger.Error().Err(err).Str("session_id", clientID).Msg("Failed to store session state")
		return
	}
	t.logger.Debug().Str("session_id", clientID).Bool("signed_in", st.SignedIn).Msg("Session auth state updated")
}
