package service

import (
	"context"

	"jetcharter/internal/identity"
	"jetcharter/internal/logging"
	"jetcharter/internal/metrics"
	"jetcharter/internal/models"
	"jetcharter/internal/session"
	"jetcharter/internal/validation"

	"github.com/rs/zerolog"
)

// PasswordResetSent is the banner shown after a reset link was requested.
const PasswordResetSent = "Password reset email sent. Please check your inbox."

// AuthResult is the outcome of one auth form submission. Errors holds field
// messages when validation failed; Err and Banner are set when the provider
// rejected the call.
type AuthResult struct {
	Session session.Session   `json:"session"`
	Errors  models.FormErrors `json:"errors,omitempty"`
	Banner  string            `json:"banner,omitempty"`
	Kind    identity.Kind     `json:"-"`
	Err     error             `json:"-"`
	User    *identity.User    `json:"-"`
}

func (r *AuthResult) OK() bool {
	return r.Errors.Empty() && r.Err == nil
}

// Invalid reports a validation failure; the provider was not called.
func (r *AuthResult) Invalid() bool {
	return !r.Errors.Empty()
}

type AuthService struct {
	provider identity.Provider
	states   *StateService
	rules    validation.SignUpRules
	logger   *zerolog.Logger
}

func NewAuthService(provider identity.Provider, states *StateService, rules validation.SignUpRules, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		states:   states,
		rules:    rules,
		logger:   logging.Component(logger, "auth_service"),
	}
}

func (s *AuthService) SignUpRules() validation.SignUpRules {
	return s.rules
}

func (s *AuthService) SignIn(ctx context.Context, sessionID string, form validation.SignInForm) (*AuthResult, error) {
	op := identity.OpSignIn
	if errs := validation.SignIn(form); !errs.Empty() {
		return s.invalid(ctx, op, sessionID, errs)
	}

	user, err := s.provider.SignIn(ctx, sessionID, form.Email, form.Password)
	if err != nil {
		return s.rejected(ctx, op, sessionID, err)
	}
	return s.signedIn(ctx, op, sessionID, user)
}

// SignUp creates the account and then stores the display name on it.
func (s *AuthService) SignUp(ctx context.Context, sessionID string, form validation.SignUpForm) (*AuthResult, error) {
	op := identity.OpSignUp
	if errs := validation.SignUp(form, s.rules); !errs.Empty() {
		return s.invalid(ctx, op, sessionID, errs)
	}

	user, err := s.provider.CreateAccount(ctx, sessionID, form.Email, form.Password)
	if err != nil {
		return s.rejected(ctx, op, sessionID, err)
	}

	if name := form.DisplayName(); name != "" {
		named, err := s.provider.UpdateDisplayName(ctx, sessionID, name)
		if err != nil {
			// the account exists and the client is signed in without a name
			if _, serr := s.storeUser(ctx, sessionID, user); serr != nil {
				return nil, serr
			}
			return s.rejected(ctx, op, sessionID, err)
		}
		user = named
	}
	return s.signedIn(ctx, op, sessionID, user)
}

func (s *AuthService) SendPasswordReset(ctx context.Context, sessionID, email string) (*AuthResult, error) {
	op := identity.OpPasswordReset
	if errs := validation.PasswordReset(email); !errs.Empty() {
		return s.invalid(ctx, op, sessionID, errs)
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return s.rejected(ctx, op, sessionID, err)
	}

	metrics.IncAuth(op.String(), "ok")
	sess, err := s.states.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Session: sess, Banner: PasswordResetSent}, nil
}

// SignOut never fails towards the user; provider errors are only logged.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) (*AuthResult, error) {
	if err := s.provider.SignOut(ctx, sessionID); err != nil {
		metrics.IncAuth(identity.OpSignOut.String(), identity.KindOf(err).Code())
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg(identity.Message(identity.OpSignOut, err))
	} else {
		metrics.IncAuth(identity.OpSignOut.String(), "ok")
	}

	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Apply(state, nil)
	if err := s.states.Save(ctx, state); err != nil {
		return nil, err
	}
	return &AuthResult{Session: session.FromState(state)}, nil
}

// Current returns the session after reconciling it with the provider.
func (s *AuthService) Current(ctx context.Context, sessionID string) (*AuthResult, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.provider.CurrentUser(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to query provider, using stored session")
		return &AuthResult{Session: session.FromState(state)}, nil
	}

	if state.SignedIn != (user != nil) || (user != nil && state.Username != user.Username()) {
		session.Apply(state, user)
		if err := s.states.Save(ctx, state); err != nil {
			return nil, err
		}
	}
	return &AuthResult{Session: session.FromState(state), User: user}, nil
}

// Verify resolves a bearer token issued at sign-in.
func (s *AuthService) Verify(ctx context.Context, token string) (*identity.User, error) {
	return s.provider.VerifyToken(ctx, token)
}

func (s *AuthService) invalid(ctx context.Context, op identity.Operation, sessionID string, errs models.FormErrors) (*AuthResult, error) {
	metrics.IncAuth(op.String(), "invalid")
	sess, err := s.states.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Session: sess, Errors: errs}, nil
}

func (s *AuthService) rejected(ctx context.Context, op identity.Operation, sessionID string, providerErr error) (*AuthResult, error) {
	kind := identity.KindOf(providerErr)
	metrics.IncAuth(op.String(), kind.Code())
	if kind == identity.KindUnexpected {
		s.logger.Error().Err(providerErr).Str("operation", op.String()).Msg("Identity provider failure")
	} else {
		s.logger.Info().Str("operation", op.String()).Str("code", kind.Code()).Msg("Identity provider rejected request")
	}

	sess, err := s.states.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Session: sess,
		Banner:  identity.Message(op, providerErr),
		Kind:    kind,
		Err:     providerErr,
	}, nil
}

func (s *AuthService) signedIn(ctx context.Context, op identity.Operation, sessionID string, user *identity.User) (*AuthResult, error) {
	state, err := s.storeUser(ctx, sessionID, user)
	if err != nil {
		return nil, err
	}
	metrics.IncAuth(op.String(), "ok")
	return &AuthResult{Session: session.FromState(state), User: user}, nil
}

func (s *AuthService) storeUser(ctx context.Context, sessionID string, user *identity.User) (*models.SessionState, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Apply(state, user)
	if err := s.states.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
