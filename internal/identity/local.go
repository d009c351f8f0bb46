package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"jetcharter/internal/database"
	"jetcharter/internal/events"
	"jetcharter/internal/logging"
	"jetcharter/internal/models"
	"jetcharter/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	providerMessageInvalidEmail    = "The email address is badly formatted."
	providerMessageEmailInUse      = "The email address is already in use by another account."
	providerMessageUserNotFound    = "There is no user record corresponding to this identifier."
	providerMessageWrongPassword   = "The password is invalid."
	providerMessageUserDisabled    = "The user account has been disabled by an administrator."
	providerMessageTooManyRequests = "Access to this account has been temporarily disabled due to many failed login attempts."
	providerMessageWeakPassword    = "Password should be at least 6 characters"
	providerMessageLongPassword    = "Password must be at most 72 bytes long."
	providerMessageResetExpired    = "The password reset link is invalid or has expired."

	minProviderPasswordLength = 6
	// bcrypt rejects input longer than this many bytes.
	maxProviderPasswordBytes = 72
)

// AccountStore is the persistence the local provider needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByUID(ctx context.Context, uid string) (*models.Account, error)
	UpdateDisplayName(ctx context.Context, uid, name string) error
	BindClient(ctx context.Context, clientID, uid string) error
	UnbindClient(ctx context.Context, clientID string) (bool, error)
	ClientAccount(ctx context.Context, clientID string) (*models.Account, error)
	SetAccountDisabled(ctx context.Context, uid string, disabled bool) error
	ClientsOf(ctx context.Context, uid string) ([]string, error)
	CreatePasswordReset(ctx context.Context, token, uid string, expiresAt time.Time) error
	RedeemPasswordReset(ctx context.Context, token, hash string, now time.Time) (string, error)
}

// RateLimiter is the fixed-window counter used to throttle sign-in attempts.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type LocalOptions struct {
	TokenSecret    []byte
	TokenTTL       time.Duration
	Issuer         string
	BcryptCost     int
	ResetTTL       time.Duration
	ResetURL       string
	SignInAttempts int
	SignInWindow   time.Duration
}

func (o *LocalOptions) applyDefaults() {
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
	}
	if o.Issuer == "" {
		o.Issuer = "jetcharter"
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.ResetTTL <= 0 {
		o.ResetTTL = 30 * time.Minute
	}
	if o.SignInAttempts <= 0 {
		o.SignInAttempts = models.SignInRateLimitAttempts
	}
	if o.SignInWindow <= 0 {
		o.SignInWindow = models.SignInRateLimitWindow * time.Second
	}
}

// LocalProvider is a self-hosted identity provider backed by the accounts table.
type LocalProvider struct {
	store   AccountStore
	limiter RateLimiter
	bus     *events.EventBus
	mailer  Mailer
	opts    LocalOptions
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewLocalProvider(
	store AccountStore,
	limiter RateLimiter,
	bus *events.EventBus,
	mailer Mailer,
	opts LocalOptions,
	logger *zerolog.Logger,
) (*LocalProvider, error) {
	if len(opts.TokenSecret) == 0 {
		return nil, errors.New("identity: token secret is required")
	}
	opts.applyDefaults()
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &LocalProvider{
		store:   store,
		limiter: limiter,
		bus:     bus,
		mailer:  mailer,
		opts:    opts,
		logger:  logging.Component(logger, "identity"),
		now:     time.Now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) SignIn(ctx context.Context, clientID, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if !validation.StrictEmail(email) {
		return nil, NewError(KindInvalidEmail, providerMessageInvalidEmail)
	}

	if p.limiter != nil {
		allowed, err := p.limiter.CheckRateLimit(ctx, "signin:"+email, p.opts.SignInAttempts, p.opts.SignInWindow)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Sign-in rate limit check failed, allowing attempt")
		} else if !allowed {
			p.logger.Warn().Str("email", logging.MaskEmail(email)).Msg("Sign-in throttled")
			return nil, NewError(KindTooManyRequests, providerMessageTooManyRequests)
		}
	}

	account, err := p.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, NewError(KindUserNotFound, providerMessageUserNotFound)
		}
		return nil, NewError(KindUnexpected, err.Error())
	}
	if account.Disabled {
		return nil, NewError(KindUserDisabled, providerMessageUserDisabled)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, NewError(KindWrongPassword, providerMessageWrongPassword)
	}

	return p.signInAs(ctx, clientID, account)
}

func (p *LocalProvider) CreateAccount(ctx context.Context, clientID, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if !validation.StrictEmail(email) {
		return nil, NewError(KindInvalidEmail, providerMessageInvalidEmail)
	}
	hash, err := p.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	account := &models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return nil, NewError(KindEmailAlreadyInUse, providerMessageEmailInUse)
		}
		return nil, NewError(KindUnexpected, err.Error())
	}

	p.logger.Info().Str("uid", account.UID).Str("email", logging.MaskEmail(email)).Msg("Account created")
	return p.signInAs(ctx, clientID, account)
}

func (p *LocalProvider) signInAs(ctx context.Context, clientID string, account *models.Account) (*User, error) {
	if err := p.store.BindClient(ctx, clientID, account.UID); err != nil {
		return nil, NewError(KindUnexpected, err.Error())
	}
	user, err := p.userFor(account)
	if err != nil {
		return nil, err
	}
	p.publish(clientID, user)
	p.logger.Info().Str("uid", account.UID).Msg("Client signed in")
	return user, nil
}

func (p *LocalProvider) UpdateDisplayName(ctx context.Context, clientID, name string) (*User, error) {
	account, err := p.clientAccount(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, NewError(KindUserNotFound, providerMessageUserNotFound)
	}

	name = strings.TrimSpace(name)
	if err := p.store.UpdateDisplayName(ctx, account.UID, name); err != nil {
		return nil, NewError(KindUnexpected, err.Error())
	}
	account.DisplayName = name

	user, err := p.userFor(account)
	if err != nil {
		return nil, err
	}
	p.publish(clientID, user)
	return user, nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validation.StrictEmail(email) {
		return NewError(KindInvalidEmail, providerMessageInvalidEmail)
	}

	account, err := p.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return NewError(KindUserNotFound, providerMessageUserNotFound)
		}
		return NewError(KindUnexpected, err.Error())
	}

	token := uuid.NewString()
	if err := p.store.CreatePasswordReset(ctx, token, account.UID, p.now().Add(p.opts.ResetTTL)); err != nil {
		return NewError(KindUnexpected, err.Error())
	}
	if err := p.mailer.SendPasswordReset(ctx, email, p.resetLink(token)); err != nil {
		return NewError(KindUnexpected, err.Error())
	}
	return nil
}

func (p *LocalProvider) resetLink(token string) string {
	base := p.opts.ResetURL
	if base == "" {
		base = "/reset-password"
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ResetPassword redeems a reset token and sets a new password. Tokens are
// single use; a rejected password leaves the token valid.
func (p *LocalProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := p.hashPassword(newPassword)
	if err != nil {
		return err
	}
	uid, err := p.store.RedeemPasswordReset(ctx, token, string(hash), p.now())
	if err != nil {
		if errors.Is(err, database.ErrResetNotFound) || errors.Is(err, database.ErrAccountNotFound) {
			return NewError(KindUnexpected, providerMessageResetExpired)
		}
		return NewError(KindUnexpected, err.Error())
	}
	p.logger.Info().Str("uid", uid).Msg("Password reset completed")
	return nil
}

func (p *LocalProvider) hashPassword(password string) ([]byte, error) {
	if utf8.RuneCountInString(password) < minProviderPasswordLength {
		return nil, NewError(KindUnexpected, providerMessageWeakPassword)
	}
	if len(password) > maxProviderPasswordBytes {
		return nil, NewError(KindUnexpected, providerMessageLongPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.opts.BcryptCost)
	if err != nil {
		return nil, NewError(KindUnexpected, err.Error())
	}
	return hash, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, clientID string) error {
	existed, err := p.store.UnbindClient(ctx, clientID)
	if err != nil {
		return NewError(KindUnexpected, err.Error())
	}
	if existed {
		p.publish(clientID, nil)
		p.logger.Info().Str("client_id", clientID).Msg("Client signed out")
	}
	return nil
}

// SetAccountDisabled blocks or restores sign-in for uid. Disabling also signs
// the account out of every client it is bound to.
func (p *LocalProvider) SetAccountDisabled(ctx context.Context, uid string, disabled bool) error {
	if err := p.store.SetAccountDisabled(ctx, uid, disabled); err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return NewError(KindUserNotFound, providerMessageUserNotFound)
		}
		return NewError(KindUnexpected, err.Error())
	}
	if !disabled {
		p.logger.Info().Str("uid", uid).Msg("Account enabled")
		return nil
	}

	clients, err := p.store.ClientsOf(ctx, uid)
	if err != nil {
		return NewError(KindUnexpected, err.Error())
	}
	for _, clientID := range clients {
		if err := p.SignOut(ctx, clientID); err != nil {
			return err
		}
	}
	p.logger.Info().Str("uid", uid).Int("clients_signed_out", len(clients)).Msg("Account disabled")
	return nil
}

func (p *LocalProvider) CurrentUser(ctx context.Context, clientID string) (*User, error) {
	account, err := p.clientAccount(ctx, clientID)
	if err != nil || account == nil {
		return nil, err
	}
	if account.Disabled {
		if err := p.SignOut(ctx, clientID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return p.userFor(account)
}

func (p *LocalProvider) clientAccount(ctx context.Context, clientID string) (*models.Account, error) {
	account, err := p.store.ClientAccount(ctx, clientID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, NewError(KindUnexpected, err.Error())
	}
	return account, nil
}

func (p *LocalProvider) VerifyToken(ctx context.Context, tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return p.opts.TokenSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, NewError(KindUnexpected, "invalid token")
	}

	uid, err := token.Claims.GetSubject()
	if err != nil || uid == "" {
		return nil, NewError(KindUnexpected, "invalid token subject")
	}

	account, err := p.store.GetAccountByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, NewError(KindUserNotFound, providerMessageUserNotFound)
		}
		return nil, NewError(KindUnexpected, err.Error())
	}
	if account.Disabled {
		return nil, NewError(KindUserDisabled, providerMessageUserDisabled)
	}

	return &User{UID: account.UID, Email: account.Email, DisplayName: account.DisplayName, Token: tokenString}, nil
}

func (p *LocalProvider) userFor(account *models.Account) (*User, error) {
	now := p.now()
	claims := jwt.MapClaims{
		"sub":   account.UID,
		"email": account.Email,
		"name":  account.DisplayName,
		"iss":   p.opts.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(p.opts.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.opts.TokenSecret)
	if err != nil {
		return nil, NewError(KindUnexpected, fmt.Sprintf("sign token: %v", err))
	}
	return &User{UID: account.UID, Email: account.Email, DisplayName: account.DisplayName, Token: token}, nil
}

func (p *LocalProvider) publish(clientID string, user *User) {
	payload := events.AuthStatePayload{ClientID: clientID}
	if user != nil {
		payload.SignedIn = true
		payload.UID = user.UID
		payload.Email = user.Email
		payload.DisplayName = user.DisplayName
	}
	if err := p.bus.PublishJSON(events.EventAuthStateChanged, payload); err != nil {
		p.logger.Error().Err(err).Msg("Failed to publish auth state")
	}
}

// OnAuthStateChanged subscribes listener to sign-in and sign-out of every client.
func (p *LocalProvider) OnAuthStateChanged(listener AuthStateListener) func() {
	if p.bus == nil {
		return func() {}
	}
	return p.bus.Subscribe(events.EventAuthStateChanged, func(event *events.Event) error {
		var payload events.AuthStatePayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		if !payload.SignedIn {
			listener(payload.ClientID, nil)
			return nil
		}
		listener(payload.ClientID, &User{UID: payload.UID, Email: payload.Email, DisplayName: payload.DisplayName})
		return nil
	})
}

var _ Provider = (*LocalProvider)(nil)
