package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"jetcharter/internal/catalog"
	"jetcharter/internal/config"
	"jetcharter/internal/database"
	"jetcharter/internal/events"
	"jetcharter/internal/identity"
	"jetcharter/internal/models"
	"jetcharter/internal/repository"
	"jetcharter/internal/service"
	"jetcharter/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	inquiries []*models.Inquiry
	err       error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, inquiry *models.Inquiry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.inquiries = append(d.inquiries, inquiry)
	return nil
}

type capturingMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

type testEnv struct {
	handler    http.Handler
	provider   *identity.LocalProvider
	bus        *events.EventBus
	dispatcher *recordingDispatcher
	mailer     *capturingMailer
	cookie     *http.Cookie
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.Nop()

	cfg := &config.Config{
		Contact: config.ContactConfig{
			Phones: []string{"+1 (555) 765-4321"},
			Emails: []string{"support@jetpage.com"},
		},
	}
	cfg.API.Auth.HeaderAPIKey = "x-api-key"
	cfg.API.Auth.HeaderExtra = "x-api-extra"
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewMemoryStateRepository(time.Hour)
	bus := events.NewEventBus()
	mailer := &capturingMailer{}
	provider, err := identity.NewLocalProvider(db, repo, bus, mailer, identity.LocalOptions{
		TokenSecret: []byte("0123456789abcdef0123"),
		BcryptCost:  bcrypt.MinCost,
	}, &logger)
	require.NoError(t, err)

	states := service.NewStateService(repo, &logger)
	dispatcher := &recordingDispatcher{}
	srv, err := NewHTTPServer(cfg, Services{
		Auth:     service.NewAuthService(provider, states, validation.ClassicSignUp, &logger),
		Booking:  service.NewBookingService(states, catalog.DefaultFleet(), bus, &logger),
		Contact:  service.NewContactService(dispatcher, bus, &logger),
		Resetter: provider,
		Accounts: provider,
	}, &logger)
	require.NoError(t, err)

	return &testEnv{handler: srv.Handler(), provider: provider, bus: bus, dispatcher: dispatcher, mailer: mailer}
}

// do sends one request and keeps the session cookie for the next one.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == models.SessionCookieName {
			e.cookie = c
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func flightDate() string {
	return time.Now().AddDate(0, 1, 0).Format(models.DateLayout)
}

func TestIndexRendersLandingPage(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)

	page := rec.Body.String()
	assert.Contains(t, page, "Welcome to JetPage")
	assert.Contains(t, page, "Private Jet Charter")
	assert.Contains(t, page, "Flight Details")
	assert.Contains(t, page, "Gulfstream G650")
	assert.Contains(t, page, "Our Mission")
	assert.Contains(t, page, "&#43;1 (555) 765-4321")
	assert.Contains(t, page, fmt.Sprintf("%d JetPage. All rights reserved.", time.Now().Year()))
	assert.NotContains(t, page, "Choose a New Password")
}

func TestSessionCookieIsReused(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodGet, "/healthz", nil)
	first := env.cookie
	require.NotNil(t, first)
	assert.True(t, first.HttpOnly)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, first.Value, env.cookie.Value)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestLegacyAirportDirectory(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/airports", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []catalog.DirectoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "JFK", entries[0].Code)
	assert.Equal(t, "DEN", entries[3].Code)
}

func TestAirportSuggestionsAndValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/airports?q=london", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	airports := decode(t, rec)["airports"].([]any)
	require.Len(t, airports, 1)
	assert.Equal(t, "London, United Kingdom (LHR)", airports[0].(map[string]any)["label"])

	rec = env.do(t, http.MethodGet, "/api/v1/airports/validate?input="+url.QueryEscape("Paris, France"), nil)
	assert.Equal(t, true, decode(t, rec)["valid"])

	rec = env.do(t, http.MethodGet, "/api/v1/airports/validate?input=Atlantis", nil)
	assert.Equal(t, false, decode(t, rec)["valid"])
}

func TestRouteEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/route?from=JFK&to=LHR&date=2026-07-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2991, body["distance_nm"])
	assert.EqualValues(t, 5, body["time_difference"])

	rec = env.do(t, http.MethodGet, "/api/v1/route?from=JFK&to=Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/route?from=JFK", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/route?from=JFK&to=LHR&date=July", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAircraftList(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/aircraft", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["aircraft"], 2)
	assert.EqualValues(t, 19, body["max_capacity"])
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username":        "Jane",
		"email":           "jane@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	sess := body["session"].(map[string]any)
	assert.Equal(t, true, sess["signed_in"])
	assert.Equal(t, "Jane", sess["username"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.com", decode(t, rec)["email"])

	rec = env.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), "Welcome, Jane")
	assert.NotContains(t, rec.Body.String(), "Welcome to JetPage")

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["session"].(map[string]any)["signed_in"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "jane@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "auth/wrong-password", body["code"])
	assert.NotEmpty(t, body["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "jane@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, true, decode(t, rec)["session"].(map[string]any)["signed_in"])
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{"email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "Username is required", errs["username"])
	assert.Equal(t, "Email is invalid", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	register := map[string]any{
		"username":        "Jane",
		"email":           "jane@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	}
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/auth/register", register).Code)
	rec = env.do(t, http.MethodPost, "/api/auth/register", register)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "auth/email-already-in-use", decode(t, rec)["code"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth/user-not-found", decode(t, rec)["code"])

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestAuthStatusMapping(t *testing.T) {
	cases := map[identity.Kind]int{
		identity.KindWrongPassword:     http.StatusUnauthorized,
		identity.KindUserNotFound:      http.StatusUnauthorized,
		identity.KindUserDisabled:      http.StatusForbidden,
		identity.KindEmailAlreadyInUse: http.StatusConflict,
		identity.KindTooManyRequests:   http.StatusTooManyRequests,
		identity.KindInvalidEmail:      http.StatusBadRequest,
		identity.KindUnexpected:        http.StatusBadGateway,
	}
	for _, kind := range identity.Kinds {
		assert.Equal(t, cases[kind], authStatus(kind), kind.Code())
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	register := map[string]any{
		"username":        "Jane",
		"email":           "jane@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	}
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/auth/register", register).Code)

	rec := env.do(t, http.MethodPost, "/api/auth/password-reset", map[string]any{"email": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset", map[string]any{"email": "jane@example.com"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, service.PasswordResetSent, decode(t, rec)["banner"])
	require.Len(t, env.mailer.links, 1)

	link, err := url.Parse(env.mailer.links[0])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	rec = env.do(t, http.MethodGet, "/reset-password?token="+url.QueryEscape(token), nil)
	assert.Contains(t, rec.Body.String(), "Choose a New Password")

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]any{"token": token, "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]any{"token": token, "password": "ééééééé"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]any{"token": token, "password": strings.Repeat("a", 73)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes long.", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]any{"token": token, "password": "newsecret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]any{"token": token, "password": "newsecret2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "jane@example.com", "password": "newsecret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingWizardFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	var confirmed []events.BookingRequestPayload
	env.bus.Subscribe(events.EventBookingRequestConfirmed, func(e *events.Event) error {
		var p events.BookingRequestPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		confirmed = append(confirmed, p)
		return nil
	})

	rec := env.do(t, http.MethodGet, "/api/v1/booking", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "flight_details", decode(t, rec)["stage_name"])

	rec = env.do(t, http.MethodPatch, "/api/v1/booking/draft", map[string]any{
		"departure":  "New York, United States (JFK)",
		"arrival":    "LHR",
		"date":       flightDate(),
		"passengers": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 2991, body["distance_nm"])
	assert.Len(t, body["options"], 2)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "aircraft_selection", decode(t, rec)["stage_name"])

	rec = env.do(t, http.MethodPost, "/api/v1/booking/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Please select an aircraft", decode(t, rec)["errors"].(map[string]any)[models.FieldSelectedAircraft])

	rec = env.do(t, http.MethodPost, "/api/v1/booking/aircraft", map[string]any{"aircraft_id": "42"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/aircraft", map[string]any{"aircraft_id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", decode(t, rec)["draft"].(map[string]any)["selected_aircraft_id"])

	rec = env.do(t, http.MethodPost, "/api/v1/booking/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payment", decode(t, rec)["stage_name"])

	rec = env.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), "Submit Booking Request")

	rec = env.do(t, http.MethodPost, "/api/v1/booking/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "confirmed", body["stage_name"])
	assert.Contains(t, body["message"], "Thank you for your booking request!")

	require.Len(t, confirmed, 1)
	assert.Equal(t, "1", confirmed[0].AircraftID)
	assert.Equal(t, 4, confirmed[0].Passengers)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/booking", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "flight_details", decode(t, rec)["stage_name"])
}

func TestBookingBlockedAndRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPatch, "/api/v1/booking/draft", map[string]any{
		"arrival":    "LHR",
		"date":       flightDate(),
		"passengers": "2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	errs := body["errors"].(map[string]any)
	assert.Len(t, errs, 1)
	assert.Equal(t, "Departure airport is required", errs[models.FieldDeparture])
	assert.Equal(t, "flight_details", body["booking"].(map[string]any)["stage_name"])

	// the blocked errors survive a reload
	rec = env.do(t, http.MethodGet, "/api/v1/booking", nil)
	assert.Contains(t, decode(t, rec)["errors"], models.FieldDeparture)

	rec = env.do(t, http.MethodPatch, "/api/v1/booking/draft", map[string]any{"cabin": "first"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/booking/draft", map[string]any{"passengers": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/booking/aircraft", map[string]any{"aircraft_id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestContactEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"name":    "Jane",
		"email":   "jane@example.com",
		"subject": "Charter",
		"message": "Do you fly to Tirana?",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, service.ContactReply, decode(t, rec)["message"])
	require.Len(t, env.dispatcher.inquiries, 1)
	assert.Equal(t, models.InquiryGeneral, env.dispatcher.inquiries[0].InquiryType)

	rec = env.do(t, http.MethodPost, "/api/v1/contact", map[string]any{"name": "Jane", "email": "jane@"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Equal(t, "Please enter a valid email", errs["email"])
	assert.Contains(t, errs, "subject")
	assert.Contains(t, errs, "message")

	env.dispatcher.err = errors.New("queue full")
	rec = env.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"name":    "Jane",
		"email":   "jane@example.com",
		"subject": "Charter",
		"message": "Hello",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateCardRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.API.Auth.Enabled = true
		cfg.API.Auth.APIKeys = []config.APIClientKey{
			{Key: "ops", Extra: "ops-extra", Name: "ops", Permissions: []string{permExportRateCard}},
			{Key: "reader", Extra: "reader-extra", Name: "reader", Permissions: []string{permReadAirports}},
		}
	})

	rec := env.do(t, http.MethodGet, "/api/v1/admin/rate-card.xlsx", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/rate-card.xlsx", nil, "x-api-key", "ops", "x-api-extra", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/rate-card.xlsx", nil, "x-api-key", "reader", "x-api-extra", "reader-extra")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/rate-card.xlsx", nil, "x-api-key", "ops", "x-api-extra", "ops-extra")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rate-card-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestAdminDisablesAccount(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.API.Auth.Enabled = true
		cfg.API.Auth.APIKeys = []config.APIClientKey{
			{Key: "ops", Extra: "ops-extra", Name: "ops", Permissions: []string{permManageAccounts}},
			{Key: "exporter", Extra: "exporter-extra", Name: "exporter", Permissions: []string{permExportRateCard}},
		}
	})
	user, err := env.provider.CreateAccount(context.Background(), "elsewhere", "pilot@example.com", "secret123")
	require.NoError(t, err)

	login := map[string]any{"email": "pilot@example.com", "password": "secret123"}
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/login", login).Code)

	path := "/api/v1/admin/accounts/" + user.UID + "/disabled"
	rec := env.do(t, http.MethodPut, path, map[string]any{"disabled": true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]any{"disabled": true}, "x-api-key", "exporter", "x-api-extra", "exporter-extra")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]any{}, "x-api-key", "ops", "x-api-extra", "ops-extra")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/admin/accounts/ghost/disabled", map[string]any{"disabled": true}, "x-api-key", "ops", "x-api-extra", "ops-extra")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, path, map[string]any{"disabled": true}, "x-api-key", "ops", "x-api-extra", "ops-extra")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["disabled"])

	rec = env.do(t, http.MethodGet, "/api/auth/session", nil)
	assert.Equal(t, false, decode(t, rec)["session"].(map[string]any)["signed_in"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", login)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "This account has been disabled", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPut, path, map[string]any{"disabled": false}, "x-api-key", "ops", "x-api-extra", "ops-extra")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/auth/login", login).Code)
}

func TestAdminRoutesHiddenWithoutAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/rate-card.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decode(t, rec)["error"])
}

func TestHTTPRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.API.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/healthz", nil).Code)

	// a separate API key gets its own bucket
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, "x-api-key", "other").Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.API.CORS.AllowedOrigins = []string{"https://jetpage.example"}
	})

	rec := env.do(t, http.MethodOptions, "/api/v1/contact", nil,
		"Origin", "https://jetpage.example",
		"Access-Control-Request-Method", http.MethodPost)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://jetpage.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
