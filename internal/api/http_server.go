package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"jetcharter/internal/config"
	"jetcharter/internal/logging"
	"jetcharter/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PasswordResetter completes a reset with the token from the emailed link.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AccountAdmin blocks and restores accounts from the admin API.
type AccountAdmin interface {
	SetAccountDisabled(ctx context.Context, uid string, disabled bool) error
}

// Services are the use cases the HTTP API exposes. Resetter and Accounts are optional.
type Services struct {
	Auth     *service.AuthService
	Booking  *service.BookingService
	Contact  *service.ContactService
	Resetter PasswordResetter
	Accounts AccountAdmin
}

// HTTPServer serves the landing page and the JSON API.
type HTTPServer struct {
	cfg    *config.Config
	svc    Services
	engine *gin.Engine
	server *http.Server
	page   *template.Template
	log    *zerolog.Logger
	now    func() time.Time
}

func NewHTTPServer(cfg *config.Config, svc Services, logger *zerolog.Logger) (*HTTPServer, error) {
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	srv := &HTTPServer{
		cfg:  cfg,
		svc:  svc,
		page: page,
		log:  logging.Component(logger, "http"),
		now:  time.Now,
	}
	srv.engine = srv.routes(logger)
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           srv.engine,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv, nil
}

// Handler is the gin engine, exposed for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes(logger *zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), gin.Recovery(), Metrics())
	if corsMW := CORS(s.cfg.API.CORS); corsMW != nil {
		r.Use(corsMW)
	}
	r.Use(RateLimit(s.cfg.API.RateLimit, s.cfg.API.Auth.HeaderAPIKey), SessionCookie(s.cfg.API.HTTP.SecureCookie))

	if err := r.SetTrustedProxies(nil); err != nil {
		s.log.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/", s.handleIndex)
	r.GET("/reset-password", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	r.GET("/airports", s.handleDirectory)

	auth := r.Group("/api/auth")
	auth.POST("/login", s.handleLogin)
	auth.POST("/register", s.handleRegister)
	auth.POST("/logout", s.handleLogout)
	auth.POST("/password-reset", s.handlePasswordReset)
	auth.POST("/password-reset/confirm", s.handlePasswordResetConfirm)
	auth.GET("/session", s.handleSession)
	auth.GET("/me", s.handleMe)

	v1 := r.Group("/api/v1")
	v1.GET("/airports", s.handleAirportSuggestions)
	v1.GET("/airports/validate", s.handleAirportValidate)
	v1.GET("/aircraft", s.handleAircraft)
	v1.GET("/route", s.handleRoute)

	booking := v1.Group("/booking")
	booking.GET("", s.handleBookingView)
	booking.PATCH("/draft", s.handleBookingDraft)
	booking.POST("/next", s.handleBookingNext)
	booking.POST("/back", s.handleBookingBack)
	booking.POST("/aircraft", s.handleBookingAircraft)
	booking.POST("/confirm", s.handleBookingConfirm)
	booking.DELETE("", s.handleBookingReset)

	v1.POST("/contact", s.handleContact)

	if s.cfg.API.Auth.Enabled {
		admin := v1.Group("/admin")
		admin.GET("/rate-card.xlsx", RequireAPIKey(s.cfg.API.Auth, permExportRateCard), s.handleRateCard)
		if s.svc.Accounts != nil {
			admin.PUT("/accounts/:uid/disabled", RequireAPIKey(s.cfg.API.Auth, permManageAccounts), s.handleAccountDisabled)
		}
	}

	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// internalError logs err against the request and answers 500.
func (s *HTTPServer) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	s.log.Error().Err(err).
		Str("request_id", GetRequestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
