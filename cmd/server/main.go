package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jetcharter/internal/api"
	"jetcharter/internal/catalog"
	"jetcharter/internal/config"
	"jetcharter/internal/database"
	"jetcharter/internal/domain"
	"jetcharter/internal/events"
	"jetcharter/internal/google"
	"jetcharter/internal/identity"
	"jetcharter/internal/logging"
	"jetcharter/internal/metrics"
	"jetcharter/internal/notify"
	"jetcharter/internal/repository"
	"jetcharter/internal/service"
	"jetcharter/internal/session"
	"jetcharter/internal/validation"
	"jetcharter/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	fleet, err := loadFleet(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	stateRepo := initStateRepository(cfg, redisClient, &logger)

	eventBus := events.NewEventBus()

	provider, err := identity.NewLocalProvider(db, stateRepo, eventBus, identity.NewLogMailer(&logger), identity.LocalOptions{
		TokenSecret: []byte(cfg.Identity.TokenSecret),
		TokenTTL:    time.Duration(cfg.Identity.TokenTTLMinutes) * time.Minute,
		Issuer:      cfg.Identity.Issuer,
		BcryptCost:  cfg.Identity.BcryptCost,
		ResetTTL:    time.Duration(cfg.Identity.ResetTTLMinutes) * time.Minute,
		ResetURL:    cfg.Identity.ResetURL,
	}, &logger)
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}
	go purgeExpiredResets(ctx, db, &logger)

	tracker := session.NewTracker(provider, stateRepo, &logger)
	if err := tracker.Mount(); err != nil {
		return err
	}
	defer tracker.Unmount()

	sinks, unsubscribeSinks := initSinks(ctx, cfg, eventBus, &logger)
	defer unsubscribeSinks()
	inquiryWorker := worker.NewInquiryWorker(sinks, redisClient, worker.RetryPolicyFromConfig(cfg.Worker), &logger)
	go inquiryWorker.Start(ctx)
	logger.Info().Strs("sinks", inquiryWorker.Sinks()).Msg("inquiry worker started")

	states := service.NewStateService(stateRepo, &logger)
	services := api.Services{
		Auth:     service.NewAuthService(provider, states, validation.SignUpRulesFor(cfg.Forms.SignUpVariant, cfg.Forms.RequireTerms), &logger),
		Booking:  service.NewBookingService(states, fleet, eventBus, &logger),
		Contact:  service.NewContactService(inquiryWorker, eventBus, &logger),
		Resetter: provider,
		Accounts: provider,
	}

	httpServer, err := api.NewHTTPServer(cfg, services, &logger)
	if err != nil {
		return err
	}

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, &logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, &logger)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	inquiryWorker.Stop(stopCtx)
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

// loadFleet reads the aircraft list from catalog.fleet_path, falling back to
// the built-in fleet when no path is configured.
func loadFleet(cfg *config.Config, logger *zerolog.Logger) (catalog.Fleet, error) {
	path := cfg.Catalog.FleetPath
	if path == "" {
		logger.Info().Msg("no fleet file configured, using built-in fleet")
		return catalog.DefaultFleet(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("fleet_path", path).Msg("read fleet")
		return nil, err
	}

	var fleetConfig struct {
		Aircraft catalog.Fleet `yaml:"aircraft"`
	}
	if err := yaml.Unmarshal(data, &fleetConfig); err != nil {
		logger.Error().Err(err).Str("fleet_path", path).Msg("parse fleet")
		return nil, err
	}
	if err := catalog.ValidateFleet(fleetConfig.Aircraft); err != nil {
		return nil, fmt.Errorf("fleet %s: %w", path, err)
	}

	logger.Info().Int("aircraft", len(fleetConfig.Aircraft)).Str("fleet_path", path).Msg("fleet loaded")
	return fleetConfig.Aircraft, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStateRepository keeps sessions in redis when it is reachable and falls
// back to process memory while it is not.
func initStateRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	ttl := time.Duration(cfg.Redis.StateTTLSeconds) * time.Second
	memory := repository.NewMemoryStateRepository(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverStateRepository(repository.NewRedisStateRepository(redisClient, ttl), memory, logger)
}

// initSinks returns the configured inquiry sinks and a func that drops their
// event bus subscriptions.
func initSinks(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) ([]domain.InquirySink, func()) {
	var sinks []domain.InquirySink
	unsubscribe := func() {}

	if cfg.Telegram.BotToken != "" {
		bot, err := notify.NewBotAPI(cfg.Telegram)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		} else {
			concierge := notify.NewConcierge(bot, cfg.Telegram.ChatID, logger)
			unsubscribe = concierge.Subscribe(bus)
			sinks = append(sinks, concierge)
			logger.Info().Str("bot", bot.Self.UserName).Msg("telegram connected")
		}
	}

	if cfg.Google.InquirySpreadsheetID != "" {
		sheet, err := google.NewInquirySheet(ctx, cfg.Google.CredentialsFile, cfg.Google.InquirySpreadsheetID, cfg.Google.InquirySheetName)
		if err != nil {
			logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		} else if err := sheet.EnsureHeader(ctx); err != nil {
			evt := logger.Warn().Err(err)
			if email, emailErr := google.ServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
				evt = evt.Str("share_with", email)
			}
			evt.Msg("google sheets header check failed, continuing without sheets")
		} else {
			sinks = append(sinks, sheet)
			logger.Info().Str("sheet", cfg.Google.InquirySheetName).Msg("google sheets connected")
		}
	}

	if len(sinks) == 0 {
		logger.Warn().Msg("no inquiry sinks configured, contact messages are only logged")
	}
	return sinks, unsubscribe
}

// purgeExpiredResets deletes stale password reset tokens once an hour.
func purgeExpiredResets(ctx context.Context, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := db.PurgeExpiredResets(ctx, now)
			if err != nil {
				logger.Error().Err(err).Msg("purge expired resets")
				continue
			}
			if n > 0 {
				logger.Info().Int64("purged", n).Msg("expired password resets removed")
			}
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	evt := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		evt = evt.Str("grpc_addr", grpcServer.Addr())
	}
	evt.Msg("server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
