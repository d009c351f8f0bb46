package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"jetcharter/internal/config"
	"jetcharter/internal/logging"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const grpcShutdownTimeout = 10 * time.Second

type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      *zerolog.Logger
}

func NewGRPCServer(cfg *config.APIConfig, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return NewGRPCServerWithListener(cfg, lis, logger), nil
}

// NewGRPCServerWithListener serves on lis; tests pass a bufconn listener.
func NewGRPCServerWithListener(cfg *config.APIConfig, lis net.Listener, logger *zerolog.Logger) *GRPCServer {
	auth := NewAuthInterceptor(cfg)
	unary := ChainUnaryInterceptors(
		LoggingUnaryInterceptor(logger),
		MetricsUnaryInterceptor(),
		auth.Unary(),
	)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(unary))

	RegisterAirportLookupServer(grpcServer, NewAirportLookupService())

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(airportLookupServiceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	return &GRPCServer{
		server:   grpcServer,
		health:   healthServer,
		listener: lis,
		log:      logging.Component(logger, "grpc"),
	}
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

// Shutdown reports NOT_SERVING, then drains in-flight calls until ctx ends.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	case <-time.After(grpcShutdownTimeout):
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	}
}
