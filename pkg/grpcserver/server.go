// Package grpcserver runs the gRPC health service used by orchestrator probes.
package grpcserver

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported next to the overall ("") status.
const ServiceName = "inventory"

type Server struct {
	addr   string
	lis    net.Listener
	health *health.Server
	log    zerolog.Logger
	Server *grpc.Server
}

func New(addr string, log zerolog.Logger) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	srv := &Server{
		addr:   addr,
		health: hs,
		log:    log.With().Str("component", "grpc").Logger(),
		Server: s,
	}
	srv.SetServing(false)
	return srv
}

// Listen binds the address. Start calls it when needed.
func (s *Server) Listen() error {
	if s.lis != nil {
		return nil
	}
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.lis = lis
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log.Info().Str("addr", s.lis.Addr().String()).Msg("gRPC health server listening")
	return s.Server.Serve(s.lis)
}

// SetServing flips both the overall and the service status.
func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Monitor runs check every interval and publishes the result until ctx is done.
func (s *Server) Monitor(ctx context.Context, interval time.Duration, check func(ctx context.Context) error) {
	probe := func() {
		cctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := check(cctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
		}
		s.SetServing(err == nil)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// Stop reports NOT_SERVING to every watcher and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.Server.GracefulStop()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
