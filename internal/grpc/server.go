package grpc

import (
	"context"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"realtime-service/internal/observability"
)

// ServiceName is the health service name reported for the realtime hub.
const ServiceName = "realtime.Hub"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// Server is the internal gRPC listener. It exposes the standard health
// service, fed by periodic dependency probes.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	probes   map[string]Probe
	interval time.Duration
}

// NewServer builds the gRPC server with tracing and metrics interceptors.
func NewServer(probes map[string]Probe, interval time.Duration) *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Server{srv: srv, health: hs, probes: probes, interval: interval}
}

// Check runs every probe once and updates the serving status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			log.Printf("health probe failed name=%s: %v", name, err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve runs probes in the background and blocks serving on lis.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, s.interval)
				s.Check(checkCtx)
				cancel()
			}
		}
	}()
	log.Printf("grpc listening addr=%s", lis.Addr())
	return s.srv.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
