package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service key reported alongside the overall "" status.
const ServiceName = "telemedicine.api"

// NewServer returns a gRPC server exposing the standard health service. The service
// token interceptor is installed only when serviceToken is set.
func NewServer(serviceToken string, logger zerolog.Logger) (*grpc.Server, *health.Server, error) {
	unary := []grpc.UnaryServerInterceptor{loggingInterceptor(logger)}
	var stream []grpc.StreamServerInterceptor
	if serviceToken != "" {
		unaryAuth, err := NewServiceAuthUnaryInterceptor(serviceToken)
		if err != nil {
			return nil, nil, err
		}
		streamAuth, err := NewServiceAuthStreamInterceptor(serviceToken)
		if err != nil {
			return nil, nil, err
		}
		unary = append(unary, unaryAuth)
		stream = append(stream, streamAuth)
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(unary...), grpc.ChainStreamInterceptor(stream...))
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	return server, healthServer, nil
}

// SetServing flips both the overall and the named service status.
func SetServing(healthServer *health.Server, serving bool) {
	state := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		state = healthpb.HealthCheckResponse_SERVING
	}
	healthServer.SetServingStatus("", state)
	healthServer.SetServingStatus(ServiceName, state)
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")
		return resp, err
	}
}
