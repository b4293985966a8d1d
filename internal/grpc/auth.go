package grpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const serviceTokenHeader = "x-service-token"

var errServiceTokenRequired = errors.New("service auth token required")

// serviceTokenCheck compares the caller's x-service-token (or bearer authorization)
// metadata against the configured token.
type serviceTokenCheck struct {
	expected []byte
}

func newServiceTokenCheck(expectedToken string) (serviceTokenCheck, error) {
	if expectedToken == "" {
		return serviceTokenCheck{}, errServiceTokenRequired
	}
	return serviceTokenCheck{expected: []byte(expectedToken)}, nil
}

func (c serviceTokenCheck) verify(ctx context.Context) error {
	token := serviceTokenFromMetadata(ctx)
	if token == "" {
		return status.Error(codes.Unauthenticated, "missing_service_token")
	}
	if subtle.ConstantTimeCompare([]byte(token), c.expected) != 1 {
		return status.Error(codes.PermissionDenied, "invalid_service_token")
	}
	return nil
}

func NewServiceAuthUnaryInterceptor(expectedToken string) (grpc.UnaryServerInterceptor, error) {
	check, err := newServiceTokenCheck(expectedToken)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := check.verify(ctx); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}, nil
}

// NewServiceAuthStreamInterceptor guards streaming calls such as Health/Watch.
func NewServiceAuthStreamInterceptor(expectedToken string) (grpc.StreamServerInterceptor, error) {
	check, err := newServiceTokenCheck(expectedToken)
	if err != nil {
		return nil, err
	}
	return func(srv any, stream grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := check.verify(stream.Context()); err != nil {
			return err
		}
		return handler(srv, stream)
	}, nil
}

func serviceTokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(serviceTokenHeader); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	if values := md.Get("authorization"); len(values) > 0 {
		scheme, token, found := strings.Cut(strings.TrimSpace(values[0]), " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
