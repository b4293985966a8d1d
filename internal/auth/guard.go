package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

// Guard is an authorization predicate evaluated against a resolved principal.
type Guard func(principal model.Principal) error

func RoleIs(kinds ...model.Kind) Guard {
	return func(principal model.Principal) error {
		for _, kind := range kinds {
			if principal.Kind == kind {
				return nil
			}
		}
		return apperr.Forbidden("forbidden_role", "not authorized to access this resource")
	}
}

func OwnerOrPrivileged(ownerID int64) Guard {
	return func(principal model.Principal) error {
		if principal.ID == ownerID || principal.Kind.Privileged() {
			return nil
		}
		return apperr.Forbidden("forbidden_owner", "not authorized to access this resource")
	}
}

func Check(principal model.Principal, guards ...Guard) error {
	for _, guard := range guards {
		if err := guard(principal); err != nil {
			return err
		}
	}
	return nil
}

// Authenticate resolves the Authorization header of a request. Every token failure
// is reported as invalid_token; the wrapped cause keeps the precise reason for logs.
func (r *Resolver) Authenticate(ctx context.Context, authorization string) (model.Principal, error) {
	token := BearerToken(authorization)
	if token == "" {
		return model.Principal{}, apperr.Unauthorized("missing_token", nil)
	}
	principal, _, err := r.ResolveFlexible(ctx, token)
	if err != nil {
		return model.Principal{}, classify(err)
	}
	return principal, nil
}

// AuthenticateAs is Authenticate restricted to a single principal kind.
func (r *Resolver) AuthenticateAs(ctx context.Context, authorization string, kind model.Kind) (model.Principal, error) {
	token := BearerToken(authorization)
	if token == "" {
		return model.Principal{}, apperr.Unauthorized("missing_token", nil)
	}
	principal, err := r.Resolve(ctx, token, kind)
	if err != nil {
		if errors.Is(err, ErrKindMismatch) {
			forbidden := apperr.Forbidden("forbidden_role", "not authorized to access this resource")
			forbidden.Err = err
			return model.Principal{}, forbidden
		}
		return model.Principal{}, classify(err)
	}
	return principal, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrPrincipalNotFound):
		return apperr.Unauthorized("invalid_token", err)
	default:
		return apperr.Internal(err)
	}
}

func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Reason extracts the internal token failure reason for logging and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, ErrKindMismatch):
		return "kind_mismatch"
	default:
		return "missing"
	}
}
