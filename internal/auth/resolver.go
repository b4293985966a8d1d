package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

var (
	ErrPrincipalNotFound = errors.New("principal_not_found")
	ErrKindMismatch      = errors.New("kind_mismatch")
)

type PrincipalFinder interface {
	FindPrincipal(ctx context.Context, id int64, kind model.Kind) (model.Principal, error)
}

// Resolver turns a bearer token into the stored principal it names.
type Resolver struct {
	tokens *TokenService
	store  PrincipalFinder
}

func NewResolver(tokens *TokenService, store PrincipalFinder) *Resolver {
	return &Resolver{tokens: tokens, store: store}
}

// Resolve requires the token to name a principal of the given kind.
func (r *Resolver) Resolve(ctx context.Context, token string, kind model.Kind) (model.Principal, error) {
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return model.Principal{}, err
	}
	if claims.Kind() != kind {
		return model.Principal{}, ErrKindMismatch
	}
	return r.load(ctx, claims.UserID, kind)
}

// ResolveFlexible accepts any principal kind and reports which one it found.
func (r *Resolver) ResolveFlexible(ctx context.Context, token string) (model.Principal, model.Kind, error) {
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return model.Principal{}, "", err
	}
	kind := claims.Kind()
	principal, err := r.load(ctx, claims.UserID, kind)
	if err != nil {
		return model.Principal{}, "", err
	}
	return principal, kind, nil
}

func (r *Resolver) load(ctx context.Context, id int64, kind model.Kind) (model.Principal, error) {
	principal, err := r.store.FindPrincipal(ctx, id, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Principal{}, ErrPrincipalNotFound
		}
		return model.Principal{}, fmt.Errorf("load principal %d: %w", id, err)
	}
	return principal, nil
}
