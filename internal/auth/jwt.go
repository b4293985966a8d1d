package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

const DefaultAccessTokenTTL = 30 * time.Minute

var (
	ErrTokenExpired   = errors.New("token_expired")
	ErrTokenMalformed = errors.New("token_malformed")
)

type Claims struct {
	UserID   int64  `json:"user_id,omitempty"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

func (c *Claims) Kind() model.Kind {
	kind, _ := model.ParseKind(c.UserType)
	return kind
}

// TokenService signs and verifies HS256 access tokens with one process-wide secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(principalID int64, kind model.Kind) (string, error) {
	return s.IssueWithTTL(principalID, kind, s.ttl)
}

func (s *TokenService) IssueWithTTL(principalID int64, kind model.Kind, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		UserID:   principalID,
		UserType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principalID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, then expiry, then the presence of the principal id.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}
	if _, ok := model.ParseKind(claims.UserType); !ok {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
