package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arklim/social-platform-feed/internal/core/port"
)

var (
	// ErrTokenExpired indicates the access token lifetime has elapsed.
	ErrTokenExpired = errors.New("security: access token expired")
	// ErrTokenInvalid indicates the token is malformed or its signature failed validation.
	ErrTokenInvalid = errors.New("security: invalid access token")
)

// AccessTokenVerifier validates identity-provider access tokens locally.
// The identity provider signs with HS256 using a shared project secret.
type AccessTokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewAccessTokenVerifier constructs a verifier for the shared signing secret.
func NewAccessTokenVerifier(secret string) (*AccessTokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("security: jwt secret is required")
	}
	return &AccessTokenVerifier{secret: []byte(secret), leeway: 30 * time.Second}, nil
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// VerifyAccessToken parses and validates the supplied token, returning its claims.
func (v *AccessTokenVerifier) VerifyAccessToken(_ context.Context, token string) (*port.TokenClaims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	out := &port.TokenClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return out, nil
}
