package port

import "context"

// TokenClaims carries the subject data extracted from a verified access token.
type TokenClaims struct {
	UserID    string
	Email     string
	ExpiresAt int64
}

// TokenVerifier validates access tokens issued by the identity provider.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}
