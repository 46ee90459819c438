package auth

import (
	"context"
	"time"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID int64, username, sessionID string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// SessionStore keeps the server side of a login so tokens can be revoked
// before they expire.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (int64, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAll(ctx context.Context, userID int64) error
	RevokeOthers(ctx context.Context, userID int64, keepSessionID string) error
}
