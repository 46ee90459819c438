package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/recipe-api/internal/httputil"
	"github.com/redmonkez12/recipe-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey    ContextKey = "user_id"
	UsernameContextKey  ContextKey = "username"
	SessionIDContextKey ContextKey = "session_id"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	sessions     SessionStore
}

func NewMiddleware(tokenService TokenService, sessions SessionStore) *Middleware {
	return &Middleware{tokenService: tokenService, sessions: sessions}
}

// RequireAuth validates the bearer token and checks that its session is still live
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		sessionUserID, err := m.sessions.Get(r.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httputil.RespondErrorWithCode(w, "session has been revoked", httputil.CodeSessionRevoked, http.StatusUnauthorized)
				return
			}
			logging.GetLoggerFromContext(r.Context()).Error("failed to look up session", "error", err)
			httputil.RespondErrorWithCode(w, "failed to authenticate", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
		if sessionUserID != claims.UserID {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameContextKey, claims.Username)
		ctx = context.WithValue(ctx, SessionIDContextKey, claims.SessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}

// GetUsernameFromContext extracts the username from the request context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameContextKey).(string)
	return username, ok
}

// GetSessionIDFromContext extracts the session ID from the request context
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDContextKey).(string)
	return sessionID, ok
}
