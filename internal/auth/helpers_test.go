package auth_test

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/recipe-api/internal/auth"
	"github.com/redmonkez12/recipe-api/internal/database/dbtest"
	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/user"
)

type testEnv struct {
	db         *bun.DB
	redis      *miniredis.Miniredis
	users      *user.Repository
	sessions   *auth.RedisSessionStore
	tokens     *auth.PasetoService
	service    *auth.Service
	middleware *auth.Middleware
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tokens, err := auth.NewPasetoService(key)
	require.NoError(t, err)

	mr, client := newRedis(t)
	db := dbtest.New(t)
	users := user.NewRepository(db)
	sessions := auth.NewRedisSessionStore(client)
	logger := logging.Discard()

	env := &testEnv{
		db:       db,
		redis:    mr,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		service:  auth.NewService(users, sessions, tokens, logger, time.Hour),
	}
	env.middleware = auth.NewMiddleware(tokens, sessions)

	handler := auth.NewHandler(env.service, logger)
	r := chi.NewRouter()
	r.Post("/auth/signup", handler.Signup)
	r.Post("/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(env.middleware.RequireAuth)
		r.Get("/auth/me", handler.Me)
		r.Delete("/auth/logout", handler.Logout)
		r.Patch("/users/me", handler.UpdateMe)
		r.Delete("/users/me", handler.DeleteMe)
	})
	env.router = r

	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
