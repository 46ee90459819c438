package recipe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/recipe-api/internal/auth"
	"github.com/redmonkez12/recipe-api/internal/httputil"
	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/recipe"
)

// fakeAuth stands in for auth.Middleware by reading the caller from a header.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if _, err := fmt.Sscan(r.Header.Get("X-User-ID"), &id); err == nil && id > 0 {
			r = r.WithContext(context.WithValue(r.Context(), auth.UserIDContextKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

type handlerEnv struct {
	router http.Handler
	chef1  int64
	chef2  int64
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	svc, db := newService(t)
	handler := recipe.NewHandler(svc, logging.Discard())

	r := chi.NewRouter()
	r.Use(fakeAuth)
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Patch("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})

	return &handlerEnv{
		router: r,
		chef1:  createUser(t, db, "chef1").ID,
		chef2:  createUser(t, db, "chef2").ID,
	}
}

func (e *handlerEnv) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprint(userID))

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return buf.String()
}

func TestHandler_CreateAndGet(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/recipes", env.chef1, jsonBody(t, map[string]any{
		"title":               "Soup",
		"instructions":        soupInstructions,
		"minutes_to_complete": 40,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[recipe.RecipeResponse](t, rec)
	assert.Equal(t, "Soup", created.Title)
	assert.Equal(t, env.chef1, created.UserID)
	require.NotNil(t, created.Owner)
	assert.Equal(t, "chef1", created.Owner.Username)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/recipes/%d", created.ID), env.chef2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40, *decodeBody[recipe.RecipeResponse](t, rec).MinutesToComplete)
}

func TestHandler_CreateValidation(t *testing.T) {
	env := newHandlerEnv(t)

	cases := map[string]string{
		"too short":        `{"title":"Soup","instructions":"too short"}`,
		"empty title":      fmt.Sprintf(`{"title":"","instructions":%q}`, soupInstructions),
		"negative minutes": fmt.Sprintf(`{"title":"Soup","instructions":%q,"minutes_to_complete":-5}`, soupInstructions),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/recipes", env.chef1, body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, httputil.CodeValidationFailed, decodeBody[httputil.ErrorResponse](t, rec).Code)
		})
	}

	rec := env.do(t, http.MethodPost, "/recipes", env.chef1, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_List(t *testing.T) {
	env := newHandlerEnv(t)

	for _, owner := range []int64{env.chef1, env.chef1, env.chef2} {
		rec := env.do(t, http.MethodPost, "/recipes", owner, jsonBody(t, recipe.CreateRecipeRequest{
			Title:        "Soup",
			Instructions: soupInstructions,
		}))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/recipes", env.chef1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[recipe.ListResponse](t, rec).Recipes, 3)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/recipes?user_id=%d", env.chef2), env.chef1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[recipe.ListResponse](t, rec).Recipes, 1)

	rec = env.do(t, http.MethodGet, "/recipes?limit=1&offset=1", env.chef1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[recipe.ListResponse](t, rec).Recipes, 1)

	rec = env.do(t, http.MethodGet, "/recipes?limit=abc", env.chef1, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidQuery, decodeBody[httputil.ErrorResponse](t, rec).Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/recipes", env.chef1, fmt.Sprintf(
		`{"title":"Soup","instructions":%q,"minutes_to_complete":15}`, soupInstructions))
	require.Equal(t, http.StatusCreated, rec.Code)
	path := fmt.Sprintf("/recipes/%d", decodeBody[recipe.RecipeResponse](t, rec).ID)

	rec = env.do(t, http.MethodPatch, path, env.chef2, `{"title":"Mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path, env.chef1, `{"title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// omitted minutes stay, explicit null clears
	rec = env.do(t, http.MethodPatch, path, env.chef1, `{"title":"Winter Soup"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[recipe.RecipeResponse](t, rec)
	assert.Equal(t, "Winter Soup", updated.Title)
	require.NotNil(t, updated.MinutesToComplete)
	assert.Equal(t, 15, *updated.MinutesToComplete)

	rec = env.do(t, http.MethodPatch, path, env.chef1, `{"minutes_to_complete":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[recipe.RecipeResponse](t, rec).MinutesToComplete)

	rec = env.do(t, http.MethodDelete, path, env.chef2, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, path, env.chef1, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, env.chef1, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_InvalidID(t *testing.T) {
	env := newHandlerEnv(t)

	for _, path := range []string{"/recipes/abc", "/recipes/0", "/recipes/-1"} {
		rec := env.do(t, http.MethodGet, path, env.chef1, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, httputil.CodeInvalidID, decodeBody[httputil.ErrorResponse](t, rec).Code)
	}
}

func TestHandler_RequiresCaller(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/recipes", 0, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
