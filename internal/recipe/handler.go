package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/recipe-api/internal/auth"
	"github.com/redmonkez12/recipe-api/internal/httputil"
	"github.com/redmonkez12/recipe-api/internal/logging"
)

// Handler contains HTTP handlers for recipe endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreateRecipeRequest represents the recipe creation body
type CreateRecipeRequest struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	MinutesToComplete *int   `json:"minutes_to_complete,omitempty"`
}

// UpdateRecipeRequest represents a partial recipe update. Sending
// minutes_to_complete as null clears it.
type UpdateRecipeRequest struct {
	Title             *string     `json:"title,omitempty"`
	Instructions      *string     `json:"instructions,omitempty"`
	MinutesToComplete NullableInt `json:"minutes_to_complete" swaggertype:"integer"`
}

// NullableInt tells an absent JSON field apart from an explicit null.
type NullableInt struct {
	Set   bool
	Value *int
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// RecipeResponse represents a recipe in API responses
type RecipeResponse struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	Instructions      string             `json:"instructions"`
	MinutesToComplete *int               `json:"minutes_to_complete"`
	UserID            int64              `json:"user_id"`
	Owner             *auth.UserResponse `json:"owner,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ListResponse wraps a page of recipes
type ListResponse struct {
	Recipes []RecipeResponse `json:"recipes"`
}

// NewRecipeResponse converts a recipe into its public form
func NewRecipeResponse(rec *Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:                rec.ID,
		Title:             rec.Title(),
		Instructions:      rec.Instructions(),
		MinutesToComplete: rec.MinutesToComplete(),
		UserID:            rec.UserID,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
	if rec.Owner != nil {
		owner := auth.NewUserResponse(rec.Owner)
		resp.Owner = &owner
	}
	return resp
}

// List returns recipes, optionally only those of one user
// @Summary      List recipes
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        user_id query int false "Only recipes owned by this user"
// @Param        limit   query int false "Page size (default 50, max 100)"
// @Param        offset  query int false "Number of recipes to skip"
// @Success      200 {object} ListResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid query parameter"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /recipes [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	filter, err := parseListFilter(r)
	if err != nil {
		respondError(w, err.Error(), httputil.CodeInvalidQuery, http.StatusBadRequest)
		return
	}

	recipes, err := h.service.List(r.Context(), filter)
	if err != nil {
		logger.Error("failed to list recipes", "error", err.Error())
		respondError(w, "failed to list recipes", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	resp := ListResponse{Recipes: make([]RecipeResponse, 0, len(recipes))}
	for _, rec := range recipes {
		resp.Recipes = append(resp.Recipes, NewRecipeResponse(rec))
	}

	respondJSON(w, resp, http.StatusOK)
}

// Create stores a new recipe owned by the caller
// @Summary      Create recipe
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRecipeRequest true "Recipe"
// @Success      201 {object} RecipeResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /recipes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateRecipeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid recipe request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	rec, err := h.service.Create(r.Context(), userID, CreateInput(req))
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create recipe")
		return
	}

	respondJSON(w, NewRecipeResponse(rec), http.StatusCreated)
}

// Get returns one recipe
// @Summary      Get recipe
// @Tags         recipes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Recipe ID"
// @Success      200 {object} RecipeResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid ID"
// @Failure      404 {object} httputil.ErrorResponse "Recipe not found"
// @Router       /recipes/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get recipe")
		return
	}

	respondJSON(w, NewRecipeResponse(rec), http.StatusOK)
}

// Update changes a recipe owned by the caller
// @Summary      Update recipe
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                 true "Recipe ID"
// @Param        request body UpdateRecipeRequest true "Fields to change"
// @Success      200 {object} RecipeResponse
// @Failure      403 {object} httputil.ErrorResponse "Not the owner"
// @Failure      404 {object} httputil.ErrorResponse "Recipe not found"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /recipes/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	var req UpdateRecipeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid recipe update body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	in := UpdateInput{Title: req.Title, Instructions: req.Instructions}
	if req.MinutesToComplete.Set {
		in.MinutesToComplete = req.MinutesToComplete.Value
		in.ClearMinutes = req.MinutesToComplete.Value == nil
	}

	rec, err := h.service.Update(r.Context(), userID, id, in)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update recipe")
		return
	}

	respondJSON(w, NewRecipeResponse(rec), http.StatusOK)
}

// Delete removes a recipe owned by the caller
// @Summary      Delete recipe
// @Tags         recipes
// @Security     BearerAuth
// @Param        id path int true "Recipe ID"
// @Success      204
// @Failure      403 {object} httputil.ErrorResponse "Not the owner"
// @Failure      404 {object} httputil.ErrorResponse "Recipe not found"
// @Router       /recipes/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, r, err, "failed to delete recipe")
		return
	}

	httputil.RespondNoContent(w)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case isValidationError(err):
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNotFound):
		respondError(w, "recipe not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrOwnerNotFound):
		respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		respondError(w, "recipe belongs to another user", httputil.CodeForbidden, http.StatusForbidden)
	default:
		logging.GetLoggerFromContext(r.Context()).Error(message, "error", err.Error())
		respondError(w, message, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrInstructionsTooShort) ||
		errors.Is(err, ErrNegativeMinutes) ||
		errors.Is(err, ErrOwnerRequired)
}

func recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, "invalid recipe id", httputil.CodeInvalidID, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	var filter ListFilter
	query := r.URL.Query()

	if v := query.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, errors.New("user_id must be a positive integer")
		}
		filter.UserID = id
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
