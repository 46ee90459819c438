package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/redmonkez12/recipe-api/internal/httputil"
	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/user"
)

// Handler contains HTTP handlers for authentication and account endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	ImageURL *string `json:"image_url,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateMeRequest represents a partial profile update. Omitted fields are left
// unchanged; an empty image_url or bio clears it.
type UpdateMeRequest struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	ImageURL  *string   `json:"image_url"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse converts a user into its public form
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username(),
		ImageURL:  u.ImageURL(),
		Bio:       u.Bio(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionResponse is returned by signup and login
type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token AuthToken    `json:"token"`
}

// Signup handles account creation
// @Summary      Sign up
// @Description  Create a new account and start a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Account details"
// @Success      201 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      409 {object} httputil.ErrorResponse "Username already taken"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, token, err := h.service.Signup(r.Context(), SignupInput(req))
	if err != nil {
		if isValidationError(err) {
			logger.Warn("signup failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
			return
		}
		if errors.Is(err, user.ErrDuplicateUsername) {
			logger.Warn("signup failed: username already taken")
			respondError(w, "username already taken", httputil.CodeUsernameTaken, http.StatusConflict)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		respondError(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user signed up successfully", "user_id", newUser.ID)

	respondJSON(w, SessionResponse{User: NewUserResponse(newUser), Token: *token}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with username and password and receive an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	existingUser, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid username or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", existingUser.ID)

	respondJSON(w, SessionResponse{User: NewUserResponse(existingUser), Token: *token}, http.StatusOK)
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User no longer exists"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	currentUser, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current user", "user_id", userID, "error", err.Error())
		respondError(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, NewUserResponse(currentUser), http.StatusOK)
}

// Logout ends the session behind the current token
// @Summary      User logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /auth/logout [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		logger.Error("logout failed", "error", err.Error())
		respondError(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out successfully")
	httputil.RespondNoContent(w)
}

// UpdateMe changes the authenticated user's profile
// @Summary      Update current user
// @Description  Partially update username, password, image_url or bio. A password change ends every other session.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateMeRequest true "Fields to change"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      409 {object} httputil.ErrorResponse "Username already taken"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /users/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	sessionID, _ := GetSessionIDFromContext(r.Context())

	var req UpdateMeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, sessionID, ProfileUpdate(req))
	if err != nil {
		switch {
		case isValidationError(err):
			logger.Warn("profile update failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		case errors.Is(err, user.ErrDuplicateUsername):
			respondError(w, "username already taken", httputil.CodeUsernameTaken, http.StatusConflict)
		case errors.Is(err, user.ErrNotFound):
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("profile update failed: internal error", "user_id", userID, "error", err.Error())
			respondError(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, NewUserResponse(updated), http.StatusOK)
}

// DeleteMe removes the authenticated user together with all their recipes
// @Summary      Delete current user
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/me [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("account deletion failed", "user_id", userID, "error", err.Error())
		respondError(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondNoContent(w)
}

func isValidationError(err error) bool {
	return errors.Is(err, user.ErrUsernameRequired) || errors.Is(err, user.ErrPasswordRequired)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
