package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthToken is returned on signup and login
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SignupInput holds the fields of a new account
type SignupInput struct {
	Username string
	Password string
	ImageURL *string
	Bio      *string
}

// ProfileUpdate holds the account fields to change. Nil leaves a field as
// it is; an empty ImageURL or Bio clears it.
type ProfileUpdate struct {
	Username *string
	Password *string
	ImageURL *string
	Bio      *string
}

// Service handles authentication and account business logic
type Service struct {
	userRepo        *user.Repository
	sessions        SessionStore
	tokens          TokenService
	logger          *logging.Logger
	sessionDuration time.Duration
}

func NewService(
	userRepo *user.Repository,
	sessions SessionStore,
	tokens TokenService,
	logger *logging.Logger,
	sessionDuration time.Duration,
) *Service {
	return &Service{
		userRepo:        userRepo,
		sessions:        sessions,
		tokens:          tokens,
		logger:          logger,
		sessionDuration: sessionDuration,
	}
}

// Signup creates a new account and logs it in
func (s *Service) Signup(ctx context.Context, in SignupInput) (*user.User, *AuthToken, error) {
	newUser, err := user.New(in.Username, in.Password)
	if err != nil {
		return nil, nil, err
	}
	newUser.SetImageURL(emptyToNil(in.ImageURL))
	newUser.SetBio(emptyToNil(in.Bio))

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.startSession(ctx, newUser)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user signed up", "user_id", newUser.ID)
	return newUser, token, nil
}

// Login authenticates a user and starts a session
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, *AuthToken, error) {
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.VerifyPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}

	// Upgrade hashes left over from bcrypt or older argon2 parameters
	if existingUser.PasswordNeedsRehash() {
		if err := existingUser.SetPassword(password); err != nil {
			s.logger.Warn("failed to rehash password", "user_id", existingUser.ID, "error", err)
		} else if err := s.userRepo.Update(ctx, existingUser); err != nil {
			s.logger.Warn("failed to store rehashed password", "user_id", existingUser.ID, "error", err)
		}
	}

	token, err := s.startSession(ctx, existingUser)
	if err != nil {
		return nil, nil, err
	}

	return existingUser, token, nil
}

// Logout revokes the session behind the current token
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CurrentUser returns the account behind an authenticated request
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile validates and applies a profile change. A password change
// ends every other session of the user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, sessionID string, in ProfileUpdate) (*user.User, error) {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		if err := existingUser.SetUsername(*in.Username); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		if err := existingUser.SetPassword(*in.Password); err != nil {
			return nil, err
		}
	}
	if in.ImageURL != nil {
		existingUser.SetImageURL(emptyToNil(in.ImageURL))
	}
	if in.Bio != nil {
		existingUser.SetBio(emptyToNil(in.Bio))
	}

	if err := s.userRepo.Update(ctx, existingUser); err != nil {
		return nil, err
	}

	if in.Password != nil {
		if err := s.sessions.RevokeOthers(ctx, userID, sessionID); err != nil {
			s.logger.Warn("failed to revoke sessions after password change", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("user profile updated", "user_id", userID)
	return existingUser, nil
}

// DeleteAccount removes the user and all of their recipes, then ends every
// session they had
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	removed, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions of deleted user", "user_id", userID, "error", err)
	}

	s.logger.Info("user deleted", "user_id", userID, "recipes_deleted", removed)
	return nil
}

func (s *Service) startSession(ctx context.Context, u *user.User) (*AuthToken, error) {
	sessionID, err := s.sessions.Create(ctx, u.ID, s.sessionDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokens.CreateToken(u.ID, u.Username(), sessionID, s.sessionDuration)
	if err != nil {
		if revokeErr := s.sessions.Revoke(ctx, sessionID); revokeErr != nil {
			s.logger.Warn("failed to revoke orphaned session", "error", revokeErr)
		}
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthToken{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.sessionDuration.Seconds()),
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
