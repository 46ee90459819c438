package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/redmonkez12/recipe-api/internal/logging"
)

var ErrForbidden = errors.New("recipe belongs to another user")

// Pagination bounds for List
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// CreateInput holds the fields of a new recipe
type CreateInput struct {
	Title             string
	Instructions      string
	MinutesToComplete *int
}

// UpdateInput holds the fields to change; nil leaves a field untouched.
// ClearMinutes removes the preparation time.
type UpdateInput struct {
	Title             *string
	Instructions      *string
	MinutesToComplete *int
	ClearMinutes      bool
}

// Service handles recipe business logic
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

func NewService(repo *Repository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and stores a recipe owned by ownerID
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*Recipe, error) {
	rec, err := New(in.Title, in.Instructions, in.MinutesToComplete, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("recipe created", "recipe_id", rec.ID, "user_id", ownerID)
	return rec, nil
}

// Get returns one recipe with its owner
func (s *Service) Get(ctx context.Context, id int64) (*Recipe, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of recipes, clamping the limit to MaxListLimit
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Recipe, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.List(ctx, filter)
}

// Update applies in to a recipe owned by callerID. Nothing is written when
// any field fails validation.
func (s *Service) Update(ctx context.Context, callerID, id int64, in UpdateInput) (*Recipe, error) {
	rec, err := s.ownedRecipe(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := rec.SetTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Instructions != nil {
		if err := rec.SetInstructions(*in.Instructions); err != nil {
			return nil, err
		}
	}
	if in.ClearMinutes || in.MinutesToComplete != nil {
		minutes := in.MinutesToComplete
		if in.ClearMinutes {
			minutes = nil
		}
		if err := rec.SetMinutesToComplete(minutes); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("recipe updated", "recipe_id", rec.ID, "user_id", callerID)
	return rec, nil
}

// Delete removes a recipe owned by callerID
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.ownedRecipe(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("recipe deleted", "recipe_id", id, "user_id", callerID)
	return nil
}

func (s *Service) ownedRecipe(ctx context.Context, callerID, id int64) (*Recipe, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.UserID != callerID {
		return nil, fmt.Errorf("recipe %d: %w", id, ErrForbidden)
	}

	return rec, nil
}
