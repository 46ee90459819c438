package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/recipe-api/internal/database"
)

var (
	ErrNotFound      = errors.New("recipe not found")
	ErrOwnerNotFound = errors.New("recipe owner does not exist")
)

// ListFilter narrows List. Zero values mean "no restriction".
type ListFilter struct {
	UserID int64
	Limit  int
	Offset int
}

// Repository handles recipe data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a recipe after checking, in the same transaction, that its
// owner exists. The recipe's ID, timestamps and Owner are filled in.
func (r *Repository) Create(ctx context.Context, rec *Recipe) error {
	dbRecipe := rec.toModel()
	owner := new(database.User)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(owner).
			Where("u.id = ?", rec.UserID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOwnerNotFound
			}
			return fmt.Errorf("failed to look up recipe owner: %w", err)
		}

		if _, err := tx.NewInsert().
			Model(dbRecipe).
			Returning("*").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	dbRecipe.User = owner
	*rec = *FromModel(dbRecipe)
	return nil
}

// GetByID retrieves a recipe with its owner
func (r *Repository) GetByID(ctx context.Context, id int64) (*Recipe, error) {
	dbRecipe := new(database.Recipe)
	err := r.db.NewSelect().
		Model(dbRecipe).
		Relation("User").
		Where("r.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by id: %w", err)
	}

	return FromModel(dbRecipe), nil
}

// List returns recipes with their owners, oldest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Recipe, error) {
	var dbRecipes []*database.Recipe

	q := r.db.NewSelect().
		Model(&dbRecipes).
		Relation("User").
		Order("r.id ASC")
	if filter.UserID > 0 {
		q = q.Where("r.user_id = ?", filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]*Recipe, 0, len(dbRecipes))
	for _, dbr := range dbRecipes {
		recipes = append(recipes, FromModel(dbr))
	}
	return recipes, nil
}

// CountByUser returns how many recipes a user owns
func (r *Repository) CountByUser(ctx context.Context, userID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Recipe)(nil)).
		Where("r.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// Update writes title, instructions and minutes and refreshes updated_at
func (r *Repository) Update(ctx context.Context, rec *Recipe) error {
	dbRecipe := rec.toModel()

	result, err := r.db.NewUpdate().
		Model(dbRecipe).
		Column("title", "instructions", "minutes_to_complete", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	rec.UpdatedAt = dbRecipe.UpdatedAt
	return nil
}

// Delete removes a single recipe
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Recipe)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
