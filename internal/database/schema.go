package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema builds the users and recipes tables straight from the bun
// models. Production databases are managed by the goose migrations instead;
// this is for throwaway databases such as the SQLite ones used in tests.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Recipe)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create recipes table: %w", err)
	}

	return nil
}
