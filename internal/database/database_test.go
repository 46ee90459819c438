package database_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/recipe-api/internal/database"
	"github.com/redmonkez12/recipe-api/internal/database/dbtest"
	"github.com/redmonkez12/recipe-api/internal/database/migrations"
)

func TestBeforeAppendModel_StampsTimestamps(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	created := time.Date(2025, 5, 5, 21, 12, 0, 0, time.UTC)
	orig := database.Now
	database.Now = func() time.Time { return created }
	t.Cleanup(func() { database.Now = orig })

	u := &database.User{Username: "chef1", PasswordHash: "x"}
	_, err := db.NewInsert().Model(u).Exec(ctx)
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.Equal(t, created, u.CreatedAt)
	require.Equal(t, created, u.UpdatedAt)

	updated := created.Add(time.Hour)
	database.Now = func() time.Time { return updated }

	u.Bio = strPtr("soups mostly")
	_, err = db.NewUpdate().Model(u).Column("bio", "updated_at").WherePK().Exec(ctx)
	require.NoError(t, err)

	got := new(database.User)
	require.NoError(t, db.NewSelect().Model(got).Where("u.id = ?", u.ID).Scan(ctx))
	require.True(t, created.Equal(got.CreatedAt), "created_at must not move on update")
	require.True(t, updated.Equal(got.UpdatedAt), "updated_at must refresh on update")
}

func TestSchema_EnforcesOwnerAndUniqueUsername(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, err := db.NewInsert().Model(&database.Recipe{Title: "Orphan", UserID: 999}).Exec(ctx)
	require.Error(t, err, "recipe must reference an existing user")

	_, err = db.NewInsert().Model(&database.User{Username: "chef1", PasswordHash: "x"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&database.User{Username: "chef1", PasswordHash: "y"}).Exec(ctx)
	require.Error(t, err)
	require.True(t, database.IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, database.IsUniqueViolation(nil))
	require.False(t, database.IsUniqueViolation(errors.New("connection refused")))
	require.True(t, database.IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, database.IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.True(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, database.IsUniqueViolation(errors.New("UNIQUE constraint failed: users.username")))
}

func TestMigrations_AreOrdered(t *testing.T) {
	applied, err := database.Migrations()
	require.NoError(t, err)
	require.Len(t, applied, 3)

	for i, m := range applied {
		require.Equal(t, int64(i+1), m.Version)
	}
	require.Contains(t, applied[2].Source, "00003_recipes_title_not_null.sql")
}

// Version 2 creates recipes with a nullable title, version 3 narrows it and
// its down step widens it again.
func TestMigrations_TitleNotNullIsReversible(t *testing.T) {
	up, down := readMigration(t, "00002_create_recipes.sql")
	titleColumn := columnLine(t, up, "title")
	require.Contains(t, titleColumn, "VARCHAR")
	require.NotContains(t, titleColumn, "NOT NULL")
	require.Contains(t, down, "DROP TABLE IF EXISTS recipes")

	up, down = readMigration(t, "00003_recipes_title_not_null.sql")
	require.Contains(t, up, "ALTER TABLE recipes ALTER COLUMN title SET NOT NULL")
	require.NotContains(t, up, "DROP NOT NULL")
	require.Contains(t, down, "ALTER TABLE recipes ALTER COLUMN title DROP NOT NULL")
	require.NotContains(t, down, "SET NOT NULL")
}

// readMigration returns the up and down sections of an embedded goose file.
func readMigration(t *testing.T, name string) (up, down string) {
	t.Helper()

	raw, err := fs.ReadFile(migrations.FS, name)
	require.NoError(t, err)

	var section *strings.Builder
	var upSQL, downSQL strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		switch strings.TrimSpace(line) {
		case "-- +goose Up":
			section = &upSQL
			continue
		case "-- +goose Down":
			section = &downSQL
			continue
		}
		if section != nil {
			section.WriteString(line)
			section.WriteString("\n")
		}
	}

	require.NotEmpty(t, strings.TrimSpace(upSQL.String()), "%s has no up section", name)
	require.NotEmpty(t, strings.TrimSpace(downSQL.String()), "%s has no down section", name)
	return upSQL.String(), downSQL.String()
}

func columnLine(t *testing.T, sql, column string) string {
	t.Helper()

	for _, line := range strings.Split(sql, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == column {
			return line
		}
	}
	require.Failf(t, "column not found", "no %q column in:\n%s", column, sql)
	return ""
}

func strPtr(s string) *string { return &s }
