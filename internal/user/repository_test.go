package user_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/recipe-api/internal/database"
	"github.com/redmonkez12/recipe-api/internal/database/dbtest"
	"github.com/redmonkez12/recipe-api/internal/user"
)

func newUser(t *testing.T, username string) *user.User {
	t.Helper()
	u, err := user.New(username, "hunter2")
	require.NoError(t, err)
	return u
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))

	bio := "soups mostly"
	u := newUser(t, "chef1")
	u.SetBio(&bio)
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())
	require.Equal(t, u.CreatedAt, u.UpdatedAt)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "chef1", byID.Username())
	require.Equal(t, bio, *byID.Bio())
	require.Nil(t, byID.ImageURL())
	require.True(t, byID.VerifyPassword("hunter2"), "stored hash must verify after reload")

	byName, err := repo.GetByUsername(ctx, "chef1")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))

	_, err := repo.GetByID(ctx, 404)
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.Delete(ctx, 404)
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, newUser(t, "chef1")))
	require.ErrorIs(t, repo.Create(ctx, newUser(t, "chef1")), user.ErrDuplicateUsername)

	other := newUser(t, "chef2")
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, other.SetUsername("chef1"))
	require.ErrorIs(t, repo.Update(ctx, other), user.ErrDuplicateUsername)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))

	u := newUser(t, "chef1")
	require.NoError(t, repo.Create(ctx, u))
	createdAt := u.CreatedAt

	img := "https://img.example/c.png"
	require.NoError(t, u.SetUsername("chef-one"))
	require.NoError(t, u.SetPassword("new-secret"))
	u.SetImageURL(&img)
	require.NoError(t, repo.Update(ctx, u))
	require.False(t, u.UpdatedAt.Before(createdAt))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "chef-one", got.Username())
	require.Equal(t, img, *got.ImageURL())
	require.True(t, got.VerifyPassword("new-secret"))
	require.True(t, createdAt.Equal(got.CreatedAt))

	missing := newUser(t, "ghost")
	missing.ID = 999
	require.ErrorIs(t, repo.Update(ctx, missing), user.ErrNotFound)
}

func TestRepository_DeleteCascadesRecipes(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d recipes", n), func(t *testing.T) {
			ctx := context.Background()
			db := dbtest.New(t)
			repo := user.NewRepository(db)

			owner := newUser(t, "chef1")
			require.NoError(t, repo.Create(ctx, owner))
			bystander := newUser(t, "chef2")
			require.NoError(t, repo.Create(ctx, bystander))

			for i := 0; i < n; i++ {
				_, err := db.NewInsert().Model(&database.Recipe{Title: fmt.Sprintf("r%d", i), UserID: owner.ID}).Exec(ctx)
				require.NoError(t, err)
			}
			_, err := db.NewInsert().Model(&database.Recipe{Title: "kept", UserID: bystander.ID}).Exec(ctx)
			require.NoError(t, err)

			removed, err := repo.Delete(ctx, owner.ID)
			require.NoError(t, err)
			require.Equal(t, int64(n), removed)

			_, err = repo.GetByID(ctx, owner.ID)
			require.ErrorIs(t, err, user.ErrNotFound)

			require.Equal(t, 1, dbtest.Count(t, db, (*database.Recipe)(nil)))
			require.Equal(t, 1, dbtest.Count(t, db, (*database.User)(nil)))
		})
	}
}

func TestRepository_DeleteRollsBackWhenUserMissing(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := user.NewRepository(db)

	owner := newUser(t, "chef1")
	require.NoError(t, repo.Create(ctx, owner))
	_, err := db.NewInsert().Model(&database.Recipe{Title: "r", UserID: owner.ID}).Exec(ctx)
	require.NoError(t, err)

	// recipes of another id are untouched and a missing user aborts the transaction
	_, err = repo.Delete(ctx, owner.ID+100)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Equal(t, 1, dbtest.Count(t, db, (*database.Recipe)(nil)))
}
