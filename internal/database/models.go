package database

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	ImageURL     *string   `bun:"image_url"`
	Bio          *string   `bun:"bio"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Recipes []*Recipe `bun:"rel:has-many,join:id=user_id"`
}

// Recipe is the bun model for the recipes table.
type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID                int64     `bun:"id,pk,autoincrement"`
	Title             string    `bun:"title,notnull"`
	Instructions      string    `bun:"instructions"`
	MinutesToComplete *int      `bun:"minutes_to_complete"`
	UserID            int64     `bun:"user_id,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

var (
	_ bun.BeforeAppendModelHook = (*User)(nil)
	_ bun.BeforeAppendModelHook = (*Recipe)(nil)
)

// BeforeAppendModel stamps created_at once and refreshes updated_at on every write.
func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(query, &u.CreatedAt, &u.UpdatedAt)
	return nil
}

// BeforeAppendModel stamps created_at once and refreshes updated_at on every write.
func (r *Recipe) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(query, &r.CreatedAt, &r.UpdatedAt)
	return nil
}

func stampTimes(query bun.Query, createdAt, updatedAt *time.Time) {
	now := Now()
	switch query.(type) {
	case *bun.InsertQuery:
		*createdAt = now
		*updatedAt = now
	case *bun.UpdateQuery:
		*updatedAt = now
	}
}

// Now is the clock used for timestamps. Tests may replace it.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
