package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/recipe-api/internal/database"
	"github.com/redmonkez12/recipe-api/internal/password"
)

var (
	ErrUsernameRequired = errors.New("username must not be empty")
	ErrPasswordRequired = errors.New("password must not be empty")
)

// User is a registered account. Username and password can only change
// through the setters, which enforce their rules; the password hash has no
// accessor at all.
type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time

	username     string
	passwordHash string
	imageURL     *string
	bio          *string
}

// New builds a validated user with a hashed password
func New(username, plaintextPassword string) (*User, error) {
	u := &User{}
	if err := u.SetUsername(username); err != nil {
		return nil, err
	}
	if err := u.SetPassword(plaintextPassword); err != nil {
		return nil, err
	}
	return u, nil
}

// FromModel rebuilds a user from a stored row without re-validating or re-hashing
func FromModel(m *database.User) *User {
	if m == nil {
		return nil
	}
	return &User{
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		username:     m.Username,
		passwordHash: m.PasswordHash,
		imageURL:     m.ImageURL,
		bio:          m.Bio,
	}
}

func (u *User) Username() string { return u.username }
func (u *User) ImageURL() *string { return u.imageURL }
func (u *User) Bio() *string { return u.bio }

// SetUsername assigns a non-empty username
func (u *User) SetUsername(username string) error {
	v, err := validateUsername(username)
	if err != nil {
		return err
	}
	u.username = v
	return nil
}

// SetPassword hashes plaintext and keeps only the hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrPasswordRequired
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.passwordHash = hash
	return nil
}

// VerifyPassword reports whether plaintext matches the stored hash
func (u *User) VerifyPassword(plaintext string) bool {
	if u.passwordHash == "" {
		return false
	}
	return password.Verify(u.passwordHash, plaintext)
}

// PasswordNeedsRehash reports whether the stored hash uses an outdated scheme
func (u *User) PasswordNeedsRehash() bool {
	return password.NeedsRehash(u.passwordHash)
}

// SetImageURL sets or clears (nil) the avatar URL
func (u *User) SetImageURL(url *string) {
	u.imageURL = url
}

// SetBio sets or clears (nil) the bio
func (u *User) SetBio(bio *string) {
	u.bio = bio
}

func (u *User) String() string {
	return fmt.Sprintf("User %s, ID: %d", u.username, u.ID)
}

func (u *User) toModel() *database.User {
	return &database.User{
		ID:           u.ID,
		Username:     u.username,
		PasswordHash: u.passwordHash,
		ImageURL:     u.imageURL,
		Bio:          u.bio,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func validateUsername(username string) (string, error) {
	if username == "" {
		return "", ErrUsernameRequired
	}
	return username, nil
}
