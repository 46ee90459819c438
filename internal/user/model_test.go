package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/recipe-api/internal/database"
)

func TestNew_ValidatesUsername(t *testing.T) {
	for _, name := range []string{"chef1", "a", " ", "Ли Бо", strings.Repeat("x", 500)} {
		u, err := New(name, "hunter2")
		require.NoError(t, err, "username %q", name)
		require.Equal(t, name, u.Username())
	}

	_, err := New("", "hunter2")
	require.ErrorIs(t, err, ErrUsernameRequired)
}

func TestSetUsername_RejectsEmptyAndKeepsPrevious(t *testing.T) {
	u, err := New("chef1", "hunter2")
	require.NoError(t, err)

	require.ErrorIs(t, u.SetUsername(""), ErrUsernameRequired)
	require.Equal(t, "chef1", u.Username())

	require.NoError(t, u.SetUsername("chef2"))
	require.Equal(t, "chef2", u.Username())
}

func TestPassword_VerifyAfterSet(t *testing.T) {
	u, err := New("chef1", "secret123")
	require.NoError(t, err)

	require.True(t, u.VerifyPassword("secret123"))
	require.False(t, u.VerifyPassword("wrong"))
	require.False(t, u.VerifyPassword(""))

	require.NoError(t, u.SetPassword("new-secret"))
	require.True(t, u.VerifyPassword("new-secret"))
	require.False(t, u.VerifyPassword("secret123"))
}

func TestPassword_HashIsSaltedNotPlaintext(t *testing.T) {
	u, err := New("chef1", "secret123")
	require.NoError(t, err)
	first := u.passwordHash

	require.NotContains(t, first, "secret123")

	require.NoError(t, u.SetPassword("secret123"))
	require.NotEqual(t, first, u.passwordHash)
}

func TestPassword_RejectsEmpty(t *testing.T) {
	_, err := New("chef1", "")
	require.ErrorIs(t, err, ErrPasswordRequired)

	u, err := New("chef1", "hunter2")
	require.NoError(t, err)
	require.ErrorIs(t, u.SetPassword(""), ErrPasswordRequired)
	require.True(t, u.VerifyPassword("hunter2"))
}

func TestPassword_LegacyBcryptNeedsRehash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	u := FromModel(&database.User{ID: 7, Username: "chef1", PasswordHash: string(legacy)})
	require.True(t, u.VerifyPassword("hunter2"))
	require.True(t, u.PasswordNeedsRehash())

	require.NoError(t, u.SetPassword("hunter2"))
	require.False(t, u.PasswordNeedsRehash())
}

func TestVerifyPassword_NoHash(t *testing.T) {
	require.False(t, (&User{}).VerifyPassword(""))
}

func TestString(t *testing.T) {
	u := FromModel(&database.User{ID: 42, Username: "chef1"})
	require.Equal(t, "User chef1, ID: 42", u.String())
}

func TestProfileFields(t *testing.T) {
	u, err := New("chef1", "hunter2")
	require.NoError(t, err)
	require.Nil(t, u.ImageURL())
	require.Nil(t, u.Bio())

	img, bio := "https://img.example/chef1.png", "soups"
	u.SetImageURL(&img)
	u.SetBio(&bio)
	require.Equal(t, img, *u.ImageURL())
	require.Equal(t, bio, *u.Bio())

	u.SetBio(nil)
	require.Nil(t, u.Bio())
}
