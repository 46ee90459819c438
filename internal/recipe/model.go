package recipe

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/redmonkez12/recipe-api/internal/database"
	"github.com/redmonkez12/recipe-api/internal/user"
)

// MinInstructionsLength is the fewest characters a recipe's instructions may have.
const MinInstructionsLength = 50

var (
	ErrTitleRequired        = errors.New("title must not be empty")
	ErrInstructionsTooShort = fmt.Errorf("instructions must be at least %d characters long", MinInstructionsLength)
	ErrNegativeMinutes      = errors.New("minutes to complete must not be negative")
	ErrOwnerRequired        = errors.New("recipe must belong to a user")
)

// Recipe is a set of cooking instructions owned by one user. Title,
// instructions and minutes are only assignable through validating setters.
type Recipe struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Owner is the resolved user when the recipe was loaded from the store.
	Owner *user.User

	title             string
	instructions      string
	minutesToComplete *int
}

// New builds a validated recipe owned by userID
func New(title, instructions string, minutesToComplete *int, userID int64) (*Recipe, error) {
	if userID <= 0 {
		return nil, ErrOwnerRequired
	}

	r := &Recipe{UserID: userID}
	if err := r.SetTitle(title); err != nil {
		return nil, err
	}
	if err := r.SetInstructions(instructions); err != nil {
		return nil, err
	}
	if err := r.SetMinutesToComplete(minutesToComplete); err != nil {
		return nil, err
	}
	return r, nil
}

// FromModel rebuilds a recipe (and its owner, if joined) from a stored row
func FromModel(m *database.Recipe) *Recipe {
	return &Recipe{
		ID:                m.ID,
		UserID:            m.UserID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Owner:             user.FromModel(m.User),
		title:             m.Title,
		instructions:      m.Instructions,
		minutesToComplete: m.MinutesToComplete,
	}
}

func (r *Recipe) Title() string { return r.title }
func (r *Recipe) Instructions() string { return r.instructions }
func (r *Recipe) MinutesToComplete() *int { return r.minutesToComplete }

func (r *Recipe) SetTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	r.title = title
	return nil
}

func (r *Recipe) SetInstructions(instructions string) error {
	v, err := validateInstructions(instructions)
	if err != nil {
		return err
	}
	r.instructions = v
	return nil
}

// SetMinutesToComplete sets or clears (nil) the preparation time
func (r *Recipe) SetMinutesToComplete(minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return ErrNegativeMinutes
	}
	r.minutesToComplete = minutes
	return nil
}

func (r *Recipe) String() string {
	return fmt.Sprintf("Recipe %s, ID: %d", r.title, r.ID)
}

func (r *Recipe) toModel() *database.Recipe {
	return &database.Recipe{
		ID:                r.ID,
		Title:             r.title,
		Instructions:      r.instructions,
		MinutesToComplete: r.minutesToComplete,
		UserID:            r.UserID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// validateInstructions counts characters, not bytes.
func validateInstructions(instructions string) (string, error) {
	if utf8.RuneCountInString(instructions) < MinInstructionsLength {
		return "", ErrInstructionsTooShort
	}
	return instructions, nil
}
