package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{3,30}$`)

// User represents an account on the platform.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Authority    string    `json:"authority"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	// Subscriptions records whether the user has been given the default
	// reply-notification subscription.
	Subscriptions bool `json:"subscriptions"`
	// NIPSA ("not in public site areas") hides the user's annotations
	// from everyone else.
	NIPSA     bool      `json:"nipsa"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a validated user. The password must already be hashed.
func NewUser(username, authority, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New(),
		Username:     username,
		Authority:    authority,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the user's invariants.
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if !usernamePattern.MatchString(u.Username) {
		return ErrInvalidUsername
	}
	if u.Authority == "" {
		return ErrEmptyAuthority
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	return nil
}

// UserID returns acct:username@authority.
func (u *User) UserID() string {
	return FormatUserID(u.Username, u.Authority)
}
