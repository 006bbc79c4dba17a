package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BasicUser is the compact identity shape carried on presence frames
type BasicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Basic returns the compact identity for presence frames
func (u *User) Basic() BasicUser {
	return BasicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
	}
}

// Identity is the outcome of resolving a handshake credential.
// The zero value is the anonymous identity.
type Identity struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// Anonymous is the sentinel identity for absent or invalid credentials
var Anonymous = Identity{}

// IsAnonymous reports whether the identity resolved to no account
func (i Identity) IsAnonymous() bool {
	return i.ID == ""
}

// Basic returns the compact identity for presence frames
func (i Identity) Basic() BasicUser {
	return BasicUser{
		ID:        i.ID,
		Username:  i.Username,
		FirstName: i.FirstName,
	}
}

// IdentityOf builds an Identity from a resolved user record
func IdentityOf(u *User) Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
