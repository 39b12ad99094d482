// Package auth declares the account operations of the site. None of them are
// supported yet; each fails with models.ErrNotImplemented.
package auth

import (
	"fmt"

	"github.com/korjavin/mealdeals/pkg/models"
)

// User is a site account
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Service provides account operations
type Service struct{}

// New creates a new auth service
func New() *Service {
	return &Service{}
}

// SignIn authenticates a user by email and password
func (s *Service) SignIn(email, password string) (*User, error) {
	return nil, fmt.Errorf("sign in: %w", models.ErrNotImplemented)
}

// SignOut ends the current session
func (s *Service) SignOut() error {
	return fmt.Errorf("sign out: %w", models.ErrNotImplemented)
}

// CurrentUser returns the signed-in user
func (s *Service) CurrentUser() (*User, error) {
	return nil, fmt.Errorf("current user: %w", models.ErrNotImplemented)
}

// UpdateUser stores changes to a user
func (s *Service) UpdateUser(user User) error {
	return fmt.Errorf("update user: %w", models.ErrNotImplemented)
}
