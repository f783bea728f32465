package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-expenses/internal/models"
)

// UserStore is the persistence the Service needs. *storage.DB implements it.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUserEmails(ctx context.Context) ([]string, error)
}

// Service registers users and verifies their credentials.
type Service struct {
	store  UserStore
	hasher *Hasher
}

// NewService creates a new Service.
func NewService(store UserStore, hasher *Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// CreateUser registers email with password. It fails with a validation error
// when either is empty or blank and with models.ErrDuplicateUser when the normalized
// email is already registered.
func (s *Service) CreateUser(ctx context.Context, email, password string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return models.Invalid("email", "is required")
	}
	if strings.TrimSpace(password) == "" {
		return models.Invalid("password", "is required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateUser(ctx, email, hash); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// VerifyUser reports whether password is the one registered for email.
// Empty input and unknown emails yield false without an error.
func (s *Service) VerifyUser(ctx context.Context, email, password string) (bool, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user: %w", err)
	}
	return s.hasher.Check(password, user.PasswordHash), nil
}

// ListUsers returns every registered email in registration order.
func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	return s.store.ListUserEmails(ctx)
}

// CheckConfirmation rejects a registration whose password confirmation differs.
func CheckConfirmation(password, confirm string) error {
	if password != confirm {
		return models.Invalid("password", "confirmation does not match")
	}
	return nil
}
