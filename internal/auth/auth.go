// Package auth handles account registration, credential verification,
// and session tracking.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"financas/internal/storage"
)

var (
	// ErrInvalidCredentials is the single rejection for both an unknown
	// user and a wrong password, so login cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyPassword = errors.New("empty password")
)

// CredentialStore is the slice of the record store auth needs.
type CredentialStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) error
	GetUserPasswordHash(ctx context.Context, username string) (string, error)
}

type Service struct {
	store CredentialStore
	cost  int

	// Compared against on unknown-user logins to keep response timing
	// independent of account existence.
	dummyHash []byte
}

func NewService(store CredentialStore, bcryptCost int) (*Service, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("financas-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &Service{store: store, cost: bcryptCost, dummyHash: dummy}, nil
}

// Register creates an account with a salted, iterated password hash.
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.store.CreateUser(ctx, username, string(hash))
}

// Login verifies the credentials. Any failure is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)

	hash, err := s.store.GetUserPasswordHash(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		// Burn a compare anyway so the miss costs as much as a hit.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "Login rejected", "username", username)
		return ErrInvalidCredentials
	}
	return nil
}
