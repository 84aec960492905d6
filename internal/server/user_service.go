package server

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
)

// UserStore is the account persistence surface the user service needs.
// *db.DB satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	DecrementCredits(ctx context.Context, email string) (bool, error)
}

// UserService provides business logic for account registration and login.
type UserService struct {
	store      UserStore
	bcryptCost int
}

// NewUserService creates a UserService backed by the given store.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store, bcryptCost: bcrypt.DefaultCost}
}

// Register creates a new account with a hashed password and the default
// credit allowance.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*db.User, error) {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates an account by email and password.
func (s *UserService) Login(ctx context.Context, email, password string) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Same generic error for unknown email and wrong password.
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, &ErrInvalidCredentials{}
	}

	return user, nil
}

// SpendCredit consumes one interview credit of the account.
func (s *UserService) SpendCredit(ctx context.Context, email string) error {
	ok, err := s.store.DecrementCredits(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to spend credit: %w", err)
	}
	if !ok {
		return &ErrNoCredits{}
	}
	return nil
}
