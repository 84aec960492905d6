package server

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
)

type fakeUserStore struct {
	users map[string]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*db.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, name, email, passwordHash string) (*db.User, error) {
	user := &db.User{
		ID:               uuid.New(),
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
		CreditsRemaining: db.DefaultCredits,
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	return f.users[email], nil
}

func (f *fakeUserStore) DecrementCredits(_ context.Context, email string) (bool, error) {
	user, ok := f.users[email]
	if !ok || user.CreditsRemaining <= 0 {
		return false, nil
	}
	user.CreditsRemaining--
	return true, nil
}

func TestUserServiceRegister(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	user, err := svc.Register(context.Background(), "Jordan", "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", user.Email)
	assert.Equal(t, db.DefaultCredits, user.CreditsRemaining)

	// Stored hash must verify against the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	_, err := svc.Register(context.Background(), "Jordan", "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "jordan@example.com", "anotherpassword")
	require.Error(t, err)
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestUserServiceLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	_, err := svc.Register(context.Background(), "Jordan", "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", user.Email)
}

func TestUserServiceLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	_, err := svc.Register(context.Background(), "Jordan", "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "jordan@example.com", "wrong-password")
	require.Error(t, err)
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)
}

func TestUserServiceLoginUnknownEmail(t *testing.T) {
	svc := NewUserService(newFakeUserStore())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever123")
	require.Error(t, err)

	// Unknown email and wrong password must be indistinguishable.
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)
}

func TestUserServiceSpendCredit(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	_, err := svc.Register(context.Background(), "Jordan", "jordan@example.com", "hunter2hunter2")
	require.NoError(t, err)

	for i := 0; i < db.DefaultCredits; i++ {
		require.NoError(t, svc.SpendCredit(context.Background(), "jordan@example.com"))
	}

	err = svc.SpendCredit(context.Background(), "jordan@example.com")
	require.Error(t, err)
	var noCredits *ErrNoCredits
	assert.ErrorAs(t, err, &noCredits)
}
