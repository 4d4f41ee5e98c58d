package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubRepo struct {
	accounts map[string]*Account
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*Account, error) {
	acc, ok := s.accounts[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	dup := *acc
	return &dup, nil
}

func newLoginFixture(t *testing.T, active bool) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubRepo{accounts: map[string]*Account{
		"admin": {ID: 1, Username: "admin", FullName: "Administrador", Role: "ADMIN", PasswordHash: string(hash), IsActive: active},
	}}
	return NewService(repo, newTestTokenManager(t, time.Hour))
}

func TestLoginSuccess(t *testing.T) {
	svc := newLoginFixture(t, true)

	token, acc, err := svc.Login(context.Background(), "admin", "secreto123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", acc.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newLoginFixture(t, true)

	_, _, err := svc.Login(context.Background(), "admin", "incorrecta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newLoginFixture(t, true)

	_, _, err := svc.Login(context.Background(), "nadie", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc := newLoginFixture(t, false)

	_, _, err := svc.Login(context.Background(), "admin", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
