package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenManager("test-secret", ttl, rdb)
}

func testAccount() *Account {
	return &Account{ID: 42, Username: "operador1", Role: "OPERADOR", IsActive: true}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	token, err := m.Issue(testAccount())
	require.NoError(t, err)

	identity, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "operador1", identity.Username)
	assert.Equal(t, "OPERADOR", identity.Role)
}

func TestRevokedTokenRejected(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)

	token, err := m.Issue(testAccount())
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), token))

	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.Issue(testAccount())
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestForeignSignatureRejected(t *testing.T) {
	issuer := newTestTokenManager(t, time.Hour)
	verifier := newTestTokenManager(t, time.Hour)
	verifier.secret = []byte("another-secret")

	token, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := newTestTokenManager(t, time.Hour)
	_, err := m.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
