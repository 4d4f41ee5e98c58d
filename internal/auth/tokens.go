package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taller-erp/taller-erp/internal/shared"
)

const denylistPrefix = "auth:denylist:"

// Claims carried inside an access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens. Revoked token IDs are
// kept in Redis until their natural expiry.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration, rdb *redis.Client) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, redis: rdb, now: time.Now}
}

// Issue signs a new token for the account.
func (m *TokenManager) Issue(acc *Account) (string, error) {
	now := m.now()
	claims := Claims{
		Username: acc.Username,
		Role:     acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acc.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the caller identity. Revoked and expired
// tokens fail with ErrTokenInvalid.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (shared.Identity, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return shared.Identity{}, err
	}

	revoked, err := m.redis.Exists(ctx, denylistPrefix+claims.ID).Result()
	if err != nil {
		return shared.Identity{}, fmt.Errorf("auth: denylist lookup: %w", err)
	}
	if revoked > 0 {
		return shared.Identity{}, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return shared.Identity{}, ErrTokenInvalid
	}
	return shared.Identity{UserID: userID, Username: claims.Username, Role: claims.Role}, nil
}

// Revoke denylists the token's ID until the token would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := m.redis.Set(ctx, denylistPrefix+claims.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: denylist set: %w", err)
	}
	return nil
}

func (m *TokenManager) parse(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
