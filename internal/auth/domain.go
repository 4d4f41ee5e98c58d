// Package auth implements login, bearer tokens and the request guard.
package auth

import "errors"

// Account is the credential view of a user row.
type Account struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	Role         string
	PasswordHash string
	IsActive     bool
}

var (
	// ErrInvalidCredentials indicates login failure. The same error covers
	// unknown users, wrong passwords and deactivated accounts so responses
	// do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid indicates an unparseable, expired or revoked token.
	ErrTokenInvalid = errors.New("token invalid")
)
