package domain

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
)

// AdminPrincipal is the only identity the shared-secret gate can yield.
const AdminPrincipal = "admin"

// Principal identifies the caller behind a verified credential.
type Principal struct {
	Name string
}

// SessionGate checks the single admin password and hands out one opaque
// token that stays valid for the lifetime of the process.
type SessionGate struct {
	password string
	token    string
}

// NewSessionGate creates a gate for the given password. If token is empty a
// random one is generated.
func NewSessionGate(password, token string) (*SessionGate, error) {
	if password == "" {
		return nil, errors.New("admin password is required")
	}
	if token == "" {
		token = uuid.NewString()
	}
	return &SessionGate{password: password, token: token}, nil
}

// Login compares password against the configured secret and returns the
// session token on a match.
func (g *SessionGate) Login(password string) (string, error) {
	if !equal(password, g.password) {
		return "", ErrUnauthorized
	}
	return g.token, nil
}

// Verify implements Verifier. The credential must be the issued token.
func (g *SessionGate) Verify(_ context.Context, credential string) (Principal, error) {
	if credential == "" || !equal(credential, g.token) {
		return Principal{}, ErrUnauthorized
	}
	return Principal{Name: AdminPrincipal}, nil
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
