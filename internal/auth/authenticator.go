package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore looks up the stored credential for a username. Implemented
// by the users repository; a missing user surfaces as sql.ErrNoRows.
type CredentialStore interface {
	Credentials(ctx context.Context, username string) (Identity, error)
}

// Authenticator verifies a username/password pair against the credential
// store. It has no side effects beyond the lookup.
type Authenticator struct {
	store CredentialStore
}

func NewAuthenticator(store CredentialStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate returns the identity for a valid pair. Unknown usernames and
// wrong passwords are indistinguishable in the returned error; store outages
// map to ErrServiceUnavailable so clients know a retry is safe.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	identity, err := a.store.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a bcrypt comparison anyway so the timing of an unknown
			// username matches a wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Identity{}, ErrInvalidCredentials
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Identity{}, ErrServiceUnavailable
		}
		return Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return identity, nil
}

// Precomputed hash of an empty string, used only for timing equalization.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
