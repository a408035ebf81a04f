package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateSuccess(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	authenticator := NewAuthenticator(newFakeCredentialStore(alice))

	identity, err := authenticator.Authenticate(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "alice", identity.Username)
}

func TestAuthenticateNormalizesUsername(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	authenticator := NewAuthenticator(newFakeCredentialStore(alice))

	identity, err := authenticator.Authenticate(context.Background(), "  Alice ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
}

func TestAuthenticateUnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	authenticator := NewAuthenticator(newFakeCredentialStore(alice))

	_, unknownErr := authenticator.Authenticate(context.Background(), "nobody", "whatever")
	_, wrongErr := authenticator.Authenticate(context.Background(), "alice", "wrong password")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongErr)
}

func TestAuthenticateBlankInput(t *testing.T) {
	authenticator := NewAuthenticator(newFakeCredentialStore())

	_, err := authenticator.Authenticate(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authenticator.Authenticate(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStoreTimeout(t *testing.T) {
	store := newFakeCredentialStore()
	store.err = context.DeadlineExceeded
	authenticator := NewAuthenticator(store)

	_, err := authenticator.Authenticate(context.Background(), "alice", "password")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
