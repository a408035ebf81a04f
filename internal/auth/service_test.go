package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, identities ...Identity) (*Service, *Codec, *fakeRefreshStore) {
	t.Helper()

	codec := NewCodec("service-test-secret", time.Hour)
	refresh := newFakeRefreshStore(7 * 24 * time.Hour)
	for _, identity := range identities {
		refresh.addUser(identity)
	}

	service := NewService(NewAuthenticator(newFakeCredentialStore(identities...)), codec, refresh)
	return service, codec, refresh
}

func TestLoginIssuesBothTokens(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, codec, refresh := newTestService(t, alice)

	session, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", session.TokenType)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, int(refresh.RefreshTTL().Seconds()), session.RefreshMaxAge)

	subject, err := codec.Validate(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	assert.Equal(t, 1, refresh.liveCountFor("user-1"))
}

func TestLoginRotatesRefreshToken(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, _, refresh := newTestService(t, alice)

	first, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	second, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, refresh.liveCountFor("user-1"))

	// The first session's refresh token no longer works.
	_, err = service.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnknownRefreshToken)

	_, err = service.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginFailureCreatesNothing(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, _, refresh := newTestService(t, alice)

	_, err := service.Login(context.Background(), "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, refresh.liveCountFor("user-1"))
}

func TestRefreshIssuesNewAccessTokenWithoutRotation(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, codec, _ := newTestService(t, alice)

	login, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	refreshed, err := service.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	subject, err := codec.Validate(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	// Plain refresh leaves the refresh token valid; only a fresh login
	// rotates it.
	_, err = service.Refresh(context.Background(), login.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshMissingCookie(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingRefreshToken)

	_, err = service.Refresh(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestRefreshUnknownToken(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrUnknownRefreshToken)
}

func TestRefreshExpiredTokenIsDeleted(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, _, refresh := newTestService(t, alice)

	login, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	refresh.expire(login.RefreshToken)

	_, err = service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)

	// Fail-fast cleanup: the row is gone, a second attempt is not-found.
	_, err = service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnknownRefreshToken)
}

func TestLogoutKillsEverySessionForTheUser(t *testing.T) {
	alice := testIdentity(t, "user-1", "alice", "correct horse battery")
	service, _, refresh := newTestService(t, alice)

	login, err := service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), login.RefreshToken))
	assert.Equal(t, 0, refresh.liveCountFor("user-1"))

	_, err = service.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnknownRefreshToken)
}

func TestLogoutToleratesUnknownOrMissingToken(t *testing.T) {
	service, _, _ := newTestService(t)

	assert.NoError(t, service.Logout(context.Background(), ""))
	assert.NoError(t, service.Logout(context.Background(), "never-issued"))
}
