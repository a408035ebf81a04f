package auth

import (
	"context"
	"strings"
	"time"
)

// RefreshStore is the server-side refresh token table as the issuer sees it.
// *Store implements it against Postgres; tests swap in a fake.
type RefreshStore interface {
	Create(ctx context.Context, userID string) (string, error)
	FindByToken(ctx context.Context, raw string) (RefreshTokenRecord, error)
	VerifyNotExpired(ctx context.Context, rec RefreshTokenRecord) error
	DeleteByUser(ctx context.Context, userID string) error
	RefreshTTL() time.Duration
}

// Service orchestrates the session lifecycle: login, refresh, logout. It owns
// no state of its own; everything lives in the codec key and the store.
type Service struct {
	authenticator *Authenticator
	codec         *Codec
	refresh       RefreshStore
}

func NewService(authenticator *Authenticator, codec *Codec, refresh RefreshStore) *Service {
	return &Service{authenticator: authenticator, codec: codec, refresh: refresh}
}

// Login verifies credentials, rotates the user's refresh token and mints an
// access token. On ErrInvalidCredentials nothing is created.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	identity, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}

	refreshValue, err := s.refresh.Create(ctx, identity.ID)
	if err != nil {
		return Session{}, err
	}

	access, expiresIn, err := s.codec.Issue(identity.Username)
	if err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken:   access,
		TokenType:     "Bearer",
		ExpiresIn:     expiresIn,
		Message:       "Login successful",
		RefreshToken:  refreshValue,
		RefreshMaxAge: int(s.refresh.RefreshTTL().Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh cookie value for a new access token. The
// refresh token itself is not rotated here; it stays valid until its own
// expiry or a logout.
func (s *Service) Refresh(ctx context.Context, cookieValue string) (Session, error) {
	cookieValue = strings.TrimSpace(cookieValue)
	if cookieValue == "" {
		return Session{}, ErrMissingRefreshToken
	}

	rec, err := s.refresh.FindByToken(ctx, cookieValue)
	if err != nil {
		return Session{}, err
	}

	if err := s.refresh.VerifyNotExpired(ctx, rec); err != nil {
		return Session{}, err
	}

	access, expiresIn, err := s.codec.Issue(rec.Username)
	if err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Message:     "Token refreshed successfully",
	}, nil
}

// Logout invalidates every session for the identity owning cookieValue. An
// unknown or absent value is not an error: the caller clears its cookie
// either way.
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	cookieValue = strings.TrimSpace(cookieValue)
	if cookieValue == "" {
		return nil
	}

	rec, err := s.refresh.FindByToken(ctx, cookieValue)
	if err != nil {
		if err == ErrUnknownRefreshToken {
			return nil
		}
		return err
	}

	return s.refresh.DeleteByUser(ctx, rec.UserID)
}
