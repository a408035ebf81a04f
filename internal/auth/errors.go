package auth

import "errors"

// Session error taxonomy. All of these are recoverable from the client's
// perspective: the fix is to authenticate again. Handlers map them to stable
// generic bodies; internal detail stays in logs.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrExpiredToken        = errors.New("access token expired")
	ErrMissingRefreshToken = errors.New("refresh token missing")
	ErrUnknownRefreshToken = errors.New("refresh token not found")
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	ErrServiceUnavailable  = errors.New("auth service unavailable")
)
