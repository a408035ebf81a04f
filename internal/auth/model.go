package auth

import "time"

// Identity is the slice of a user account the session core reads: enough to
// verify a password and name the token subject. The users package owns the
// full account record.
type Identity struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
}

// RefreshTokenRecord is one row of the server-side refresh token table. The
// raw opaque value is never stored; only its digest is.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Session is what a successful login hands back to the HTTP layer. The
// handler turns RefreshToken/RefreshMaxAge into a Set-Cookie; the rest goes
// in the response body.
type Session struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	Message       string `json:"message"`
	RefreshToken  string `json:"-"`
	RefreshMaxAge int    `json:"-"`
}
