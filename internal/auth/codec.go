package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultAccessTTL = time.Hour

// Codec issues and validates the stateless access tokens. It holds no mutable
// state beyond the signing key injected at construction, so any number of
// instances sharing a key behave identically.
type Codec struct {
	key       []byte
	accessTTL time.Duration
}

func NewCodec(secret string, accessTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &Codec{key: []byte(secret), accessTTL: accessTTL}
}

// Issue signs a compact token for subject, expiring accessTTL from now.
// Returns the encoded token and its lifetime in seconds.
func (c *Codec) Issue(subject string) (string, int64, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(c.accessTTL).Unix(),
		"typ": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	encoded, err := token.SignedString(c.key)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}

	return encoded, int64(c.accessTTL.Seconds()), nil
}

// Validate parses tokenStr and returns its subject. Signing method is pinned
// to HS512 so a token minted under any other algorithm or key is rejected as
// ErrInvalidToken. A well-formed token past its expiry is ErrExpiredToken.
func (c *Codec) Validate(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if tokenType, _ := claims["typ"].(string); tokenType != "access" {
		return "", ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}
