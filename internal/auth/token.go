// Package auth covers credential auth (bcrypt against the credentials
// tab), Google ID-token sign-in with a domain allowlist, and the JWTs
// handed to the frontend.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadToken = errors.New("bad token")
	ErrExpired  = errors.New("expired")
)

// Identity is the authenticated user carried in a token.
type Identity struct {
	Username string
	Email    string
}

// TokenIssuer mints and verifies the HS256 session tokens.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue returns a signed token for the identity, expiring after TTL.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"username": id.Username,
		"email":    id.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(t.TTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.Secret)
}

// Verify parses and validates a token, returning the embedded identity.
func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return t.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrBadToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Identity{}, ErrBadToken
	}

	id := Identity{}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if id.Username == "" && id.Email == "" {
		return Identity{}, ErrBadToken
	}
	return id, nil
}
