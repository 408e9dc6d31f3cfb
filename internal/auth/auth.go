// Package auth verifies bearer tokens and carries the caller's session
// through request contexts.
//
// Tokens are HS256 JWTs signed with the project secret. The "role" claim
// selects the session role; tokens without one are anonymous. A Verifier
// with an empty secret grants every caller an admin session, which is how
// local development servers run.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles.
const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
	RoleAdmin         = "admin"
	RoleService       = "service_role"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Session identifies the caller of a request.
type Session struct {
	Subject string `json:"sub,omitempty"`
	Role    string `json:"role"`
	Email   string `json:"email,omitempty"`
}

// Anonymous is the session of callers without a token.
var Anonymous = Session{Role: RoleAnon}

// IsAdmin reports whether the session may modify the directory and see
// hidden vendors.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin || s.Role == RoleService
}

// Claims is the JWT payload.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for secret. An empty secret disables
// verification.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether tokens are verified.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Authenticate resolves the session for an Authorization header value. An
// empty header yields the anonymous session when verification is enabled.
func (v *Verifier) Authenticate(header string) (Session, error) {
	if !v.Enabled() {
		return Session{Subject: "local", Role: RoleAdmin}, nil
	}
	if header == "" {
		return Anonymous, nil
	}
	token, err := BearerToken(header)
	if err != nil {
		return Session{}, err
	}
	return v.Verify(token)
}

// Verify parses and validates a signed token.
func (v *Verifier) Verify(token string) (Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	s := Session{Subject: claims.Subject, Role: claims.Role, Email: claims.Email}
	if s.Role == "" {
		s.Role = RoleAnon
	}
	return s, nil
}

// Issue signs a token for s valid for ttl. It is used by tooling and tests;
// production tokens come from the hosted auth service.
func (v *Verifier) Issue(s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  s.Role,
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session carried by ctx, or Anonymous.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return Anonymous
}
