package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminRole    = "admin"
	adminSubject = "tournament-admin"
	bearerPrefix = "Bearer "
)

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and checks HS256 admin tokens. With an empty secret
// it is disabled and RequireAdmin lets every request through.
type Authenticator struct {
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewAuthenticator creates an authenticator. passwordHash is a bcrypt hash.
func NewAuthenticator(secret, passwordHash string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Authenticator{
		secret:       []byte(secret),
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled reports whether admin routes are protected.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// HashPassword returns the bcrypt hash to store as admin_password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// IssueToken checks password and returns a signed token with its expiry.
func (a *Authenticator) IssueToken(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: wrong password", ErrUnauthorized)
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := adminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and role of a token.
func (a *Authenticator) Verify(token string) error {
	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Role != adminRole {
		return fmt.Errorf("%w: not an admin token", ErrUnauthorized)
	}
	return nil
}

// RequireAdmin rejects requests without a valid bearer token.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "api.require_admin"
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			writeError(w, r, WrapKind(op, ErrUnauthorized, errors.New("missing bearer token")))
			return
		}
		if err := a.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))); err != nil {
			writeError(w, r, Wrap(op, err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleToken handles POST /admin/token.
func (a *Authenticator) HandleToken(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_token"
	if !a.Enabled() {
		writeError(w, r, NewKind(op, ErrAuthDisabled))
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	token, exp, err := a.IssueToken(req.Password)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp.UTC()})
}
