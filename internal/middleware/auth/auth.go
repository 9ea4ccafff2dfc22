// Package auth resolves the acting user of a request. With authentication
// disabled every request acts as the household user; otherwise an HS256
// bearer token, from the Authorization header or the session cookie, names
// the user by email in its subject claim.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"homeportal/internal/core"
	applog "homeportal/internal/log"
)

// CookieName carries the access token for browser clients.
const CookieName = "homeportal_token"

var (
	ErrNotAuthenticated   = errors.New("Not authenticated")
	ErrInvalidCredentials = errors.New("Could not validate credentials")
)

// UserLookup finds the user a token subject refers to.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type Config struct {
	Enabled   bool
	SecretKey string
	// MaxTokenAge bounds how long after issuance a token is accepted.
	MaxTokenAge time.Duration
	// Household is the identity used for every request when Enabled is false.
	Household core.User
}

type Authenticator struct {
	config Config
	users  UserLookup
	parser *jwt.Parser
	now    func() time.Time
}

func New(config Config, users UserLookup) *Authenticator {
	a := &Authenticator{config: config, users: users, now: time.Now}
	a.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	)
	return a
}

func WithUser(ctx context.Context, u core.User) context.Context {
	return core.ContextWithUser(ctx, u)
}

// UserFrom returns the resolved user, if any.
func UserFrom(ctx context.Context) (core.User, bool) {
	return core.UserFromContext(ctx)
}

// Authenticate resolves the user for r. It returns ErrNotAuthenticated when no
// token was sent and ErrInvalidCredentials for anything else that fails.
func (a *Authenticator) Authenticate(r *http.Request) (core.User, error) {
	if !a.config.Enabled {
		return a.config.Household, nil
	}

	raw := tokenFromRequest(r)
	if raw == "" {
		return core.User{}, ErrNotAuthenticated
	}

	var claims jwt.RegisteredClaims
	if _, err := a.parser.ParseWithClaims(raw, &claims, a.keyFunc); err != nil {
		return core.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if claims.Subject == "" {
		return core.User{}, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	if a.config.MaxTokenAge > 0 && claims.IssuedAt != nil &&
		a.now().Sub(claims.IssuedAt.Time) > a.config.MaxTokenAge {
		return core.User{}, fmt.Errorf("%w: token too old", ErrInvalidCredentials)
	}

	user, err := a.users.GetUserByEmail(r.Context(), claims.Subject)
	if err != nil {
		return core.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return user, nil
}

func (a *Authenticator) keyFunc(*jwt.Token) (any, error) {
	return []byte(a.config.SecretKey), nil
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the user when possible. Anonymous requests continue;
// a token that was sent but fails validation is rejected here.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), user))
		case errors.Is(err, ErrInvalidCredentials):
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected credentials",
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err.Error())
			WriteUnauthorized(w, ErrInvalidCredentials)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests the middleware could not attach a user to.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			WriteUnauthorized(w, ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WriteUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
