// Package session holds the client's authentication state: the bearer token
// and the last login error. The token is loaded from a Store at construction
// and written back on every login and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/client/task"
	"github.com/dmitrijs2005/userdesk/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// LoginFailedMessage is what the user sees for any failed login. It does not
// distinguish an unknown e-mail from a wrong password.
const LoginFailedMessage = "login failed: check your email and password"

// Store persists the token between runs.
type Store interface {
	// Load returns "" when nothing is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
}

// Navigator moves the application to another route.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// AuthError is returned by Login when the server refused the credentials or
// could not be reached.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", LoginFailedMessage, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

type Session struct {
	store Store
	api   Authenticator
	log   logging.Logger
	tasks task.Group

	mu        sync.RWMutex
	token     string
	lastError string
	nav       Navigator

	// persistMu orders writes to store so the persisted token always ends
	// up matching the in-memory one.
	persistMu sync.Mutex
}

// New builds a session seeded with the token found in store.
func New(ctx context.Context, store Store, api Authenticator, log logging.Logger) (*Session, error) {
	token, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &Session{store: store, api: api, log: log, token: token}, nil
}

// SetNavigator wires the router once both sides exist.
func (s *Session) SetNavigator(nav Navigator) {
	s.mu.Lock()
	s.nav = nav
	s.mu.Unlock()
}

// Token returns the current bearer token, "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Login exchanges creds for a token. On success the token is stored and
// persisted and the app navigates home. On failure the token is left as it
// was, LastError is set and an *AuthError is returned. A login replaced by a
// newer one, or abandoned by Logout, returns task.ErrSuperseded.
func (s *Session) Login(ctx context.Context, creds models.Credentials) error {
	ctx, finish := s.tasks.Start(ctx, "login")
	defer finish()

	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()

	token, err := s.api.Login(ctx, creds)

	s.mu.Lock()
	if task.Superseded(ctx) {
		s.mu.Unlock()
		return task.ErrSuperseded
	}
	if err != nil {
		s.lastError = LoginFailedMessage
		s.mu.Unlock()
		s.log.Error(ctx, "login failed", "email", creds.Email, "error", err)
		return &AuthError{Err: err}
	}
	s.token = token
	nav := s.nav
	s.mu.Unlock()

	// committed: persistence and navigation outlive a later cancel
	ctx = context.WithoutCancel(ctx)

	if !s.persist(ctx, token) || s.Token() != token {
		return task.ErrSuperseded
	}
	s.log.Info(ctx, "logged in", "email", creds.Email)

	s.navigate(ctx, nav, HomePath)
	return nil
}

// persist saves token unless a logout or a newer login replaced it in
// memory first. It reports whether token is still the current one.
func (s *Session) persist(ctx context.Context, token string) bool {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.Token() != token {
		return false
	}
	if err := s.store.Save(ctx, token); err != nil {
		s.log.Warn(ctx, "token not persisted", "error", err)
	}
	return true
}

// Logout drops the token in memory and in the store and navigates to the
// login route. In-flight logins are abandoned. The returned error only
// reports a store failure; the in-memory state is cleared regardless.
func (s *Session) Logout(ctx context.Context) error {
	s.tasks.CancelAll()

	s.mu.Lock()
	s.token = ""
	s.lastError = ""
	nav := s.nav
	s.mu.Unlock()

	var storeErr error
	s.persistMu.Lock()
	err := s.store.Clear(ctx)
	s.persistMu.Unlock()
	if err != nil {
		s.log.Warn(ctx, "persisted token not cleared", "error", err)
		storeErr = fmt.Errorf("clear token: %w", err)
	}
	s.log.Info(ctx, "logged out")

	s.navigate(ctx, nav, LoginPath)
	return storeErr
}

func (s *Session) navigate(ctx context.Context, nav Navigator, path string) {
	if nav == nil {
		return
	}
	if err := nav.Navigate(ctx, path); err != nil {
		s.log.Warn(ctx, "navigation failed", "path", path, "error", err)
	}
}

// ErrNoExpiry is returned by ExpiresAt when there is no token or the token
// carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// ExpiresAt reads the exp claim of the current token without verifying the
// signature. It is informational only and never affects IsAuthenticated.
func (s *Session) ExpiresAt() (time.Time, error) {
	token := s.Token()
	if token == "" {
		return time.Time{}, ErrNoExpiry
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
