package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const MockToken = "mock-jwt-token"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// AuthBackend is the part of the API client the session needs.
type AuthBackend interface {
	Login(ctx context.Context, username, password string) (model.TokenResponse, error)
	Register(ctx context.Context, username, email, password string) (model.User, error)
}

type SessionOptions struct {
	// MockFallback issues a local user when the backend cannot be reached.
	MockFallback bool
}

// Session is the single owner of the auth token, the current user and the
// accessibility preferences. Everything else reads them through it.
type Session struct {
	store    repository.SessionStore
	notifier notify.Notifier
	logger   *logger.Logger
	opts     SessionOptions
	now      func() time.Time

	mu      sync.RWMutex
	backend AuthBackend
	token   string
	user    *model.User
	prefs   model.Preferences
}

// NewSession restores the persisted state. A stored user that does not
// decode wipes both the token and the user.
func NewSession(ctx context.Context, store repository.SessionStore, notifier notify.Notifier, log *logger.Logger, opts SessionOptions) (*Session, error) {
	s := &Session{
		store:    store,
		notifier: notifier,
		logger:   log.With("component", "session"),
		opts:     opts,
		now:      time.Now,
		prefs:    model.DefaultPreferences(),
	}

	entries, err := store.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	if entries.Preferences != "" {
		var prefs model.Preferences
		if err := json.Unmarshal([]byte(entries.Preferences), &prefs); err == nil && prefs.Valid() {
			s.prefs = prefs
		}
	}

	if entries.User != "" {
		var user model.User
		if err := json.Unmarshal([]byte(entries.User), &user); err != nil {
			s.logger.Warn("Stored user is corrupt, clearing session", "error", err)
			if err := s.persist(ctx, "", nil); err != nil {
				return nil, err
			}
			return s, nil
		}
		s.user = &user
		s.token = entries.Token
	}
	return s, nil
}

// SetBackend binds the auth endpoints. The API client needs the session as
// its token source, so the two are wired after construction.
func (s *Session) SetBackend(backend AuthBackend) {
	s.mu.Lock()
	s.backend = backend
	s.mu.Unlock()
}

// Token implements apiclient.TokenSource. Expired tokens are not sent.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || tokenExpired(s.token, s.now()) {
		return ""
	}
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	if s.token != "" && tokenExpired(s.token, s.now()) {
		return model.User{}, false
	}
	return *s.user, true
}

func (s *Session) Login(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, &ValidationError{Field: "username", Message: "Username and password are required"}
	}

	backend := s.authBackend()
	var (
		user  model.User
		token string
	)
	resp, err := backend.Login(ctx, username, password)
	switch {
	case err == nil:
		token = resp.AccessToken
		user = userFromToken(token, username)
	case s.useMock(err):
		s.logger.Warn("Backend unreachable, issuing local user", "username", username)
		token = MockToken
		user = model.User{ID: uuid.NewString(), Username: username, Email: username + "@example.com"}
	default:
		return model.User{}, fmt.Errorf("login failed: %w", err)
	}

	if err := s.persist(ctx, token, &user); err != nil {
		return model.User{}, err
	}
	s.notifier.Success("Login successful", fmt.Sprintf("Welcome back, %s!", username))
	return user, nil
}

// Register creates the account and then logs in with the same credentials.
func (s *Session) Register(ctx context.Context, username, email, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return model.User{}, &ValidationError{Field: "username", Message: "Username is required"}
	case !strings.Contains(email, "@"):
		return model.User{}, &ValidationError{Field: "email", Message: "A valid email is required"}
	case len(password) < 6:
		return model.User{}, &ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	}

	backend := s.authBackend()
	var (
		user  model.User
		token string
	)
	created, err := backend.Register(ctx, username, email, password)
	switch {
	case err == nil:
		user = created
		resp, err := backend.Login(ctx, username, password)
		if err != nil {
			return model.User{}, fmt.Errorf("login after registration failed: %w", err)
		}
		token = resp.AccessToken
	case s.useMock(err):
		s.logger.Warn("Backend unreachable, issuing local user", "username", username)
		token = MockToken
		user = model.User{ID: uuid.NewString(), Username: username, Email: email}
	default:
		return model.User{}, fmt.Errorf("registration failed: %w", err)
	}

	if err := s.persist(ctx, token, &user); err != nil {
		return model.User{}, err
	}
	s.notifier.Success("Registration successful", fmt.Sprintf("Welcome, %s!", username))
	return user, nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.persist(ctx, "", nil); err != nil {
		return err
	}
	s.notifier.Success("Logged out", "You have been successfully logged out")
	return nil
}

func (s *Session) Preferences() model.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Session) SetPreferences(ctx context.Context, prefs model.Preferences) error {
	if !prefs.Valid() {
		return ErrInvalidPreferences
	}
	s.mu.Lock()
	s.prefs = prefs
	token, user := s.token, s.user
	s.mu.Unlock()
	return s.persist(ctx, token, user)
}

func (s *Session) authBackend() AuthBackend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

func (s *Session) useMock(err error) bool {
	if !s.opts.MockFallback {
		return false
	}
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.Network()
}

// persist writes token and user together; a nil user clears both.
func (s *Session) persist(ctx context.Context, token string, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := SessionEntriesFor(token, user, s.prefs)
	if err := s.store.SaveSession(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if user == nil {
		s.token, s.user = "", nil
		return nil
	}
	u := *user
	s.token, s.user = token, &u
	return nil
}

func SessionEntriesFor(token string, user *model.User, prefs model.Preferences) repository.SessionEntries {
	var entries repository.SessionEntries
	if data, err := json.Marshal(prefs); err == nil {
		entries.Preferences = string(data)
	}
	if user == nil {
		return entries
	}
	if data, err := json.Marshal(user); err == nil {
		entries.User = string(data)
		entries.Token = token
	}
	return entries
}

// tokenExpired inspects the exp claim without verifying the signature.
// Tokens that are not JWTs never expire.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// userFromToken builds the current user from the token claims, falling back
// to the login name.
func userFromToken(token, username string) model.User {
	user := model.User{ID: username, Username: username}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return user
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		user.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	return user
}
