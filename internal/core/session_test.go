package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	token    string
	err      error
	user     model.User
	regErr   error
	logins   int
	register int
}

func (f *fakeAuth) Login(context.Context, string, string) (model.TokenResponse, error) {
	f.logins++
	if f.err != nil {
		return model.TokenResponse{}, f.err
	}
	return model.TokenResponse{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Register(context.Context, string, string, string) (model.User, error) {
	f.register++
	return f.user, f.regErr
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestSession(t *testing.T, store repository.SessionStore, auth AuthBackend, mock bool) (*Session, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	s, err := NewSession(context.Background(), store, n, logger.NewNop(), SessionOptions{MockFallback: mock})
	require.NoError(t, err)
	s.SetBackend(auth)
	return s, n
}

func TestSessionLoginPersistsTokenAndUser(t *testing.T) {
	store := &memorySessionStore{}
	token := signedToken(t, jwt.MapClaims{"sub": "42", "email": "ada@example.org", "exp": time.Now().Add(time.Hour).Unix()})
	s, n := newTestSession(t, store, &fakeAuth{token: token}, false)

	user, err := s.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "ada@example.org", user.Email)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, token, s.Token())
	assert.Equal(t, token, store.entries.Token)
	assert.NotEmpty(t, store.entries.User)
	assert.Equal(t, []string{"Login successful"}, n.successTitles())
}

func TestSessionLoginFallsBackToMockUserWhenUnreachable(t *testing.T) {
	store := &memorySessionStore{}
	auth := &fakeAuth{err: &apiclient.APIError{Status: 0, Err: errors.New("connection refused")}}
	s, _ := newTestSession(t, store, auth, true)

	user, err := s.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, MockToken, s.Token())
}

func TestSessionLoginDoesNotMockRejectedCredentials(t *testing.T) {
	auth := &fakeAuth{err: &apiclient.APIError{Status: 401, Detail: "Incorrect username or password"}}
	s, _ := newTestSession(t, &memorySessionStore{}, auth, true)

	_, err := s.Login(context.Background(), "bob", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.False(t, s.IsAuthenticated())
}

func TestSessionLoginWithoutFallbackFails(t *testing.T) {
	auth := &fakeAuth{err: &apiclient.APIError{Status: 0}}
	s, _ := newTestSession(t, &memorySessionStore{}, auth, false)

	_, err := s.Login(context.Background(), "bob", "pw")
	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestSessionRegisterLogsIn(t *testing.T) {
	auth := &fakeAuth{token: "opaque", user: model.User{ID: "7", Username: "eve", Email: "eve@example.org"}}
	s, _ := newTestSession(t, &memorySessionStore{}, auth, false)

	user, err := s.Register(context.Background(), "eve", "eve@example.org", "password1")
	require.NoError(t, err)
	assert.Equal(t, "7", user.ID)
	assert.Equal(t, 1, auth.logins)
	assert.Equal(t, "opaque", s.Token())

	_, err = s.Register(context.Background(), "eve", "no-at-sign", "password1")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSessionLogoutClearsTokenAndUserKeepsPreferences(t *testing.T) {
	store := &memorySessionStore{}
	s, _ := newTestSession(t, store, &fakeAuth{token: "opaque"}, false)
	_, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	require.NoError(t, s.SetPreferences(context.Background(), model.Preferences{HighContrast: true, FontSize: model.FontLarge}))

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Empty(t, store.entries.Token)
	assert.Empty(t, store.entries.User)
	assert.Contains(t, store.entries.Preferences, "large")
}

func TestSessionCorruptUserClearsBoth(t *testing.T) {
	store := &memorySessionStore{entries: repository.SessionEntries{Token: "tok", User: "{broken"}}
	s, _ := newTestSession(t, store, &fakeAuth{}, false)

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Empty(t, store.entries.Token)
	assert.Empty(t, store.entries.User)
}

func TestSessionRestoresStoredUser(t *testing.T) {
	store := &memorySessionStore{entries: repository.SessionEntries{
		Token:       "opaque",
		User:        `{"id":"1","username":"ada","email":"ada@example.com"}`,
		Preferences: `{"highContrast":true,"fontSize":"small"}`,
	}}
	s, _ := newTestSession(t, store, &fakeAuth{}, false)

	user, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "opaque", s.Token())
	assert.Equal(t, model.FontSmall, s.Preferences().FontSize)
}

func TestSessionExpiredTokenIsLoggedOut(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Minute).Unix()})
	store := &memorySessionStore{entries: repository.SessionEntries{Token: token, User: `{"id":"1","username":"ada"}`}}
	s, _ := newTestSession(t, store, &fakeAuth{}, false)

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
}

func TestSessionRejectsInvalidPreferences(t *testing.T) {
	s, _ := newTestSession(t, &memorySessionStore{}, &fakeAuth{}, false)
	err := s.SetPreferences(context.Background(), model.Preferences{FontSize: "huge"})
	assert.ErrorIs(t, err, ErrInvalidPreferences)
	assert.Equal(t, model.DefaultPreferences(), s.Preferences())
}
