package session

import (
	"context"
	"errors"
	"testing"

	"github.com/safeher/safeher/client"
	"github.com/safeher/safeher/client/store"
	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------------//
// Test fakes
// --------------------------------------------------------------------------------//

type fakeAPI struct {
	authResponse *client.AuthResponse
	authErr      error
	tokenValid   bool

	validateCalls int
}

func (api *fakeAPI) Login(ctx context.Context, params client.LoginParams) (*client.AuthResponse, error) {
	return api.authResponse, api.authErr
}

func (api *fakeAPI) Register(ctx context.Context, params client.RegisterParams) (*client.AuthResponse, error) {
	return api.authResponse, api.authErr
}

func (api *fakeAPI) ValidateToken(ctx context.Context) bool {
	api.validateCalls++
	return api.tokenValid
}

type fakeTokenStore struct {
	values    map[string]string
	setErr    error
	deleteErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{values: map[string]string{}}
}

func (s *fakeTokenStore) Get(key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", store.ErrNoValue
	}
	return value, nil
}

func (s *fakeTokenStore) Set(key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *fakeTokenStore) Delete(key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.values, key)
	return nil
}

type fakeUserStore struct {
	user     *client.User
	clearErr error
}

func (s *fakeUserStore) Read() (*client.User, error) {
	if s.user == nil {
		return nil, store.ErrNoValue
	}
	return s.user, nil
}

func (s *fakeUserStore) Write(user *client.User) error {
	s.user = user
	return nil
}

func (s *fakeUserStore) Clear() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.user = nil
	return nil
}

type recordingNavigator struct {
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.routes = append(n.routes, route)
}

var testUser = client.User{ID: 7, Name: "Asha", Email: "asha@example.com", Phone: "+14155550101"}

// ---------------------------------------------------------------------------------//
// Tests
// --------------------------------------------------------------------------------//

func TestRestoreSessionWithValidToken(t *testing.T) {
	api := &fakeAPI{tokenValid: true}
	tokens := newFakeTokenStore()
	tokens.values[SessionTokenKey] = "stored-token"
	users := &fakeUserStore{user: &testUser}

	manager := NewManager(api, tokens, users, nil)

	state := manager.RestoreSession(context.Background())
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, "stored-token", manager.Token())
	assert.Equal(t, testUser, *manager.User(), "The cached user should be restored exactly as written")
}

func TestRestoreSessionWithInvalidToken(t *testing.T) {
	api := &fakeAPI{tokenValid: false}
	tokens := newFakeTokenStore()
	tokens.values[SessionTokenKey] = "stale-token"
	users := &fakeUserStore{user: &testUser}

	manager := NewManager(api, tokens, users, nil)

	state := manager.RestoreSession(context.Background())
	assert.Equal(t, StateUnauthenticated, state)
	assert.Empty(t, manager.Token())
	assert.Nil(t, manager.User())

	// Both slots are cleared, so the next restore resolves the same way
	// without another validation round-trip
	_, err := tokens.Get(SessionTokenKey)
	assert.ErrorIs(t, err, store.ErrNoValue)
	assert.Nil(t, users.user)

	assert.Equal(t, StateUnauthenticated, manager.RestoreSession(context.Background()))
	assert.Equal(t, 1, api.validateCalls, "A cleared session should not be re-validated")
}

func TestRestoreSessionClearsHalfPersistedPair(t *testing.T) {
	// Token present but no cached user, e.g. a crash between the two writes
	api := &fakeAPI{tokenValid: true}
	tokens := newFakeTokenStore()
	tokens.values[SessionTokenKey] = "orphan-token"
	users := &fakeUserStore{}

	manager := NewManager(api, tokens, users, nil)

	state := manager.RestoreSession(context.Background())
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, 0, api.validateCalls, "A half-pair is cleared without hitting the network")

	_, err := tokens.Get(SessionTokenKey)
	assert.ErrorIs(t, err, store.ErrNoValue)
}

func TestLoginPersistsSessionAndNavigates(t *testing.T) {
	api := &fakeAPI{authResponse: &client.AuthResponse{Token: "fresh-token", User: testUser}}
	tokens := newFakeTokenStore()
	users := &fakeUserStore{}
	nav := &recordingNavigator{}

	manager := NewManager(api, tokens, users, nav)

	result := manager.Login(context.Background(), "asha@example.com", "secret-password", client.DeviceInfo{})
	assert.True(t, result.Success)
	assert.Equal(t, StateAuthenticated, manager.State())
	assert.Equal(t, "fresh-token", tokens.values[SessionTokenKey])
	assert.Equal(t, testUser, *users.user)
	assert.Equal(t, []string{RouteMain}, nav.routes)
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	api := &fakeAPI{authErr: &client.APIError{StatusCode: 401, Message: "Invalid email or password"}}
	tokens := newFakeTokenStore()
	users := &fakeUserStore{}
	nav := &recordingNavigator{}

	manager := NewManager(api, tokens, users, nav)

	result := manager.Login(context.Background(), "asha@example.com", "wrong", client.DeviceInfo{})
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid email or password", result.Message)
	assert.Equal(t, StateUnauthenticated, manager.State())
	assert.Empty(t, tokens.values, "No token should be persisted on a failed login")
	assert.Empty(t, nav.routes, "No navigation should happen on a failed login")
}

func TestLoginFailureMessageFallsBackToGeneric(t *testing.T) {
	api := &fakeAPI{authErr: errors.New("dial tcp: connection refused")}
	manager := NewManager(api, newFakeTokenStore(), &fakeUserStore{}, nil)

	result := manager.Login(context.Background(), "asha@example.com", "secret", client.DeviceInfo{})
	assert.False(t, result.Success)
	assert.Equal(t, "Login failed. Try again.", result.Message,
		"Raw transport errors should never surface to the user")
}

func TestRegisterFailureMessageFallsBackToGeneric(t *testing.T) {
	api := &fakeAPI{authErr: errors.New("dial tcp: connection refused")}
	manager := NewManager(api, newFakeTokenStore(), &fakeUserStore{}, nil)

	result := manager.Register(context.Background(), "Asha", "asha@example.com", "+14155550101", "secret-pass", client.DeviceInfo{})
	assert.False(t, result.Success)
	assert.Equal(t, "Registration failed. Try again.", result.Message)
}

func TestLogoutAlwaysClearsSession(t *testing.T) {
	api := &fakeAPI{authResponse: &client.AuthResponse{Token: "fresh-token", User: testUser}}
	tokens := newFakeTokenStore()
	users := &fakeUserStore{}
	nav := &recordingNavigator{}

	manager := NewManager(api, tokens, users, nav)
	manager.Login(context.Background(), "asha@example.com", "secret-password", client.DeviceInfo{})

	manager.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, manager.State())
	assert.Empty(t, manager.Token())
	assert.Nil(t, manager.User())
	assert.Empty(t, tokens.values)
	assert.Nil(t, users.user)
	assert.Equal(t, []string{RouteMain, RouteAuth}, nav.routes)
}

func TestLogoutSucceedsWhenStorageClearingFails(t *testing.T) {
	api := &fakeAPI{authResponse: &client.AuthResponse{Token: "fresh-token", User: testUser}}
	tokens := newFakeTokenStore()
	users := &fakeUserStore{}
	nav := &recordingNavigator{}

	manager := NewManager(api, tokens, users, nav)
	manager.Login(context.Background(), "asha@example.com", "secret-password", client.DeviceInfo{})

	// Storage failures are logged only, never surfaced
	tokens.deleteErr = errors.New("keystore is locked")
	users.clearErr = errors.New("read-only filesystem")

	manager.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, manager.State())
	assert.Empty(t, manager.Token())
	assert.Nil(t, manager.User())
	assert.Equal(t, []string{RouteMain, RouteAuth}, nav.routes)
}
