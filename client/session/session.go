package session

import (
	"context"
	"sync"

	"github.com/safeher/safeher/client"
	"github.com/safeher/safeher/server/logger"
)

type State string

const (
	// StateUnknown holds until the restore attempt at process start resolves
	StateUnknown         State = "unknown"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Navigation targets signalled by the manager. The UI layer decides what
// each route looks like.
const (
	RouteMain = "main"
	RouteAuth = "auth"
)

// SessionTokenKey is the keystore slot under which the bearer token lives.
const SessionTokenKey = "authToken"

var logg = logger.NewLogger()

// API is the slice of the remote API the session manager depends on.
type API interface {
	Login(ctx context.Context, params client.LoginParams) (*client.AuthResponse, error)
	Register(ctx context.Context, params client.RegisterParams) (*client.AuthResponse, error)
	ValidateToken(ctx context.Context) bool
}

// TokenStore is the secrecy-sensitive slot holding the session token.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// UserStore is the ordinary slot holding the cached user record.
type UserStore interface {
	Read() (*client.User, error)
	Write(user *client.User) error
	Clear() error
}

// Navigator receives navigation signals when the session crosses the
// authenticated/unauthenticated boundary.
type Navigator interface {
	Navigate(route string)
}

// Result is the outcome of a login/registration attempt. Message is only
// set on failure & is safe to show to the user.
type Result struct {
	Success bool
	Message string
}

const (
	genericLoginFailure    = "Login failed. Try again."
	genericRegisterFailure = "Registration failed. Try again."
)

// Manager owns authentication state & the persisted session. It is the
// single writer of both storage slots; everything else reads session
// state through it.
type Manager struct {
	mu sync.RWMutex

	api      API
	tokens   TokenStore
	users    UserStore
	nav      Navigator

	state State
	token string
	user  *client.User
}

func NewManager(api API, tokens TokenStore, users UserStore, nav Navigator) *Manager {
	return &Manager{
		api:    api,
		tokens: tokens,
		users:  users,
		nav:    nav,
		state:  StateUnknown,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the active session's user record, or nil when unauthenticated.
func (m *Manager) User() *client.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// RestoreSession attempts to restore a persisted session at process start.
// A token without a cached user(or vice versa) is an inconsistent half-pair,
// e.g. from a crash between the two writes - it reads as 'no session' & both
// slots are cleared. Any uncertainty about token validity resolves to
// Unauthenticated, never to a silently-kept session.
func (m *Manager) RestoreSession(ctx context.Context) State {
	token, tokenErr := m.tokens.Get(SessionTokenKey)
	user, userErr := m.users.Read()

	if tokenErr != nil || userErr != nil {
		if tokenErr == nil || userErr == nil {
			logg.Info("found inconsistent half-persisted session, clearing it")
		}
		m.clearSession()
		return m.State()
	}

	m.setState(StateAuthenticating)

	if !m.api.ValidateToken(ctx) {
		logg.Info("persisted token no longer valid, logging out")
		m.clearSession()
		return m.State()
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.state = StateAuthenticated
	m.mu.Unlock()

	return StateAuthenticated
}

// Login authenticates with the server & persists the new session. On failure
// the session state is left untouched & the returned message is user-facing.
func (m *Manager) Login(ctx context.Context, email, password string, device client.DeviceInfo) Result {
	m.setState(StateAuthenticating)

	authResponse, err := m.api.Login(ctx, client.LoginParams{
		Email:    email,
		Password: password,
		Device:   device,
	})
	if err != nil {
		m.setState(StateUnauthenticated)
		return failureResult(err, genericLoginFailure)
	}

	m.beginSession(authResponse)

	return Result{Success: true}
}

// Register has the same contract as Login, with the additional
// registration fields.
func (m *Manager) Register(ctx context.Context, name, email, phone, password string, device client.DeviceInfo) Result {
	m.setState(StateAuthenticating)

	authResponse, err := m.api.Register(ctx, client.RegisterParams{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: password,
		Device:   device,
	})
	if err != nil {
		m.setState(StateUnauthenticated)
		return failureResult(err, genericRegisterFailure)
	}

	m.beginSession(authResponse)

	return Result{Success: true}
}

// Logout always succeeds from the caller's perspective: in-memory state is
// cleared & the unauthenticated route signalled regardless of whether the
// storage-clearing calls themselves succeed. Storage errors are logged only.
func (m *Manager) Logout(ctx context.Context) {
	m.clearSession()

	if m.nav != nil {
		m.nav.Navigate(RouteAuth)
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (m *Manager) beginSession(authResponse *client.AuthResponse) {
	// Token first, then user. The two writes are not transactional -
	// RestoreSession resolves a half-written pair to 'no session'.
	if err := m.tokens.Set(SessionTokenKey, authResponse.Token); err != nil {
		logg.Errorf("unable to persist session token: %v", err)
	}
	if err := m.users.Write(&authResponse.User); err != nil {
		logg.Errorf("unable to persist user record: %v", err)
	}

	m.mu.Lock()
	m.token = authResponse.Token
	user := authResponse.User
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()

	if m.nav != nil {
		m.nav.Navigate(RouteMain)
	}
}

func (m *Manager) clearSession() {
	if err := m.tokens.Delete(SessionTokenKey); err != nil {
		logg.Errorf("unable to clear session token: %v", err)
	}
	if err := m.users.Clear(); err != nil {
		logg.Errorf("unable to clear cached user: %v", err)
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func failureResult(err error, fallback string) Result {
	message := fallback

	if apiErr, ok := err.(*client.APIError); ok && apiErr.Message != "" {
		message = apiErr.Message
	}

	return Result{Success: false, Message: message}
}
