// Package session owns authentication state: the stored bearer token and the
// signed-in doctor's profile.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/store"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
)

// User is the signed-in doctor as returned by the login endpoint.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
}

// loginResponse is the login endpoint's success payload.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	DoctorInfo  User   `json:"doctor_info"`
}

// Gateway is the slice of the API client the session needs.
type Gateway interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, body, out any) error
}

// Manager holds the current session. The token survives restarts through the
// key-value store; the user profile does not and is refetched on login.
type Manager struct {
	mu     sync.Mutex
	token  string
	user   *User
	store  store.Store
	toasts *toast.Center
	log    zerolog.Logger
}

// New creates a Manager, restoring any previously stored token.
func New(st store.Store, toasts *toast.Center, log zerolog.Logger) *Manager {
	m := &Manager{store: st, toasts: toasts, log: log}
	if token, ok := st.Get(store.KeyToken); ok {
		m.token = token
	}
	return m
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// CurrentUser returns the signed-in doctor, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// IsAdmin reports whether the signed-in doctor has the admin role.
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.user.Role == "admin"
}

// Login authenticates with the backend. Empty credentials fail locally with a
// toast and no network call. On success the token is persisted and a welcome
// toast is posted; on failure the error's user message is shown.
func (m *Manager) Login(ctx context.Context, gw Gateway, email, password string) error {
	if email == "" || password == "" {
		err := &gateway.ValidationError{Field: "credentials", Message: "Please fill in all fields"}
		m.toasts.Post(err.UserMessage(), toast.SeverityError)
		return err
	}

	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := gw.Post(ctx, "/auth/login", body, &resp); err != nil {
		m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
		return err
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	user := resp.DoctorInfo
	m.user = &user
	m.mu.Unlock()

	if err := m.store.Set(store.KeyToken, resp.AccessToken); err != nil {
		m.log.Warn().Err(err).Msg("persist token")
	}
	m.log.Info().Str("doctor", resp.DoctorInfo.Name).Msg("logged in")
	m.toasts.Post("Login successful!", toast.SeveritySuccess, "Welcome back")
	return nil
}

// Probe verifies a restored token by hitting an authenticated endpoint. An
// invalid token is discarded and false is returned; no toast is posted.
func (m *Manager) Probe(ctx context.Context, gw Gateway) bool {
	if m.Token() == "" {
		return false
	}
	if err := gw.Get(ctx, "/dashboard/stats", nil); err != nil {
		m.log.Debug().Err(err).Msg("stored token rejected")
		m.clear()
		return false
	}
	return true
}

// Logout discards the session and posts a confirmation toast.
func (m *Manager) Logout() {
	m.clear()
	m.toasts.Post("Logged out successfully", toast.SeverityInfo)
}

// ForceLogout discards the session without the confirmation toast. Used when
// the backend rejects the token mid-session; the auth error toast is posted by
// the caller.
func (m *Manager) ForceLogout() {
	m.clear()
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	if err := m.store.Remove(store.KeyToken); err != nil {
		m.log.Warn().Err(err).Msg("remove stored token")
	}
}
