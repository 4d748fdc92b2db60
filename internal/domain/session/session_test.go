package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/store"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
)

// fakeGateway records calls and plays back canned responses.
type fakeGateway struct {
	calls    []string
	loginOK  bool
	probeErr error
}

func (f *fakeGateway) Get(ctx context.Context, endpoint string, out any) error {
	f.calls = append(f.calls, "GET "+endpoint)
	return f.probeErr
}

func (f *fakeGateway) Post(ctx context.Context, endpoint string, body, out any) error {
	f.calls = append(f.calls, "POST "+endpoint)
	if !f.loginOK {
		return &gateway.ServerError{StatusCode: 401, Detail: "Invalid credentials"}
	}
	if resp, ok := out.(*loginResponse); ok {
		*resp = loginResponse{
			AccessToken: "tok-abc",
			TokenType:   "bearer",
			DoctorInfo: User{
				ID: "d1", Name: "Dr. Smith", Email: "smith@example.com",
				Role: "admin", Specialization: "Cardiology",
			},
		}
	}
	return nil
}

func newTestManager() (*Manager, *store.MemoryStore, *toast.Center) {
	st := store.NewMemoryStore()
	tc := toast.NewCenter(time.Minute)
	return New(st, tc, zerolog.Nop()), st, tc
}

func TestLogin_EmptyCredentialsNoNetworkCall(t *testing.T) {
	m, _, tc := newTestManager()
	defer tc.Close()
	gw := &fakeGateway{}

	if err := m.Login(context.Background(), gw, "", "secret"); err == nil {
		t.Fatal("expected validation error")
	}
	if len(gw.calls) != 0 {
		t.Errorf("gateway calls = %v, want none", gw.calls)
	}
	if tc.Len() != 1 {
		t.Errorf("toasts = %d, want 1", tc.Len())
	}
}

func TestLogin_SuccessPersistsTokenAndUser(t *testing.T) {
	m, st, tc := newTestManager()
	defer tc.Close()
	gw := &fakeGateway{loginOK: true}

	if err := m.Login(context.Background(), gw, "smith@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.Token() != "tok-abc" {
		t.Errorf("Token = %q, want tok-abc", m.Token())
	}
	if stored, _ := st.Get(store.KeyToken); stored != "tok-abc" {
		t.Errorf("stored token = %q, want tok-abc", stored)
	}
	u := m.CurrentUser()
	if u == nil || u.Name != "Dr. Smith" {
		t.Fatalf("CurrentUser = %+v, want Dr. Smith", u)
	}
	if !m.IsAdmin() {
		t.Error("IsAdmin = false for admin role")
	}
	items := tc.Items()
	if len(items) != 1 || items[0].Title != "Welcome back" {
		t.Errorf("toasts = %+v, want single welcome toast", items)
	}
}

func TestLogin_FailureShowsDetailToast(t *testing.T) {
	m, _, tc := newTestManager()
	defer tc.Close()
	gw := &fakeGateway{loginOK: false}

	if err := m.Login(context.Background(), gw, "smith@example.com", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if m.Token() != "" {
		t.Errorf("Token = %q after failed login, want empty", m.Token())
	}
	items := tc.Items()
	if len(items) != 1 || items[0].Message != "Invalid credentials" {
		t.Errorf("toasts = %+v, want server detail", items)
	}
}

func TestLogin_WrongPasswordToastsServerDetail(t *testing.T) {
	// Wire-level check: a 401 from the login endpoint must surface the
	// server's detail, not the session-expired message.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer srv.Close()

	m, _, tc := newTestManager()
	defer tc.Close()
	gw := gateway.New(srv.URL, 2*time.Second, nil, zerolog.Nop())

	if err := m.Login(context.Background(), gw, "smith@example.com", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	items := tc.Items()
	if len(items) != 1 || items[0].Message != "Invalid credentials" {
		t.Errorf("toasts = %+v, want %q", items, "Invalid credentials")
	}
}

func TestNew_RestoresStoredToken(t *testing.T) {
	st := store.NewMemoryStore()
	st.Set(store.KeyToken, "restored")
	tc := toast.NewCenter(time.Minute)
	defer tc.Close()

	m := New(st, tc, zerolog.Nop())
	if m.Token() != "restored" {
		t.Errorf("Token = %q, want restored", m.Token())
	}
}

func TestProbe_InvalidTokenClearsSession(t *testing.T) {
	st := store.NewMemoryStore()
	st.Set(store.KeyToken, "stale")
	tc := toast.NewCenter(time.Minute)
	defer tc.Close()
	m := New(st, tc, zerolog.Nop())

	gw := &fakeGateway{probeErr: &gateway.AuthError{StatusCode: 401}}
	if m.Probe(context.Background(), gw) {
		t.Fatal("Probe = true with rejected token")
	}
	if m.Token() != "" {
		t.Errorf("Token = %q after failed probe, want empty", m.Token())
	}
	if _, ok := st.Get(store.KeyToken); ok {
		t.Error("stale token still stored after failed probe")
	}
	if tc.Len() != 0 {
		t.Errorf("toasts = %d, probe failures are silent", tc.Len())
	}
}

func TestProbe_NoTokenSkipsNetwork(t *testing.T) {
	m, _, tc := newTestManager()
	defer tc.Close()
	gw := &fakeGateway{}

	if m.Probe(context.Background(), gw) {
		t.Fatal("Probe = true with no token")
	}
	if len(gw.calls) != 0 {
		t.Errorf("gateway calls = %v, want none", gw.calls)
	}
}

func TestLogout_ClearsStateAndToasts(t *testing.T) {
	m, st, tc := newTestManager()
	defer tc.Close()
	gw := &fakeGateway{loginOK: true}
	m.Login(context.Background(), gw, "smith@example.com", "secret")

	m.Logout()
	if m.Token() != "" || m.CurrentUser() != nil {
		t.Error("session state survived logout")
	}
	if _, ok := st.Get(store.KeyToken); ok {
		t.Error("token still stored after logout")
	}
	items := tc.Items()
	last := items[len(items)-1]
	if last.Message != "Logged out successfully" || last.Severity != toast.SeverityInfo {
		t.Errorf("last toast = %+v, want logout info", last)
	}
}
