package sandbox

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/platform/gateway"
)

// login runs the real wire flow through the gateway client and returns an
// authenticated client for follow-up calls.
func login(t *testing.T, url, email, password string) *gateway.Client {
	t.Helper()
	anon := gateway.New(url+"/api", 2*time.Second, nil, zerolog.Nop())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := anon.Post(context.Background(), "/auth/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token := resp.AccessToken
	return gateway.New(url+"/api", 2*time.Second, gateway.TokenFunc(func() string { return token }), zerolog.Nop())
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := New("test-secret", zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func TestLogin_BadCredentials(t *testing.T) {
	_, url := newTestServer(t)
	anon := gateway.New(url+"/api", 2*time.Second, nil, zerolog.Nop())

	err := anon.Post(context.Background(), "/auth/login", map[string]string{
		"email": DemoAdminEmail, "password": "wrong",
	}, nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.Detail != "Invalid credentials" {
		t.Fatalf("error = %T (%v), want 401 detail surfaced as *ServerError", err, err)
	}
	if gateway.IsAuthError(err) {
		t.Error("IsAuthError = true, a failed login must not read as a dead session")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	_, url := newTestServer(t)
	anon := gateway.New(url+"/api", 2*time.Second, nil, zerolog.Nop())

	err := anon.Post(context.Background(), "/auth/login", map[string]string{"email": DemoAdminEmail}, nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.Detail != "Email and password required" {
		t.Fatalf("error = %v, want required-fields detail", err)
	}
}

func TestProtectedRoutes_RejectMissingToken(t *testing.T) {
	_, url := newTestServer(t)
	anon := gateway.New(url+"/api", 2*time.Second, nil, zerolog.Nop())

	err := anon.Get(context.Background(), "/dashboard/stats", nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.StatusCode != 401 || se.Detail != "Not authenticated" {
		t.Fatalf("error = %v, want 401 Not authenticated", err)
	}
}

func TestProtectedRoutes_RejectBadToken(t *testing.T) {
	_, url := newTestServer(t)
	c := gateway.New(url+"/api", 2*time.Second,
		gateway.TokenFunc(func() string { return "not-a-jwt" }), zerolog.Nop())

	err := c.Get(context.Background(), "/dashboard/stats", nil)
	if !gateway.IsAuthError(err) {
		t.Fatalf("error = %v, want auth error for a rejected token", err)
	}
}

func TestStats_MatchSeedData(t *testing.T) {
	_, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)

	var stats struct {
		TotalPatients    int `json:"total_patients"`
		HighRisk         int `json:"high_risk_patients"`
		TotalPredictions int `json:"total_predictions"`
	}
	if err := c.Get(context.Background(), "/dashboard/stats", &stats); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPatients != 3 {
		t.Errorf("total_patients = %d, want 3", stats.TotalPatients)
	}
	if stats.TotalPredictions != 5 {
		t.Errorf("total_predictions = %d, want 5", stats.TotalPredictions)
	}
	if stats.HighRisk == 0 {
		t.Error("high_risk_patients = 0, seed includes high-risk assessments")
	}
}

func TestPatientLifecycle(t *testing.T) {
	_, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)
	ctx := context.Background()

	var created Patient
	err := c.Post(ctx, "/patients", map[string]string{
		"name": "New Person", "email": "new@example.com", "phone": "555-0200",
		"date_of_birth": "1985-01-30", "gender": "female",
		"address": "9 Oak Road", "emergency_contact": "Pat 555-0201",
	}, &created)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Errorf("created = %+v, want server-assigned id and timestamp", created)
	}

	var roster []Patient
	if err := c.Get(ctx, "/patients", &roster); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(roster) != 4 {
		t.Errorf("roster = %d, want 4 after create", len(roster))
	}

	if err := c.Delete(ctx, "/patients/"+created.ID, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = c.Delete(ctx, "/patients/"+created.ID, nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.StatusCode != 404 || se.Detail != "Patient not found" {
		t.Errorf("second delete = %v, want 404 Patient not found", err)
	}
}

func TestCreatePrediction_ScoresDeterministically(t *testing.T) {
	_, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)

	// age>60 (+0.3), chol>240 (+0.3), trestbps>140 (+0.2), sex (+0.1), cp>0 (+0.1)
	var result Prediction
	err := c.Post(context.Background(), "/predictions", map[string]any{
		"patient_id": "p1", "age": 65, "sex": 1, "cp": 2, "trestbps": 150,
		"chol": 260, "fbs": 0, "restecg": 1, "thalach": 120, "exang": 0,
		"oldpeak": 1.5, "slope": 1, "ca": 0, "thal": 2,
	}, &result)
	if err != nil {
		t.Fatalf("create prediction: %v", err)
	}
	if result.Probability != 0.95 {
		t.Errorf("probability = %v, want capped 0.95", result.Probability)
	}
	if result.RiskLevel != "High Risk" {
		t.Errorf("risk_level = %q, want High Risk", result.RiskLevel)
	}

	var lowResult Prediction
	err = c.Post(context.Background(), "/predictions", map[string]any{
		"patient_id": "p1", "age": 30, "sex": 0, "cp": 0, "trestbps": 110,
		"chol": 180, "fbs": 0, "restecg": 1, "thalach": 180, "exang": 0,
		"oldpeak": 0.0, "slope": 1, "ca": 0, "thal": 2,
	}, &lowResult)
	if err != nil {
		t.Fatalf("create low prediction: %v", err)
	}
	if lowResult.Probability != 0 || lowResult.RiskLevel != "Low Risk" {
		t.Errorf("low result = %v / %q, want 0 Low Risk", lowResult.Probability, lowResult.RiskLevel)
	}
}

func TestListPredictions_NewestFirst(t *testing.T) {
	s, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)

	patientID := s.patients[0].ID
	var history []Prediction
	if err := c.Get(context.Background(), "/predictions/"+patientID, &history); err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[0].CreatedAt < history[1].CreatedAt {
		t.Error("history not sorted newest first")
	}
}

func TestTimeline_DayGrainedAndSorted(t *testing.T) {
	_, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)

	var samples []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	if err := c.Get(context.Background(), "/analytics/predictions-timeline", &samples); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("timeline empty")
	}
	for i := 1; i < len(samples); i++ {
		if samples[i-1].Date >= samples[i].Date {
			t.Errorf("timeline out of order: %q before %q", samples[i-1].Date, samples[i].Date)
		}
	}
}

func TestRiskDistribution_CountsByLevel(t *testing.T) {
	_, url := newTestServer(t)
	c := login(t, url, DemoDoctorEmail, DemoDoctorPassword)

	var slices []struct {
		RiskLevel string `json:"risk_level"`
		Count     int    `json:"count"`
	}
	if err := c.Get(context.Background(), "/analytics/risk-distribution", &slices); err != nil {
		t.Fatalf("risk distribution: %v", err)
	}
	total := 0
	for _, s := range slices {
		total += s.Count
	}
	if total != 5 {
		t.Errorf("distribution total = %d, want 5 seeded predictions", total)
	}
}

func TestAdminDoctors_RoleGated(t *testing.T) {
	_, url := newTestServer(t)

	doctor := login(t, url, DemoDoctorEmail, DemoDoctorPassword)
	err := doctor.Get(context.Background(), "/admin/doctors", nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.StatusCode != 403 || se.Detail != "Admin access required" {
		t.Fatalf("doctor access = %v, want 403 Admin access required", err)
	}

	admin := login(t, url, DemoAdminEmail, DemoAdminPassword)
	var doctors []Doctor
	if err := admin.Get(context.Background(), "/admin/doctors", &doctors); err != nil {
		t.Fatalf("admin access: %v", err)
	}
	if len(doctors) != 2 {
		t.Errorf("doctors = %d, want 2 seeded", len(doctors))
	}
}

func TestCreateDoctor_DuplicateRejected(t *testing.T) {
	_, url := newTestServer(t)
	admin := login(t, url, DemoAdminEmail, DemoAdminPassword)

	err := admin.Post(context.Background(), "/admin/doctors", map[string]string{
		"name": "Dr. Dup", "email": DemoDoctorEmail, "role": "doctor",
		"specialization": "Oncology", "password": "x",
	}, nil)
	var se *gateway.ServerError
	if !errors.As(err, &se) || se.Detail != "Doctor already exists" {
		t.Errorf("duplicate create = %v, want Doctor already exists", err)
	}
}
