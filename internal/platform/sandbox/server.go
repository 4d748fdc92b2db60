// Package sandbox is a self-contained mock backend: login, patients,
// predictions with deterministic risk scoring, analytics, and an admin doctor
// directory, all in memory and seeded with demo data. It serves the same wire
// format as the production API so the client runs against it unchanged.
package sandbox

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const tokenTTL = 24 * time.Hour

// errorBody mirrors the production API's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// Doctor is a directory entry plus its login credential.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	Password       string `json:"-"`
}

// Patient is the stored patient record.
type Patient struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalHistory   string `json:"medical_history,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// Prediction is the stored risk assessment.
type Prediction struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	Age         int     `json:"age"`
	Sex         int     `json:"sex"`
	Cp          int     `json:"cp"`
	Trestbps    int     `json:"trestbps"`
	Chol        int     `json:"chol"`
	Fbs         int     `json:"fbs"`
	Restecg     int     `json:"restecg"`
	Thalach     int     `json:"thalach"`
	Exang       int     `json:"exang"`
	Oldpeak     float64 `json:"oldpeak"`
	Slope       int     `json:"slope"`
	Ca          int     `json:"ca"`
	Thal        int     `json:"thal"`
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
	CreatedAt   string  `json:"created_at"`
}

// Server is the in-memory backend.
type Server struct {
	mu          sync.Mutex
	doctors     []Doctor
	patients    []Patient
	predictions []Prediction
	secret      []byte
	now         func() time.Time
	hub         *hub
	log         zerolog.Logger
	echo        *echo.Echo
}

// New creates a seeded Server signing tokens with secret. An empty secret gets
// a random one, valid only for this process.
func New(secret string, log zerolog.Logger) *Server {
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("no JWT secret configured, using a generated one")
	}
	s := &Server{
		secret: []byte(secret),
		now:    time.Now,
		hub:    newHub(log),
		log:    log,
	}
	s.seed()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.requireAuth)
	authed.GET("/dashboard/stats", s.handleStats)
	authed.GET("/patients", s.handleListPatients)
	authed.POST("/patients", s.handleCreatePatient)
	authed.GET("/patients/:id", s.handleGetPatient)
	authed.PUT("/patients/:id", s.handleUpdatePatient)
	authed.DELETE("/patients/:id", s.handleDeletePatient)
	authed.POST("/predictions", s.handleCreatePrediction)
	authed.GET("/predictions/:patientID", s.handleListPredictions)
	authed.GET("/analytics/risk-distribution", s.handleRiskDistribution)
	authed.GET("/analytics/predictions-timeline", s.handleTimeline)
	authed.GET("/admin/doctors", s.handleListDoctors)
	authed.POST("/admin/doctors", s.handleCreateDoctor)

	e.GET("/ws", s.hub.handleConnect)
	s.echo = e
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("sandbox listening")
	return s.echo.Start(addr)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.echo.Close()
}

// errorHandler rewrites echo's default errors into the production envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}
	_ = c.JSON(code, errorBody{Detail: detail})
}

// ---- auth ----

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) handleLogin(c echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Email and password required"})
	}

	doctor, ok := s.findDoctor(creds.Email)
	if !ok || doctor.Password != creds.Password {
		return c.JSON(http.StatusUnauthorized, errorBody{Detail: "Invalid credentials"})
	}

	now := s.now()
	claims := tokenClaims{
		Role: doctor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctor.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	s.log.Info().Str("doctor", doctor.Email).Msg("login")
	return c.JSON(http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"doctor_info": map[string]string{
			"id":             doctor.ID,
			"name":           doctor.Name,
			"email":          doctor.Email,
			"role":           doctor.Role,
			"specialization": doctor.Specialization,
		},
	})
}

// requireAuth validates the bearer token and stashes the claims.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return c.JSON(http.StatusUnauthorized, errorBody{Detail: "Not authenticated"})
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, errorBody{Detail: "Could not validate credentials"})
		}

		c.Set("email", claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}

func (s *Server) findDoctor(email string) (Doctor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.Email == email {
			return d, true
		}
	}
	return Doctor{}, false
}

// ---- dashboard ----

func (s *Server) handleStats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekAgo := s.now().Add(-7 * 24 * time.Hour)
	highRisk, recent := 0, 0
	for _, p := range s.predictions {
		if p.RiskLevel == "High Risk" {
			highRisk++
		}
		if created, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil && created.After(weekAgo) {
			recent++
		}
	}
	return c.JSON(http.StatusOK, map[string]int{
		"total_patients":     len(s.patients),
		"high_risk_patients": highRisk,
		"recent_predictions": recent,
		"total_predictions":  len(s.predictions),
	})
}

// ---- patients ----

func (s *Server) handleListPatients(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Patient, len(s.patients))
	copy(out, s.patients)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Invalid patient payload"})
	}
	p.ID = uuid.New().String()
	p.CreatedAt = s.now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.patients = append(s.patients, p)
	s.mu.Unlock()

	s.hub.broadcastRefresh()
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleGetPatient(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			return c.JSON(http.StatusOK, p)
		}
	}
	return c.JSON(http.StatusNotFound, errorBody{Detail: "Patient not found"})
}

func (s *Server) handleUpdatePatient(c echo.Context) error {
	id := c.Param("id")
	var update Patient
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Invalid patient payload"})
	}

	s.mu.Lock()
	var updated *Patient
	for i := range s.patients {
		if s.patients[i].ID != id {
			continue
		}
		update.ID = id
		update.CreatedAt = s.patients[i].CreatedAt
		s.patients[i] = update
		updated = &s.patients[i]
		break
	}
	s.mu.Unlock()

	if updated == nil {
		return c.JSON(http.StatusNotFound, errorBody{Detail: "Patient not found"})
	}
	s.hub.broadcastRefresh()
	return c.JSON(http.StatusOK, *updated)
}

func (s *Server) handleDeletePatient(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	found := false
	kept := s.patients[:0]
	for _, p := range s.patients {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	s.patients = kept
	s.mu.Unlock()

	if !found {
		return c.JSON(http.StatusNotFound, errorBody{Detail: "Patient not found"})
	}
	s.hub.broadcastRefresh()
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}

// ---- predictions ----

func (s *Server) handleCreatePrediction(c echo.Context) error {
	var p Prediction
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Invalid prediction payload"})
	}

	p.ID = uuid.New().String()
	p.Probability, p.RiskLevel = score(p)
	p.CreatedAt = s.now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.predictions = append(s.predictions, p)
	s.mu.Unlock()

	s.hub.broadcastRefresh()
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleListPredictions(c echo.Context) error {
	patientID := c.Param("patientID")

	s.mu.Lock()
	var out []Prediction
	for _, p := range s.predictions {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if out == nil {
		out = []Prediction{}
	}
	return c.JSON(http.StatusOK, out)
}

// score is the deterministic risk rule: additive factor weights, capped, with
// the 0.5 cutoff deciding the level.
func score(p Prediction) (float64, string) {
	risk := 0.0
	if p.Age > 60 {
		risk += 0.3
	}
	if p.Chol > 240 {
		risk += 0.3
	}
	if p.Trestbps > 140 {
		risk += 0.2
	}
	if p.Sex == 1 {
		risk += 0.1
	}
	if p.Cp > 0 {
		risk += 0.1
	}
	if risk > 0.95 {
		risk = 0.95
	}
	if risk >= 0.5 {
		return risk, "High Risk"
	}
	return risk, "Low Risk"
}

// ---- analytics ----

func (s *Server) handleRiskDistribution(c echo.Context) error {
	s.mu.Lock()
	counts := make(map[string]int)
	var order []string
	for _, p := range s.predictions {
		if _, seen := counts[p.RiskLevel]; !seen {
			order = append(order, p.RiskLevel)
		}
		counts[p.RiskLevel]++
	}
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(order))
	for _, level := range order {
		out = append(out, map[string]any{"risk_level": level, "count": counts[level]})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleTimeline(c echo.Context) error {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, p := range s.predictions {
		if created, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			counts[created.Format("2006-01-02")]++
		}
	}
	s.mu.Unlock()

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]map[string]any, 0, len(days))
	for _, day := range days {
		out = append(out, map[string]any{"date": day, "count": counts[day]})
	}
	return c.JSON(http.StatusOK, out)
}

// ---- admin ----

func (s *Server) handleListDoctors(c echo.Context) error {
	if c.Get("role") != "admin" {
		return c.JSON(http.StatusForbidden, errorBody{Detail: "Admin access required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Doctor, len(s.doctors))
	copy(out, s.doctors)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateDoctor(c echo.Context) error {
	if c.Get("role") != "admin" {
		return c.JSON(http.StatusForbidden, errorBody{Detail: "Admin access required"})
	}

	var req struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Role           string `json:"role"`
		Specialization string `json:"specialization"`
		Password       string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Invalid doctor payload"})
	}
	if _, exists := s.findDoctor(req.Email); exists {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "Doctor already exists"})
	}

	doctor := Doctor{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		Specialization: req.Specialization,
		Password:       req.Password,
	}
	s.mu.Lock()
	s.doctors = append(s.doctors, doctor)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, doctor)
}
