// Package app is the top-level controller: it composes the session, the data
// managers, navigation, and rendering, and sequences the per-page loads.
package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/domain/analytics"
	"github.com/pulseboard/pulseboard/internal/domain/patients"
	"github.com/pulseboard/pulseboard/internal/domain/predictions"
	"github.com/pulseboard/pulseboard/internal/domain/session"
	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/store"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
	"github.com/pulseboard/pulseboard/internal/ui/nav"
	"github.com/pulseboard/pulseboard/internal/ui/render"
	"github.com/pulseboard/pulseboard/internal/ui/wizard"
)

// Modal and render target ids, shared between page loaders and callers.
const (
	ModalAddPatient = "addPatientModal"
	ModalPrediction = "predictionModal"

	targetStats     = "dashboardStats"
	targetRisk      = "riskChart"
	targetTimeline  = "timelineChart"
	targetMonthly   = "monthlyChart"
	targetFactors   = "riskFactorsChart"
	targetAge       = "ageDistributionChart"
	targetTrend     = "cholesterolChart"
)

// intakeSteps is the patient intake wizard length.
const intakeSteps = 3

// Gateway is the full API surface the orchestrator and its managers consume.
type Gateway interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, body, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
}

// PageRenderer is a renderer with per-page target activation.
type PageRenderer interface {
	render.Renderer
	ActivateTargets(targets ...string)
}

// Stats is the dashboard counters payload.
type Stats struct {
	TotalPatients     int `json:"total_patients"`
	HighRiskPatients  int `json:"high_risk_patients"`
	RecentPredictions int `json:"recent_predictions"`
	TotalPredictions  int `json:"total_predictions"`
}

// Doctor is one entry of the admin-only directory.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
}

// PredictionResult is the view-model shown after a successful submission.
type PredictionResult struct {
	RiskLevel          string
	ProbabilityPercent string
	SexLabel           string
	ChestPainType      string
	Recommendations    []string
}

// Orchestrator wires the whole client together.
type Orchestrator struct {
	cfg      config.Config
	gw       Gateway
	store    store.Store
	toasts   *toast.Center
	sess     *session.Manager
	patients *patients.Manager
	preds    *predictions.Manager
	nav      *nav.Machine
	renderer PageRenderer
	intake   *wizard.Wizard
	log      zerolog.Logger

	mu      sync.Mutex
	loading int
	doctors []Doctor
}

// New builds an Orchestrator and registers the per-page loaders.
func New(cfg config.Config, gw Gateway, st store.Store, toasts *toast.Center, renderer PageRenderer, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		gw:       gw,
		store:    st,
		toasts:   toasts,
		sess:     session.New(st, toasts, log),
		patients: patients.New(gw, toasts, log),
		preds:    predictions.New(gw, toasts, log),
		nav:      nav.NewMachine(nav.PageLogin, log),
		renderer: renderer,
		intake:   wizard.New(intakeSteps),
		log:      log,
	}

	o.nav.RegisterLoader(nav.PageDashboard, o.LoadDashboard)
	o.nav.RegisterLoader(nav.PagePatients, o.LoadPatientsPage)
	o.nav.RegisterLoader(nav.PagePredictions, o.LoadPredictionsPage)
	o.nav.RegisterLoader(nav.PageAnalytics, o.LoadAnalyticsPage)
	o.nav.RegisterLoader(nav.PageDoctors, o.LoadDoctorsPage)
	return o
}

// Session returns the session manager.
func (o *Orchestrator) Session() *session.Manager { return o.sess }

// Patients returns the patient roster manager.
func (o *Orchestrator) Patients() *patients.Manager { return o.patients }

// Predictions returns the predictions manager.
func (o *Orchestrator) Predictions() *predictions.Manager { return o.preds }

// Nav returns the navigation state machine.
func (o *Orchestrator) Nav() *nav.Machine { return o.nav }

// Intake returns the patient intake wizard.
func (o *Orchestrator) Intake() *wizard.Wizard { return o.intake }

// Doctors returns the last loaded doctors directory.
func (o *Orchestrator) Doctors() []Doctor {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Doctor, len(o.doctors))
	copy(out, o.doctors)
	return out
}

// ---- loading indicator ----

// acquireLoading increments the loading counter; the paired release always
// runs, so the indicator clears on every exit path.
func (o *Orchestrator) acquireLoading() func() {
	o.mu.Lock()
	o.loading++
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.loading--
		o.mu.Unlock()
	}
}

// IsLoading reports whether any load region is active.
func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading > 0
}

// ---- session flows ----

// Startup restores a prior session if its token still verifies, landing on the
// dashboard; otherwise it lands on the login page.
func (o *Orchestrator) Startup(ctx context.Context) {
	if o.sess.Probe(ctx, o.gw) {
		o.nav.NavigateTo(ctx, nav.PageDashboard)
		return
	}
	o.nav.NavigateTo(ctx, nav.PageLogin)
}

// Login authenticates and, on success, navigates to the dashboard.
func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	if err := o.sess.Login(ctx, o.gw, email, password); err != nil {
		return err
	}
	o.nav.NavigateTo(ctx, nav.PageDashboard)
	return nil
}

// Logout ends the session and returns to the login page.
func (o *Orchestrator) Logout(ctx context.Context) {
	o.sess.Logout()
	o.nav.NavigateTo(ctx, nav.PageLogin)
}

// handleAuthFailure forces a logout when err is an auth failure. Reports
// whether it did.
func (o *Orchestrator) handleAuthFailure(ctx context.Context, err error) bool {
	if !gateway.IsAuthError(err) {
		return false
	}
	o.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
	o.sess.ForceLogout()
	o.nav.NavigateTo(ctx, nav.PageLogin)
	return true
}

// ---- page loaders ----

// LoadDashboard renders the stat cards first, then the two charts
// concurrently. A chart failure never un-renders the stats.
func (o *Orchestrator) LoadDashboard(ctx context.Context) {
	release := o.acquireLoading()
	defer release()
	o.renderer.ActivateTargets(targetStats, targetRisk, targetTimeline)

	var stats Stats
	if err := o.gw.Get(ctx, "/dashboard/stats", &stats); err != nil {
		if o.handleAuthFailure(ctx, err) {
			return
		}
		o.log.Warn().Err(err).Msg("load dashboard stats")
		o.toasts.Post("Error loading dashboard", toast.SeverityError)
		return
	}
	if err := o.renderer.RenderStats(targetStats, render.StatCards(stats)); err != nil {
		o.log.Warn().Err(err).Msg("render stats")
	}

	o.loadGroup(ctx, "dashboard charts",
		o.loadRiskChart,
		o.loadTimelineChart,
	)
}

func (o *Orchestrator) loadRiskChart(ctx context.Context) error {
	var slices []analytics.RiskSlice
	if err := o.gw.Get(ctx, "/analytics/risk-distribution", &slices); err != nil {
		return err
	}
	s := render.Series{}
	for _, slice := range slices {
		s.Labels = append(s.Labels, slice.RiskLevel)
		s.Values = append(s.Values, float64(slice.Count))
	}
	return o.renderer.RenderPie(targetRisk, "Risk Distribution", s)
}

func (o *Orchestrator) loadTimelineChart(ctx context.Context) error {
	var samples []analytics.Sample
	if err := o.gw.Get(ctx, "/analytics/predictions-timeline", &samples); err != nil {
		return err
	}
	labels, values := analytics.TimelineSeries(samples)
	return o.renderer.RenderLine(targetTimeline, "Predictions Timeline", render.Series{Labels: labels, Values: values})
}

// LoadAnalyticsPage loads the four analytics charts fully in parallel,
// log-and-skip per chart.
func (o *Orchestrator) LoadAnalyticsPage(ctx context.Context) {
	release := o.acquireLoading()
	defer release()
	o.renderer.ActivateTargets(targetMonthly, targetFactors, targetAge, targetTrend)

	o.loadGroup(ctx, "analytics",
		o.loadMonthlyChart,
		o.loadRiskFactorsChart,
		o.loadAgeDistributionChart,
		o.loadCholesterolChart,
	)
}

func (o *Orchestrator) loadMonthlyChart(ctx context.Context) error {
	var samples []analytics.Sample
	if err := o.gw.Get(ctx, "/analytics/predictions-timeline", &samples); err != nil {
		return err
	}
	labels, values := analytics.MonthlySeries(analytics.BucketByMonth(samples))
	return o.renderer.RenderBar(targetMonthly, "Monthly Predictions", render.Series{Labels: labels, Values: values})
}

func (o *Orchestrator) loadRiskFactorsChart(ctx context.Context) error {
	rf := analytics.RiskFactors()
	axes := make([]render.RadarAxis, len(rf.Labels))
	for i, label := range rf.Labels {
		axes[i] = render.RadarAxis{Name: label, Max: 50}
	}
	return o.renderer.RenderRadar(targetFactors, "Risk Factors Analysis", axes, render.Series{Values: rf.Values})
}

func (o *Orchestrator) loadAgeDistributionChart(ctx context.Context) error {
	ad := analytics.AgeDistribution()
	return o.renderer.RenderGroupedBar(targetAge, "Age Distribution", render.MultiSeries{
		Labels: ad.Labels,
		Series: []render.NamedSeries{
			{Name: "Low Risk", Values: ad.LowRisk},
			{Name: "High Risk", Values: ad.HighRisk},
		},
	})
}

func (o *Orchestrator) loadCholesterolChart(ctx context.Context) error {
	ct := analytics.CholesterolTrends()
	return o.renderer.RenderMultiLine(targetTrend, "Cholesterol Trends", render.MultiSeries{
		Labels: ct.Labels,
		Series: []render.NamedSeries{
			{Name: "Average", Values: ct.Average},
			{Name: "High Risk Patients", Values: ct.HighRisk},
			{Name: "Low Risk Patients", Values: ct.LowRisk},
		},
	})
}

// LoadPatientsPage refreshes the roster.
func (o *Orchestrator) LoadPatientsPage(ctx context.Context) {
	release := o.acquireLoading()
	defer release()
	o.renderer.ActivateTargets()

	if err := o.patients.Load(ctx); err != nil {
		o.handleAuthFailure(ctx, err)
	}
}

// LoadPredictionsPage refreshes the per-patient prediction view.
func (o *Orchestrator) LoadPredictionsPage(ctx context.Context) {
	release := o.acquireLoading()
	defer release()
	o.renderer.ActivateTargets()

	if err := o.preds.Load(ctx); err != nil {
		o.handleAuthFailure(ctx, err)
	}
}

// LoadDoctorsPage loads the admin directory. Non-admin sessions skip the call.
func (o *Orchestrator) LoadDoctorsPage(ctx context.Context) {
	if !o.sess.IsAdmin() {
		o.log.Debug().Msg("doctors page skipped for non-admin")
		return
	}
	release := o.acquireLoading()
	defer release()
	o.renderer.ActivateTargets()

	var doctors []Doctor
	if err := o.gw.Get(ctx, "/admin/doctors", &doctors); err != nil {
		if o.handleAuthFailure(ctx, err) {
			return
		}
		o.log.Warn().Err(err).Msg("load doctors")
		o.toasts.Post("Error loading doctors", toast.SeverityError)
		return
	}
	o.mu.Lock()
	o.doctors = doctors
	o.mu.Unlock()
}

// ---- form flows ----

// CreatePatient submits the intake draft. On success the modal closes and the
// wizard resets for the next intake.
func (o *Orchestrator) CreatePatient(ctx context.Context, d patients.Draft) (*patients.Patient, error) {
	release := o.acquireLoading()
	defer release()

	created, err := o.patients.Create(ctx, d)
	if err != nil {
		o.handleAuthFailure(ctx, err)
		return nil, err
	}
	o.nav.CloseModal(ModalAddPatient)
	o.intake.Reset()
	return created, nil
}

// SubmitPrediction submits the clinical form. On success the modal closes, the
// result view-model is returned, and the prediction view reloads in full (no
// optimistic local insert).
func (o *Orchestrator) SubmitPrediction(ctx context.Context, raw map[string]string) (*PredictionResult, error) {
	release := o.acquireLoading()
	defer release()

	result, err := o.preds.Submit(ctx, raw)
	if err != nil {
		o.handleAuthFailure(ctx, err)
		return nil, err
	}
	o.nav.CloseModal(ModalPrediction)

	view := &PredictionResult{
		RiskLevel:          result.RiskLevel,
		ProbabilityPercent: predictions.ProbabilityPercent(result.Probability),
		SexLabel:           predictions.SexLabel(result.Sex),
		ChestPainType:      predictions.ChestPainType(result.Cp),
		Recommendations:    predictions.Recommendations(*result),
	}
	if err := o.preds.Load(ctx); err != nil {
		o.handleAuthFailure(ctx, err)
	}
	return view, nil
}

// ---- theme ----

// Theme returns the active theme, falling back to the configured default.
func (o *Orchestrator) Theme() string {
	if theme, ok := o.store.Get(store.KeyTheme); ok {
		return theme
	}
	return o.cfg.DefaultTheme
}

// ToggleTheme flips between light and dark and persists the choice.
func (o *Orchestrator) ToggleTheme() string {
	next := "dark"
	if o.Theme() == "dark" {
		next = "light"
	}
	if err := o.store.Set(store.KeyTheme, next); err != nil {
		o.log.Warn().Err(err).Msg("persist theme")
	}
	return next
}

// ---- analytics export ----

// ExportAnalytics writes the analytics datasets as a timestamped JSON file in
// the output directory and returns its path.
func (o *Orchestrator) ExportAnalytics(now time.Time) (string, error) {
	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(o.cfg.OutputDir, analytics.ExportFilename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := analytics.NewExport(now).Encode(f); err != nil {
		return "", err
	}
	o.toasts.Post("Analytics exported successfully", toast.SeveritySuccess)
	return path, nil
}
