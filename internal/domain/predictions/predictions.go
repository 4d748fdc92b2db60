// Package predictions manages risk assessments: the per-patient prediction
// history view, clinical-form validation and submission, and the derived
// display values (labels, recommendations).
package predictions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/domain/patients"
	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
)

// Risk levels as computed by the backend. The client never reclassifies a
// probability, it only renders the label it received.
const (
	RiskHigh = "High Risk"
	RiskLow  = "Low Risk"
)

// Prediction is one risk assessment as served by the backend.
type Prediction struct {
	ID          string  `json:"id,omitempty"`
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
	CreatedAt   string  `json:"created_at,omitempty"`
}

// assessmentRequest is the submit payload: the clinical fields only. The
// server computes probability and risk level, so they never appear on the
// wire in a request.
type assessmentRequest struct {
	PatientID string  `json:"patient_id"`
	Age       int     `json:"age"`
	Sex       int     `json:"sex"`
	Cp        int     `json:"cp"`
	Trestbps  int     `json:"trestbps"`
	Chol      int     `json:"chol"`
	Fbs       int     `json:"fbs"`
	Restecg   int     `json:"restecg"`
	Thalach   int     `json:"thalach"`
	Exang     int     `json:"exang"`
	Oldpeak   float64 `json:"oldpeak"`
	Slope     int     `json:"slope"`
	Ca        int     `json:"ca"`
	Thal      int     `json:"thal"`
}

// PatientHistory pairs a patient with their non-empty prediction history.
type PatientHistory struct {
	Patient     patients.Patient
	Predictions []Prediction
}

// Gateway is the slice of the API client this manager needs.
type Gateway interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, body, out any) error
}

// formFields is the submission field order; presence errors report the first
// missing field in this order.
var formFields = []string{
	"patient_id", "age", "sex", "cp", "trestbps", "chol", "fbs",
	"restecg", "thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

// Manager holds the prediction history view.
type Manager struct {
	mu        sync.Mutex
	histories []PatientHistory
	gw        Gateway
	toasts    *toast.Center
	log       zerolog.Logger
}

// New creates an empty Manager.
func New(gw Gateway, toasts *toast.Center, log zerolog.Logger) *Manager {
	return &Manager{gw: gw, toasts: toasts, log: log}
}

// Histories returns a copy of the current per-patient view.
func (m *Manager) Histories() []PatientHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PatientHistory, len(m.histories))
	copy(out, m.histories)
	return out
}

// Load fetches the patient list, then each patient's prediction history in
// list order. A failed per-patient fetch is logged and skipped; patients with
// no predictions are excluded. The view is swapped in whole on completion.
func (m *Manager) Load(ctx context.Context) error {
	var roster []patients.Patient
	if err := m.gw.Get(ctx, "/patients", &roster); err != nil {
		m.log.Warn().Err(err).Msg("load predictions: patient list")
		m.toasts.Post("Error loading predictions", toast.SeverityError)
		return err
	}

	histories := make([]PatientHistory, 0, len(roster))
	for _, p := range roster {
		var preds []Prediction
		if err := m.gw.Get(ctx, "/predictions/"+p.ID, &preds); err != nil {
			m.log.Warn().Err(err).Str("patient", p.ID).Msg("load predictions: patient history")
			continue
		}
		if len(preds) == 0 {
			continue
		}
		histories = append(histories, PatientHistory{Patient: p, Predictions: preds})
	}

	m.mu.Lock()
	m.histories = histories
	m.mu.Unlock()
	return nil
}

// Submit validates the raw form values, coerces them to their wire types, and
// posts the assessment. Validation failures toast and never reach the network.
// The caller reloads the prediction view after a successful submit; there is
// no local insert.
func (m *Manager) Submit(ctx context.Context, raw map[string]string) (*Prediction, error) {
	req, err := buildRequest(raw)
	if err != nil {
		m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
		return nil, err
	}

	var result Prediction
	if err := m.gw.Post(ctx, "/predictions", req, &result); err != nil {
		m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
		return nil, err
	}
	return &result, nil
}

// buildRequest runs the validation pipeline: presence of every field in form
// order, then numeric coercion, then clinical ranges. First failure wins.
func buildRequest(raw map[string]string) (*assessmentRequest, error) {
	for _, field := range formFields {
		if strings.TrimSpace(raw[field]) == "" {
			return nil, &gateway.ValidationError{
				Field:   field,
				Message: strings.ReplaceAll(field, "_", " ") + " is required",
			}
		}
	}

	req := &assessmentRequest{PatientID: raw["patient_id"]}
	ints := []struct {
		field string
		dst   *int
	}{
		{"age", &req.Age}, {"sex", &req.Sex}, {"cp", &req.Cp},
		{"trestbps", &req.Trestbps}, {"chol", &req.Chol}, {"fbs", &req.Fbs},
		{"restecg", &req.Restecg}, {"thalach", &req.Thalach}, {"exang", &req.Exang},
		{"slope", &req.Slope}, {"ca", &req.Ca}, {"thal", &req.Thal},
	}
	for _, c := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(raw[c.field]))
		if err != nil {
			return nil, &gateway.ValidationError{
				Field:   c.field,
				Message: strings.ReplaceAll(c.field, "_", " ") + " must be a number",
			}
		}
		*c.dst = n
	}
	oldpeak, err := strconv.ParseFloat(strings.TrimSpace(raw["oldpeak"]), 64)
	if err != nil {
		return nil, &gateway.ValidationError{Field: "oldpeak", Message: "oldpeak must be a number"}
	}
	req.Oldpeak = oldpeak

	switch {
	case req.Age < 1 || req.Age > 120:
		return nil, &gateway.ValidationError{Field: "age", Message: "Age must be between 1 and 120"}
	case req.Trestbps < 80 || req.Trestbps > 200:
		return nil, &gateway.ValidationError{Field: "trestbps", Message: "Resting blood pressure must be between 80 and 200"}
	case req.Chol < 100 || req.Chol > 600:
		return nil, &gateway.ValidationError{Field: "chol", Message: "Cholesterol must be between 100 and 600"}
	case req.Thalach < 60 || req.Thalach > 220:
		return nil, &gateway.ValidationError{Field: "thalach", Message: "Max heart rate must be between 60 and 220"}
	}
	return req, nil
}

// Recommendations returns the advice lines for a result: the risk-level base
// set first, then conditional cholesterol and blood-pressure additions.
func Recommendations(p Prediction) []string {
	var recs []string
	if p.RiskLevel == RiskHigh {
		recs = append(recs,
			"Consult with a cardiologist immediately",
			"Consider additional cardiac testing (ECG, stress test, echocardiogram)",
			"Monitor blood pressure and cholesterol levels regularly",
			"Implement lifestyle changes (diet, exercise, stress management)",
		)
	} else {
		recs = append(recs,
			"Maintain regular check-ups with your healthcare provider",
			"Continue healthy lifestyle habits",
			"Monitor cardiovascular risk factors",
		)
	}
	if p.Chol > 240 {
		recs = append(recs, "Consider cholesterol management strategies")
	}
	if p.Trestbps > 140 {
		recs = append(recs, "Monitor and manage blood pressure")
	}
	return recs
}

// ChestPainType returns the display label for a cp code.
func ChestPainType(cp int) string {
	switch cp {
	case 0:
		return "Typical Angina"
	case 1:
		return "Atypical Angina"
	case 2:
		return "Non-anginal Pain"
	case 3:
		return "Asymptomatic"
	default:
		return "Unknown"
	}
}

// SexLabel returns the display label for a sex code.
func SexLabel(sex int) string {
	if sex == 1 {
		return "Male"
	}
	return "Female"
}

// ProbabilityPercent formats a probability for display, one decimal place.
func ProbabilityPercent(p float64) string {
	return fmt.Sprintf("%.1f", p*100)
}
