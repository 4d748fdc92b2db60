// Package patients manages the patient roster: loading, client-side intake
// validation, creation, and removal.
package patients

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/platform/gateway"
	"github.com/pulseboard/pulseboard/internal/platform/toast"
)

const dobFormat = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Patient is the roster record as served by the backend.
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
	CreatedAt        string `json:"created_at,omitempty"`
}

// Draft is the intake form's content before validation.
type Draft struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalHistory   string `json:"medical_history,omitempty"`
}

// Gateway is the slice of the API client the roster needs.
type Gateway interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, body, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
}

// Manager holds the in-memory roster.
type Manager struct {
	mu       sync.Mutex
	patients []Patient
	gw       Gateway
	toasts   *toast.Center
	log      zerolog.Logger
	now      func() time.Time
}

// New creates an empty Manager.
func New(gw Gateway, toasts *toast.Center, log zerolog.Logger) *Manager {
	return &Manager{gw: gw, toasts: toasts, log: log, now: time.Now}
}

// Patients returns a copy of the current roster.
func (m *Manager) Patients() []Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Patient, len(m.patients))
	copy(out, m.patients)
	return out
}

// Load replaces the roster with the backend's current list. On failure the
// prior roster is kept and one toast is posted.
func (m *Manager) Load(ctx context.Context) error {
	var fetched []Patient
	if err := m.gw.Get(ctx, "/patients", &fetched); err != nil {
		m.log.Warn().Err(err).Msg("load patients")
		m.toasts.Post("Error loading patients", toast.SeverityError)
		return err
	}

	m.mu.Lock()
	m.patients = fetched
	m.mu.Unlock()
	return nil
}

// Validate checks a draft against the intake rules. The first violated rule
// wins; a nil return means the draft is acceptable.
func (m *Manager) Validate(d Draft) error {
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"email", d.Email},
		{"phone", d.Phone},
		{"date_of_birth", d.DateOfBirth},
		{"gender", d.Gender},
		{"address", d.Address},
		{"emergency_contact", d.EmergencyContact},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &gateway.ValidationError{
				Field:   r.field,
				Message: strings.ReplaceAll(r.field, "_", " ") + " is required",
			}
		}
	}

	if !emailPattern.MatchString(d.Email) {
		return &gateway.ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}

	dob, err := time.Parse(dobFormat, d.DateOfBirth)
	if err != nil || !dob.Before(m.now()) {
		return &gateway.ValidationError{Field: "date_of_birth", Message: "Date of birth must be in the past"}
	}
	return nil
}

// Create validates the draft and submits it. Validation failures post a toast
// and never reach the network. On success the new patient is prepended to the
// roster, most recent first.
func (m *Manager) Create(ctx context.Context, d Draft) (*Patient, error) {
	if err := m.Validate(d); err != nil {
		m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
		return nil, err
	}

	var created Patient
	if err := m.gw.Post(ctx, "/patients", d, &created); err != nil {
		m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
		return nil, err
	}

	m.mu.Lock()
	m.patients = append([]Patient{created}, m.patients...)
	m.mu.Unlock()

	m.toasts.Post("Patient added successfully!", toast.SeveritySuccess)
	return &created, nil
}

// Remove deletes a patient. A 404 means the patient is already gone and is
// treated as success; any other failure leaves the roster unchanged.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.gw.Delete(ctx, "/patients/"+id, nil); err != nil {
		var se *gateway.ServerError
		if !errors.As(err, &se) || se.StatusCode != 404 {
			m.toasts.Post(gateway.UserMessage(err), toast.SeverityError)
			return err
		}
	}

	m.mu.Lock()
	kept := m.patients[:0]
	for _, p := range m.patients {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.patients = kept
	m.mu.Unlock()

	m.toasts.Post("Patient deleted successfully", toast.SeveritySuccess)
	return nil
}

// Age returns whole years between dob and asOf, one less if the birthday has
// not yet occurred in asOf's year.
func Age(dob, asOf time.Time) int {
	years := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() || (asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		years--
	}
	return years
}

// AgeFromString parses a wire-format date of birth and returns the age as of
// now, or -1 when the date is unparsable.
func AgeFromString(dob string, asOf time.Time) int {
	t, err := time.Parse(dobFormat, dob)
	if err != nil {
		return -1
	}
	return Age(t, asOf)
}
