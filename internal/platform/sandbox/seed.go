package sandbox

import (
	"time"

	"github.com/google/uuid"
)

// Demo credentials, printed by the sandbox command on startup.
const (
	DemoAdminEmail    = "admin@heartpredict.com"
	DemoAdminPassword = "admin123"

	DemoDoctorEmail    = "doctor@heartpredict.com"
	DemoDoctorPassword = "doctor123"
)

// seed loads the demo doctors, a small patient roster, and enough predictions
// to give every chart something to draw.
func (s *Server) seed() {
	s.doctors = []Doctor{
		{
			ID: uuid.New().String(), Name: "Dr. Sarah Chen", Email: DemoAdminEmail,
			Role: "admin", Specialization: "Cardiology", Password: DemoAdminPassword,
		},
		{
			ID: uuid.New().String(), Name: "Dr. John Smith", Email: DemoDoctorEmail,
			Role: "doctor", Specialization: "Internal Medicine", Password: DemoDoctorPassword,
		},
	}

	now := s.now().UTC()
	stamp := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
	}

	s.patients = []Patient{
		{
			ID: uuid.New().String(), Name: "Robert Garcia", Email: "robert.garcia@example.com",
			Phone: "555-0101", DateOfBirth: "1958-03-22", Gender: "male",
			Address: "14 Elm Street", EmergencyContact: "Maria Garcia 555-0102",
			MedicalHistory: "Hypertension, elevated cholesterol", CreatedAt: stamp(40),
		},
		{
			ID: uuid.New().String(), Name: "Linda Okafor", Email: "linda.okafor@example.com",
			Phone: "555-0103", DateOfBirth: "1971-11-04", Gender: "female",
			Address: "88 Birch Avenue", EmergencyContact: "Sam Okafor 555-0104",
			CreatedAt: stamp(25),
		},
		{
			ID: uuid.New().String(), Name: "Tom Keller", Email: "tom.keller@example.com",
			Phone: "555-0105", DateOfBirth: "1990-07-15", Gender: "male",
			Address: "3 Cedar Lane", EmergencyContact: "Anna Keller 555-0106",
			CreatedAt: stamp(10),
		},
	}

	assess := func(patientIdx, daysAgo, age, sex, cp, trestbps, chol, thalach int, oldpeak float64) {
		p := Prediction{
			ID:        uuid.New().String(),
			PatientID: s.patients[patientIdx].ID,
			Age:       age, Sex: sex, Cp: cp, Trestbps: trestbps, Chol: chol,
			Fbs: 0, Restecg: 1, Thalach: thalach, Exang: 0,
			Oldpeak: oldpeak, Slope: 1, Ca: 0, Thal: 2,
			CreatedAt: stamp(daysAgo),
		}
		p.Probability, p.RiskLevel = score(p)
		s.predictions = append(s.predictions, p)
	}

	assess(0, 35, 66, 1, 2, 152, 268, 131, 1.8)
	assess(0, 3, 66, 1, 1, 148, 255, 140, 1.2)
	assess(1, 20, 52, 0, 0, 128, 212, 168, 0.4)
	assess(1, 2, 53, 0, 1, 131, 221, 162, 0.6)
	assess(2, 1, 34, 1, 0, 118, 182, 190, 0.0)
}
