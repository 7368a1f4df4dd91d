package exam

import "github.com/clinica/dashboard/internal/platform/fixture"

func comment(s string) *string { return &s }

// Fixtures returns the records served while the backend is unreachable.
func Fixtures() []Exam {
	return []Exam{
		{
			ID:        "6823df56ead11ad8ce0f1164",
			PatientID: "52506561",
			DoctorID:  "3",
			Type:      "Sangre",
			Date:      "2025-05-14T00:09:58.979143",
			Status:    StatusCancelled,
			Result: map[string]string{
				"Hemoglobina":      "17.0 g/dL",
				"Glóbulos blancos": "4082 /µL",
				"Plaquetas":        "377694 /µL",
			},
			Comments: comment("Observación general del examen 1"),
		},
		{
			ID:        "6823df57ead11ad8ce0f1165",
			PatientID: "88135756",
			DoctorID:  "29",
			Type:      "Orina",
			Date:      "2025-05-14T00:09:59.068227",
			Status:    StatusCompleted,
			Result: map[string]string{
				"Color":     "Ámbar",
				"Proteínas": "Negativo",
				"Glucosa":   "Positivo",
			},
			Comments: comment("Observación general del examen 2"),
		},
		{
			ID:        "6823df57ead11ad8ce0f1166",
			PatientID: "97243678",
			DoctorID:  "30",
			Type:      "Sangre",
			Date:      "2025-05-14T00:09:59.06921",
			Status:    StatusCompleted,
			Result: map[string]string{
				"Hemoglobina":      "16.1 g/dL",
				"Glóbulos blancos": "5648 /µL",
				"Plaquetas":        "188353 /µL",
			},
			Comments: comment("Observación general del examen 3"),
		},
	}
}

// NewStore creates a fallback store seeded with Fixtures.
func NewStore() *fixture.Store[Exam, ID] {
	return fixture.NewStore(func(e Exam) ID { return e.ID }, Fixtures()...)
}
