package summary

import "github.com/clinica/dashboard/internal/platform/fixture"

// DemoID is the lookup id the offline summaries answer to, whatever the
// id of their subject.
const DemoID = 1

// Fixtures returns one doctor and one patient summary.
func Fixtures() []Summary {
	return []Summary{
		{
			Kind: KindDoctor,
			Doctor: &DoctorSummary{
				Doctor: &DoctorInfo{ID: 1, Name: "Victor", LastName: "Gutierrez", Specialty: "Cardiología"},
				Visits: []DoctorVisit{
					{Description: "Consulta de rutina, presión arterial elevada.", Date: "2025-04-15T10:30:00Z", PatientID: 101, PatientName: "María López"},
					{Description: "Evaluación post-operatoria, evolución favorable.", Date: "2025-04-10T15:45:00Z", PatientID: 102, PatientName: "Carlos Ruiz"},
					{Description: "Primera consulta, dolor en el pecho al ejercitarse.", Date: "2025-04-08T09:15:00Z", PatientID: 103, PatientName: "Ana Gómez"},
				},
			},
		},
		{
			Kind: KindPatient,
			Patient: &PatientSummary{
				Patient: &PatientInfo{ID: 101, Name: "María López", NationalID: "12345678", BirthDate: "1985-06-12T00:00:00Z", Sex: "Femenino"},
				Visits: []PatientVisit{
					{Description: "Consulta de rutina, presión arterial elevada.", Date: "2025-04-15T10:30:00Z", DoctorName: "Dr. Juan Pérez", PatientID: 101},
					{Description: "Análisis de sangre anual.", Date: "2025-03-22T11:00:00Z", DoctorName: "Dra. Laura Sánchez", PatientID: 101},
					{Description: "Vacunación contra la gripe.", Date: "2025-02-05T14:30:00Z", DoctorName: "Dr. Roberto Díaz", PatientID: 101},
				},
			},
		},
	}
}

// NewStore creates a fallback store seeded with Fixtures, each found
// under (kind, DemoID).
func NewStore() *fixture.Store[Summary, Key] {
	return fixture.NewStore(func(s Summary) Key { return Key{Kind: s.Kind, ID: DemoID} }, Fixtures()...)
}
