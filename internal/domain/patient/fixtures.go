package patient

import "github.com/clinica/dashboard/internal/platform/fixture"

// Fixtures returns the records served while the backend is unreachable.
func Fixtures() []Patient {
	return []Patient{
		{ID: 1, Name: "María", NationalID: "12345678", BirthDate: "1985-04-23", Sex: SexFemale},
		{ID: 2, Name: "José", NationalID: "87654321", BirthDate: "1979-11-05", Sex: SexMale},
	}
}

// NewStore creates a fallback store seeded with Fixtures.
func NewStore() *fixture.Store[Patient, ID] {
	return fixture.NewStore(func(p Patient) ID { return p.ID }, Fixtures()...)
}
