package doctor

import "github.com/clinica/dashboard/internal/platform/fixture"

// Fixtures returns the records served while the backend is unreachable.
func Fixtures() []Doctor {
	return []Doctor{
		{ID: 11, FirstName: "Luis", LastName: "Pérez", Specialty: "Cardiología"},
		{ID: 12, FirstName: "Ana", LastName: "García", Specialty: "Pediatría"},
		{ID: 13, FirstName: "Carlos", LastName: "Martínez", Specialty: "Neurología"},
		{ID: 14, FirstName: "Elena", LastName: "Rodríguez", Specialty: "Dermatología"},
		{ID: 15, FirstName: "Javier", LastName: "López", Specialty: "Traumatología"},
	}
}

// NewStore creates a fallback store seeded with Fixtures.
func NewStore() *fixture.Store[Doctor, ID] {
	return fixture.NewStore(func(d Doctor) ID { return d.ID }, Fixtures()...)
}
