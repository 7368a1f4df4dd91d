package patient

import (
	"strings"

	"github.com/clinica/dashboard/internal/platform/listing"
)

const (
	MsgRequired = "Por favor complete los campos obligatorios: nombre, DNI, fecha de nacimiento y sexo"
	MsgLoad     = "No se pudieron cargar los pacientes. Por favor, intente nuevamente."
)

// MissMessage is shown when a lookup by id finds nothing.
func MissMessage(query string) string {
	return "No se encontró ningún paciente con ID: " + query
}

// Validate checks a registration form before it is submitted.
func Validate(p Patient) error {
	if strings.TrimSpace(p.Name) == "" ||
		strings.TrimSpace(p.NationalID) == "" ||
		strings.TrimSpace(p.BirthDate) == "" ||
		!p.Sex.Valid() {
		return listing.NewValidationError(MsgRequired)
	}
	return nil
}

// ListConfig is the patients view: ten per page counted from one, lookups
// by id that keep the list visible on a miss.
func ListConfig() listing.Config[Patient, ID] {
	return listing.Config[Patient, ID]{
		Name:         "pacientes",
		PageSize:     10,
		IndexBase:    1,
		Insert:       listing.InsertTail,
		Search:       listing.SearchLookup,
		Miss:         listing.MissKeepCollection,
		OnEmptyQuery: listing.EmptyClearsLookup,
		ParseID:      ParseID,
		IDOf:         func(p Patient) ID { return p.ID },
		Validate:     Validate,
		Messages: listing.Messages{
			Load: MsgLoad,
			Miss: MissMessage,
		},
	}
}
