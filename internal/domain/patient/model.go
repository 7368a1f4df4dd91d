package patient

import (
	"strconv"

	"github.com/clinica/dashboard/internal/platform/locale"
)

// ID identifies a patient. The patients backend uses integers.
type ID int

func (id ID) String() string { return strconv.Itoa(int(id)) }

// ParseID converts a search box value into an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}

// Sex is the administrative sex recorded at registration.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// Valid reports whether s is one of the accepted codes.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Label returns the display text for s.
func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "Masculino"
	case SexFemale:
		return "Femenino"
	default:
		return string(s)
	}
}

// Patient maps to the patients backend record.
type Patient struct {
	ID         ID     `db:"id" json:"id,omitempty"`
	Name       string `db:"nombre" json:"nombre"`
	NationalID string `db:"dni" json:"dni"`
	BirthDate  string `db:"fecha_nac" json:"fecha_nac"`
	Sex        Sex    `db:"sexo" json:"sexo"`
}

// BirthDateLabel renders the birth date as dd/mm/yyyy.
func (p Patient) BirthDateLabel() string {
	return locale.ShortDate(p.BirthDate)
}
