package doctor

import (
	"strconv"
	"strings"
)

// ID identifies a doctor. The doctors backend uses integers.
type ID int

func (id ID) String() string { return strconv.Itoa(int(id)) }

// Doctor maps to the doctors backend record.
type Doctor struct {
	ID        ID     `db:"id" json:"id,omitempty"`
	FirstName string `db:"nombre" json:"nombre"`
	LastName  string `db:"apellido" json:"apellido"`
	Specialty string `db:"especialidad" json:"especialidad"`
}

// FullName joins first and last name.
func (d Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Matches reports whether query is a case-insensitive substring of the
// first name, last name or specialty.
func Matches(d Doctor, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.FirstName), q) ||
		strings.Contains(strings.ToLower(d.LastName), q) ||
		strings.Contains(strings.ToLower(d.Specialty), q)
}
