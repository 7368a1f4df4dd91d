package exam

import "time"

// ID identifies an exam. The exams backend issues opaque strings.
type ID string

func (id ID) String() string { return string(id) }

// ParseID converts a search box value into an ID.
func ParseID(s string) (ID, error) {
	return ID(s), nil
}

// Status is the lifecycle state of an exam.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusCompleted Status = "completado"
	StatusCancelled Status = "cancelado"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Label returns the display text for s.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusCompleted:
		return "Completado"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Exam maps to the exams backend record.
type Exam struct {
	ID        ID                `db:"id" json:"id,omitempty"`
	PatientID string            `db:"paciente_id" json:"pacienteId"`
	DoctorID  string            `db:"medico_id" json:"medicoId"`
	Type      string            `db:"tipo_examen" json:"tipoExamen"`
	Date      string            `db:"fecha" json:"fecha"`
	Status    Status            `db:"estado" json:"estado"`
	Result    map[string]string `db:"resultado" json:"resultado"`
	Comments  *string           `db:"comentarios" json:"comentarios"`
}

// isoLayout matches the millisecond ISO timestamps the dashboard emits.
const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t the way new exams are dated.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// WithDefaults fills the fields a creation form may leave blank: status
// pending, dated now, an empty result and null comments.
func WithDefaults(e Exam, now time.Time) Exam {
	if e.Status == "" {
		e.Status = StatusPending
	}
	if e.Date == "" {
		e.Date = FormatTime(now)
	}
	if e.Result == nil {
		e.Result = map[string]string{}
	}
	if e.Comments != nil && *e.Comments == "" {
		e.Comments = nil
	}
	return e
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	PatientID *string           `json:"pacienteId,omitempty"`
	DoctorID  *string           `json:"medicoId,omitempty"`
	Type      *string           `json:"tipoExamen,omitempty"`
	Date      *string           `json:"fecha,omitempty"`
	Status    *Status           `json:"estado,omitempty"`
	Result    map[string]string `json:"resultado,omitempty"`
	Comments  *string           `json:"comentarios,omitempty"`
}

// Apply shallow-merges p over e.
func (p Patch) Apply(e Exam) Exam {
	if p.PatientID != nil {
		e.PatientID = *p.PatientID
	}
	if p.DoctorID != nil {
		e.DoctorID = *p.DoctorID
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Result != nil {
		e.Result = p.Result
	}
	if p.Comments != nil {
		c := *p.Comments
		e.Comments = &c
	}
	return e
}
