package summary

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/clinica/dashboard/internal/platform/locale"
)

// Kind selects which side of the visit history a summary describes.
type Kind string

const (
	KindDoctor  Kind = "medico"
	KindPatient Kind = "paciente"
)

// ParseKind validates a kind taken from a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDoctor, KindPatient:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown summary kind %q", s)
}

// Key addresses one summary.
type Key struct {
	Kind Kind
	ID   int
}

func (k Key) String() string { return string(k.Kind) + "/" + strconv.Itoa(k.ID) }

type DoctorInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"nombre"`
	LastName  string `json:"apellido,omitempty"`
	Specialty string `json:"especialidad"`
}

type PatientInfo struct {
	ID         int    `json:"id"`
	Name       string `json:"nombre"`
	NationalID string `json:"dni"`
	BirthDate  string `json:"fecha_nac"`
	Sex        string `json:"sexo"`
}

// DoctorVisit is a visit as listed in a doctor's history.
type DoctorVisit struct {
	Description string `json:"descripcion"`
	Date        string `json:"fecha"`
	PatientID   int    `json:"paciente_id"`
	PatientName string `json:"paciente_nombre,omitempty"`
	DoctorName  string `json:"nombre_medico,omitempty"`
}

// PatientVisit is a visit as listed in a patient's history.
type PatientVisit struct {
	Description string `json:"descripcion"`
	Date        string `json:"fecha"`
	DoctorName  string `json:"nombre_medico"`
	PatientID   int    `json:"paciente_id"`
}

type DoctorSummary struct {
	Doctor *DoctorInfo   `json:"medico,omitempty"`
	Visits []DoctorVisit `json:"consultas"`
}

type PatientSummary struct {
	Patient  *PatientInfo      `json:"paciente,omitempty"`
	Visits   []PatientVisit    `json:"consultas"`
	Contacts []json.RawMessage `json:"contactos,omitempty"`
}

// Summary is a tagged variant: exactly one of Doctor and Patient is set,
// matching Kind.
type Summary struct {
	Kind    Kind
	Doctor  *DoctorSummary
	Patient *PatientSummary
}

// Key returns the kind and subject id. A summary without subject reports
// id zero.
func (s Summary) Key() Key {
	k := Key{Kind: s.Kind}
	switch s.Kind {
	case KindDoctor:
		if s.Doctor != nil && s.Doctor.Doctor != nil {
			k.ID = s.Doctor.Doctor.ID
		}
	case KindPatient:
		if s.Patient != nil && s.Patient.Patient != nil {
			k.ID = s.Patient.Patient.ID
		}
	}
	return k
}

// Visits returns the embedded history tagged with the summary kind.
func (s Summary) Visits() []Visit {
	var out []Visit
	switch s.Kind {
	case KindDoctor:
		if s.Doctor == nil {
			return []Visit{}
		}
		out = make([]Visit, len(s.Doctor.Visits))
		for i := range s.Doctor.Visits {
			v := s.Doctor.Visits[i]
			out[i] = Visit{Kind: KindDoctor, Doctor: &v}
		}
	case KindPatient:
		if s.Patient == nil {
			return []Visit{}
		}
		out = make([]Visit, len(s.Patient.Visits))
		for i := range s.Patient.Visits {
			v := s.Patient.Visits[i]
			out[i] = Visit{Kind: KindPatient, Patient: &v}
		}
	default:
		return []Visit{}
	}
	return out
}

func (s Summary) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindDoctor:
		return json.Marshal(struct {
			Kind Kind `json:"tipo"`
			*DoctorSummary
		}{s.Kind, s.Doctor})
	case KindPatient:
		return json.Marshal(struct {
			Kind Kind `json:"tipo"`
			*PatientSummary
		}{s.Kind, s.Patient})
	}
	return nil, fmt.Errorf("summary: unknown kind %q", s.Kind)
}

// Decode parses a backend body for the requested kind. The backend does
// not tag its payloads, so the kind comes from the request.
func Decode(kind Kind, body []byte) (Summary, error) {
	switch kind {
	case KindDoctor:
		var d DoctorSummary
		if err := json.Unmarshal(body, &d); err != nil {
			return Summary{}, fmt.Errorf("decode doctor summary: %w", err)
		}
		return Summary{Kind: kind, Doctor: &d}, nil
	case KindPatient:
		var p PatientSummary
		if err := json.Unmarshal(body, &p); err != nil {
			return Summary{}, fmt.Errorf("decode patient summary: %w", err)
		}
		return Summary{Kind: kind, Patient: &p}, nil
	}
	return Summary{}, fmt.Errorf("summary: unknown kind %q", kind)
}

// Visit is one entry of a history, tagged with the kind of summary it
// came from.
type Visit struct {
	Kind    Kind
	Doctor  *DoctorVisit
	Patient *PatientVisit
}

func (v Visit) Date() string {
	switch {
	case v.Doctor != nil:
		return v.Doctor.Date
	case v.Patient != nil:
		return v.Patient.Date
	}
	return ""
}

func (v Visit) Description() string {
	switch {
	case v.Doctor != nil:
		return v.Doctor.Description
	case v.Patient != nil:
		return v.Patient.Description
	}
	return ""
}

// Label names the other party of the visit: the patient in a doctor's
// history, the doctor in a patient's.
func (v Visit) Label() string {
	switch {
	case v.Doctor != nil:
		if v.Doctor.PatientName != "" {
			return fmt.Sprintf("%s (ID: %d)", v.Doctor.PatientName, v.Doctor.PatientID)
		}
		return fmt.Sprintf("ID: %d", v.Doctor.PatientID)
	case v.Patient != nil:
		return v.Patient.DoctorName
	}
	return ""
}

// Row is the flattened form the history table renders.
type Row struct {
	Date        string `json:"fecha"`
	DateLabel   string `json:"fecha_larga"`
	Person      string `json:"persona"`
	Description string `json:"descripcion"`
}

func (v Visit) Row() Row {
	return Row{
		Date:        v.Date(),
		DateLabel:   locale.LongDate(v.Date()),
		Person:      v.Label(),
		Description: v.Description(),
	}
}

func (v Visit) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Row())
}
