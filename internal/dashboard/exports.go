package dashboard

import (
	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/platform/export"
	"github.com/clinica/dashboard/internal/platform/locale"
)

var patientsSheet = export.Sheet[patient.Patient]{
	Name: "Pacientes",
	Columns: []export.Column[patient.Patient]{
		{Header: "ID", Width: 8, Value: func(p patient.Patient) any { return int(p.ID) }},
		{Header: "Nombre", Width: 30, Value: func(p patient.Patient) any { return p.Name }},
		{Header: "DNI", Width: 14, Value: func(p patient.Patient) any { return p.NationalID }},
		{Header: "Fecha de nacimiento", Width: 20, Value: func(p patient.Patient) any { return p.BirthDateLabel() }},
		{Header: "Sexo", Width: 12, Value: func(p patient.Patient) any { return p.Sex.Label() }},
	},
}

var doctorsSheet = export.Sheet[doctor.Doctor]{
	Name: "Medicos",
	Columns: []export.Column[doctor.Doctor]{
		{Header: "ID", Width: 8, Value: func(d doctor.Doctor) any { return int(d.ID) }},
		{Header: "Nombre", Width: 20, Value: func(d doctor.Doctor) any { return d.FirstName }},
		{Header: "Apellido", Width: 20, Value: func(d doctor.Doctor) any { return d.LastName }},
		{Header: "Especialidad", Width: 24, Value: func(d doctor.Doctor) any { return d.Specialty }},
	},
}

var examsSheet = export.Sheet[exam.Exam]{
	Name: "Examenes",
	Columns: []export.Column[exam.Exam]{
		{Header: "ID", Width: 28, Value: func(e exam.Exam) any { return string(e.ID) }},
		{Header: "Paciente", Width: 12, Value: func(e exam.Exam) any { return e.PatientID }},
		{Header: "Médico", Width: 12, Value: func(e exam.Exam) any { return e.DoctorID }},
		{Header: "Tipo", Width: 20, Value: func(e exam.Exam) any { return e.Type }},
		{Header: "Fecha", Width: 22, Value: func(e exam.Exam) any { return locale.LongDate(e.Date) }},
		{Header: "Estado", Width: 14, Value: func(e exam.Exam) any { return e.Status.Label() }},
		{Header: "Comentarios", Width: 40, Value: func(e exam.Exam) any {
			if e.Comments == nil {
				return nil
			}
			return *e.Comments
		}},
	},
}

// ExportPatients renders the retained patients.
func (d *Dashboard) ExportPatients() ([]byte, error) {
	return export.Workbook(patientsSheet, d.Patients.Filtered())
}

// ExportDoctors renders the doctors matching the current filter.
func (d *Dashboard) ExportDoctors() ([]byte, error) {
	return export.Workbook(doctorsSheet, d.Doctors.Filtered())
}

// ExportExams renders the retained exams.
func (d *Dashboard) ExportExams() ([]byte, error) {
	return export.Workbook(examsSheet, d.Exams.Filtered())
}
