package sandbox

import (
	"sort"
	"strings"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
)

func sortExamsNewestFirst(exams []exam.Exam) {
	sort.SliceStable(exams, func(i, j int) bool { return exams[i].Date > exams[j].Date })
}

func visitDescription(e exam.Exam) string {
	desc := "Examen de " + strings.ToLower(e.Type) + " (" + strings.ToLower(e.Status.Label()) + ")"
	if e.Comments != nil && *e.Comments != "" {
		desc += ". " + *e.Comments
	}
	return desc
}

func doctorTitle(d doctor.Doctor) string {
	return "Dr. " + d.FullName()
}

// DoctorSummary derives a doctor's visit history from the exams they
// ordered, newest first.
func DoctorSummary(ds Dataset, id doctor.ID) (summary.Summary, bool) {
	var found *doctor.Doctor
	for i := range ds.Doctors {
		if ds.Doctors[i].ID == id {
			found = &ds.Doctors[i]
			break
		}
	}
	if found == nil {
		return summary.Summary{}, false
	}

	names := make(map[string]string, len(ds.Patients))
	for _, p := range ds.Patients {
		names[p.ID.String()] = p.Name
	}

	exams := append([]exam.Exam(nil), ds.Exams...)
	sortExamsNewestFirst(exams)

	visits := []summary.DoctorVisit{}
	for _, e := range exams {
		if e.DoctorID != id.String() {
			continue
		}
		pid, err := patient.ParseID(e.PatientID)
		if err != nil {
			continue
		}
		visits = append(visits, summary.DoctorVisit{
			Description: visitDescription(e),
			Date:        e.Date,
			PatientID:   int(pid),
			PatientName: names[e.PatientID],
		})
	}

	return summary.Summary{
		Kind: summary.KindDoctor,
		Doctor: &summary.DoctorSummary{
			Doctor: &summary.DoctorInfo{
				ID:        int(found.ID),
				Name:      found.FirstName,
				LastName:  found.LastName,
				Specialty: found.Specialty,
			},
			Visits: visits,
		},
	}, true
}

// PatientSummary derives a patient's visit history from their exams,
// newest first.
func PatientSummary(ds Dataset, id patient.ID) (summary.Summary, bool) {
	var found *patient.Patient
	for i := range ds.Patients {
		if ds.Patients[i].ID == id {
			found = &ds.Patients[i]
			break
		}
	}
	if found == nil {
		return summary.Summary{}, false
	}

	titles := make(map[string]string, len(ds.Doctors))
	for _, d := range ds.Doctors {
		titles[d.ID.String()] = doctorTitle(d)
	}

	exams := append([]exam.Exam(nil), ds.Exams...)
	sortExamsNewestFirst(exams)

	visits := []summary.PatientVisit{}
	for _, e := range exams {
		if e.PatientID != id.String() {
			continue
		}
		visits = append(visits, summary.PatientVisit{
			Description: visitDescription(e),
			Date:        e.Date,
			DoctorName:  titles[e.DoctorID],
			PatientID:   int(id),
		})
	}

	return summary.Summary{
		Kind: summary.KindPatient,
		Patient: &summary.PatientSummary{
			Patient: &summary.PatientInfo{
				ID:         int(found.ID),
				Name:       found.Name,
				NationalID: found.NationalID,
				BirthDate:  found.BirthDate,
				Sex:        found.Sex.Label(),
			},
			Visits: visits,
		},
	}, true
}
