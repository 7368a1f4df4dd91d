package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
)

var ErrNotFound = errors.New("sandbox: record not found")

// Repository stores the emulated backends' data.
type Repository interface {
	// Replace discards every record and loads ds.
	Replace(ctx context.Context, ds Dataset) error

	ListPatients(ctx context.Context) ([]patient.Patient, error)
	CreatePatient(ctx context.Context, p patient.Patient) (patient.Patient, error)

	ListDoctors(ctx context.Context) ([]doctor.Doctor, error)
	CreateDoctor(ctx context.Context, d doctor.Doctor) (doctor.Doctor, error)

	ListExams(ctx context.Context) ([]exam.Exam, error)
	GetExam(ctx context.Context, id exam.ID) (exam.Exam, error)
	CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error)
	UpdateExam(ctx context.Context, id exam.ID, p exam.Patch) (exam.Exam, error)
	DeleteExam(ctx context.Context, id exam.ID) error
}

// Snapshot reads the whole dataset back out of repo.
func Snapshot(ctx context.Context, repo Repository) (Dataset, error) {
	var ds Dataset
	var err error
	if ds.Patients, err = repo.ListPatients(ctx); err != nil {
		return Dataset{}, fmt.Errorf("list patients: %w", err)
	}
	if ds.Doctors, err = repo.ListDoctors(ctx); err != nil {
		return Dataset{}, fmt.Errorf("list doctors: %w", err)
	}
	if ds.Exams, err = repo.ListExams(ctx); err != nil {
		return Dataset{}, fmt.Errorf("list exams: %w", err)
	}
	return ds, nil
}

// newExamID issues ids for exams created through the API.
func newExamID() exam.ID {
	return exam.ID(strings.ReplaceAll(uuid.NewString(), "-", "")[:24])
}
