package sandbox

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/platform/fixture"
)

// MemoryRepository keeps the dataset in insertion-ordered stores. It is
// the default when no database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	patients *fixture.Store[patient.Patient, patient.ID]
	doctors  *fixture.Store[doctor.Doctor, doctor.ID]
	exams    *fixture.Store[exam.Exam, exam.ID]

	// highest id issued so far
	lastPatient atomic.Int64
	lastDoctor  atomic.Int64
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{}
	r.load(Dataset{})
	return r
}

func (r *MemoryRepository) load(ds Dataset) {
	r.patients = fixture.NewStore(func(p patient.Patient) patient.ID { return p.ID }, ds.Patients...)
	r.doctors = fixture.NewStore(func(d doctor.Doctor) doctor.ID { return d.ID }, ds.Doctors...)
	r.exams = fixture.NewStore(func(e exam.Exam) exam.ID { return e.ID }, ds.Exams...)

	var maxPatient, maxDoctor int64
	for _, p := range ds.Patients {
		maxPatient = max(maxPatient, int64(p.ID))
	}
	for _, d := range ds.Doctors {
		maxDoctor = max(maxDoctor, int64(d.ID))
	}
	r.lastPatient.Store(maxPatient)
	r.lastDoctor.Store(maxDoctor)
}

func (r *MemoryRepository) Replace(_ context.Context, ds Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ds)
	return nil
}

func (r *MemoryRepository) stores() (*fixture.Store[patient.Patient, patient.ID], *fixture.Store[doctor.Doctor, doctor.ID], *fixture.Store[exam.Exam, exam.ID]) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patients, r.doctors, r.exams
}

// sequence issues ids above the highest one loaded, like a SERIAL column.
func sequence[I ~int](last *atomic.Int64) func(exists func(I) bool) I {
	return func(exists func(I) bool) I {
		for {
			if id := I(last.Add(1)); !exists(id) {
				return id
			}
		}
	}
}

func (r *MemoryRepository) ListPatients(context.Context) ([]patient.Patient, error) {
	p, _, _ := r.stores()
	return p.List(0), nil
}

func (r *MemoryRepository) CreatePatient(_ context.Context, in patient.Patient) (patient.Patient, error) {
	p, _, _ := r.stores()
	return p.AppendNew(in, sequence[patient.ID](&r.lastPatient), func(v patient.Patient, id patient.ID) patient.Patient {
		v.ID = id
		return v
	}), nil
}

func (r *MemoryRepository) ListDoctors(context.Context) ([]doctor.Doctor, error) {
	_, d, _ := r.stores()
	return d.List(0), nil
}

func (r *MemoryRepository) CreateDoctor(_ context.Context, in doctor.Doctor) (doctor.Doctor, error) {
	_, d, _ := r.stores()
	return d.AppendNew(in, sequence[doctor.ID](&r.lastDoctor), func(v doctor.Doctor, id doctor.ID) doctor.Doctor {
		v.ID = id
		return v
	}), nil
}

func (r *MemoryRepository) ListExams(context.Context) ([]exam.Exam, error) {
	_, _, e := r.stores()
	return e.List(0), nil
}

func (r *MemoryRepository) GetExam(_ context.Context, id exam.ID) (exam.Exam, error) {
	_, _, e := r.stores()
	if found, ok := e.Find(id); ok {
		return found, nil
	}
	return exam.Exam{}, ErrNotFound
}

func (r *MemoryRepository) CreateExam(_ context.Context, in exam.Exam) (exam.Exam, error) {
	_, _, e := r.stores()
	newID := func(exists func(exam.ID) bool) exam.ID {
		id := newExamID()
		for exists(id) {
			id = newExamID()
		}
		return id
	}
	return e.AppendNew(in, newID, func(v exam.Exam, id exam.ID) exam.Exam {
		v.ID = id
		return v
	}), nil
}

func (r *MemoryRepository) UpdateExam(_ context.Context, id exam.ID, p exam.Patch) (exam.Exam, error) {
	_, _, e := r.stores()
	if updated, ok := e.Update(id, p.Apply); ok {
		return updated, nil
	}
	return exam.Exam{}, ErrNotFound
}

func (r *MemoryRepository) DeleteExam(_ context.Context, id exam.ID) error {
	_, _, e := r.stores()
	if !e.Remove(id) {
		return ErrNotFound
	}
	return nil
}
