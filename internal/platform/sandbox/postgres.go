package sandbox

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/platform/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema of the emulated backends.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PostgresRepository persists the dataset in Postgres so edits survive a
// sandbox restart.
type PostgresRepository struct {
	db db.Beginner
}

func NewPostgresRepository(conn db.Beginner) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Migrate creates the tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) (int, error) {
	return db.NewMigrator(r.db, Migrations()).Up(ctx)
}

// MigrationStatus lists the sandbox migrations and which have run.
func (r *PostgresRepository) MigrationStatus(ctx context.Context) ([]db.MigrationStatus, error) {
	return db.NewMigrator(r.db, Migrations()).Status(ctx)
}

// Empty reports whether no patients are stored yet.
func (r *PostgresRepository) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pacientes`).Scan(&n); err != nil {
		return false, fmt.Errorf("count patients: %w", err)
	}
	return n == 0, nil
}

const (
	patientCols = `id, nombre, dni, fecha_nac, sexo`
	doctorCols  = `id, nombre, apellido, especialidad`
	examCols    = `id, paciente_id, medico_id, tipo_examen, fecha, estado, resultado, comentarios`
)

func (r *PostgresRepository) Replace(ctx context.Context, ds Dataset) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE examenes, medicos, pacientes RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range ds.Patients {
		batch.Queue(`INSERT INTO pacientes (`+patientCols+`) VALUES ($1,$2,$3,$4,$5)`,
			p.ID, p.Name, p.NationalID, p.BirthDate, p.Sex)
	}
	for _, d := range ds.Doctors {
		batch.Queue(`INSERT INTO medicos (`+doctorCols+`) VALUES ($1,$2,$3,$4)`,
			d.ID, d.FirstName, d.LastName, d.Specialty)
	}
	for _, e := range ds.Exams {
		batch.Queue(`INSERT INTO examenes (`+examCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			e.ID, e.PatientID, e.DoctorID, e.Type, e.Date, e.Status, resultOrEmpty(e.Result), e.Comments)
	}
	batch.Queue(`SELECT setval(pg_get_serial_sequence('pacientes', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM pacientes`)
	batch.Queue(`SELECT setval(pg_get_serial_sequence('medicos', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM medicos`)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return tx.Commit(ctx)
}

func resultOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func (r *PostgresRepository) ListPatients(ctx context.Context) ([]patient.Patient, error) {
	rows, err := r.db.Query(ctx, `SELECT `+patientCols+` FROM pacientes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[patient.Patient])
}

func (r *PostgresRepository) CreatePatient(ctx context.Context, p patient.Patient) (patient.Patient, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO pacientes (nombre, dni, fecha_nac, sexo) VALUES ($1,$2,$3,$4) RETURNING id`,
		p.Name, p.NationalID, p.BirthDate, p.Sex,
	).Scan(&p.ID)
	if err != nil {
		return patient.Patient{}, fmt.Errorf("insert patient: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListDoctors(ctx context.Context) ([]doctor.Doctor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+doctorCols+` FROM medicos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[doctor.Doctor])
}

func (r *PostgresRepository) CreateDoctor(ctx context.Context, d doctor.Doctor) (doctor.Doctor, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO medicos (nombre, apellido, especialidad) VALUES ($1,$2,$3) RETURNING id`,
		d.FirstName, d.LastName, d.Specialty,
	).Scan(&d.ID)
	if err != nil {
		return doctor.Doctor{}, fmt.Errorf("insert doctor: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListExams(ctx context.Context) ([]exam.Exam, error) {
	rows, err := r.db.Query(ctx, `SELECT `+examCols+` FROM examenes ORDER BY orden`)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[exam.Exam])
}

func (r *PostgresRepository) GetExam(ctx context.Context, id exam.ID) (exam.Exam, error) {
	return r.getExam(ctx, r.db, id)
}

func (r *PostgresRepository) getExam(ctx context.Context, q db.Querier, id exam.ID) (exam.Exam, error) {
	rows, err := q.Query(ctx, `SELECT `+examCols+` FROM examenes WHERE id = $1`, id)
	if err != nil {
		return exam.Exam{}, fmt.Errorf("query exam: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[exam.Exam])
	if db.IsNoRows(err) {
		return exam.Exam{}, ErrNotFound
	}
	return e, err
}

func (r *PostgresRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	e.ID = newExamID()
	e.Result = resultOrEmpty(e.Result)
	_, err := r.db.Exec(ctx,
		`INSERT INTO examenes (`+examCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.PatientID, e.DoctorID, e.Type, e.Date, e.Status, e.Result, e.Comments,
	)
	if err != nil {
		return exam.Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	return e, nil
}

// UpdateExam merges p over the stored exam inside one transaction.
func (r *PostgresRepository) UpdateExam(ctx context.Context, id exam.ID, p exam.Patch) (exam.Exam, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return exam.Exam{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := r.getExam(ctx, tx, id)
	if err != nil {
		return exam.Exam{}, err
	}
	e := p.Apply(current)
	_, err = tx.Exec(ctx, `
		UPDATE examenes SET
			paciente_id=$2, medico_id=$3, tipo_examen=$4, fecha=$5, estado=$6, resultado=$7, comentarios=$8
		WHERE id = $1`,
		e.ID, e.PatientID, e.DoctorID, e.Type, e.Date, e.Status, resultOrEmpty(e.Result), e.Comments,
	)
	if err != nil {
		return exam.Exam{}, fmt.Errorf("update exam: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return exam.Exam{}, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteExam(ctx context.Context, id exam.ID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM examenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
