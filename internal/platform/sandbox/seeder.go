// Package sandbox emulates the four clinic backends on a single port,
// serving reproducible synthetic data so the dashboard can be exercised
// end to end without the deployed services.
package sandbox

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	Patients int   `json:"patients"`
	Doctors  int   `json:"doctors"`
	Exams    int   `json:"exams"`
	Seed     int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{Patients: 25, Doctors: 8, Exams: 23, Seed: 42}
}

// Dataset is one generated world: every exam references a generated
// patient and doctor.
type Dataset struct {
	Patients []patient.Patient `json:"patients"`
	Doctors  []doctor.Doctor   `json:"doctors"`
	Exams    []exam.Exam       `json:"exams"`
}

// SeedResult summarizes a seed operation.
type SeedResult struct {
	Patients int           `json:"patients"`
	Doctors  int           `json:"doctors"`
	Exams    int           `json:"exams"`
	Seed     int64         `json:"seed"`
	Duration time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Pools
// ---------------------------------------------------------------------------

var (
	firstNamesMale = []string{
		"José", "Carlos", "Juan", "Luis", "Miguel", "Jorge", "Pedro",
		"Roberto", "Fernando", "Ricardo", "Andrés", "Diego", "Javier",
		"Raúl", "Sergio", "Víctor", "Héctor", "Manuel",
	}
	firstNamesFemale = []string{
		"María", "Ana", "Laura", "Carmen", "Lucía", "Sofía", "Elena",
		"Isabel", "Patricia", "Rosa", "Marta", "Gabriela", "Valeria",
		"Daniela", "Claudia", "Teresa", "Paula", "Julia",
	}
	lastNames = []string{
		"García", "Rodríguez", "González", "Fernández", "López", "Martínez",
		"Sánchez", "Pérez", "Gómez", "Martín", "Jiménez", "Ruiz",
		"Hernández", "Díaz", "Moreno", "Álvarez", "Romero", "Gutierrez",
		"Torres", "Ramírez", "Flores", "Castro", "Vargas", "Rojas",
	}
	specialties = []string{
		"Cardiología", "Pediatría", "Dermatología", "Neurología",
		"Traumatología", "Ginecología", "Oftalmología", "Medicina General",
		"Endocrinología", "Neumología",
	}

	examDefs = []examDef{
		{"Sangre", []resultDef{{"hemoglobina", "g/dL", 11, 17}, {"glucosa", "mg/dL", 70, 180}, {"colesterol", "mg/dL", 140, 280}}},
		{"Orina", []resultDef{{"ph", "", 5, 8}, {"densidad", "", 1005, 1030}}},
		{"Perfil lipídico", []resultDef{{"hdl", "mg/dL", 35, 80}, {"ldl", "mg/dL", 70, 190}, {"trigliceridos", "mg/dL", 50, 300}}},
		{"Tiroides", []resultDef{{"tsh", "mUI/L", 0.4, 6}, {"t4", "ng/dL", 0.8, 1.9}}},
		{"Radiografía de tórax", nil},
		{"Electrocardiograma", []resultDef{{"frecuencia", "lpm", 55, 110}}},
	}

	comments = []string{
		"Paciente en ayunas.",
		"Repetir en 3 meses.",
		"Resultados dentro de parámetros normales.",
		"Derivar a especialista.",
	}
)

type resultDef struct {
	Key  string
	Unit string
	Low  float64
	High float64
}

type examDef struct {
	Type    string
	Results []resultDef
}

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// DataGenerator produces deterministic synthetic records.
type DataGenerator struct {
	rng *rand.Rand
	now time.Time
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed
// is 0 a time-based seed is chosen. Dates are spread over the year before
// now.
func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{rng: rand.New(rand.NewSource(seed)), now: now.UTC()}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) randomBirthDate() string {
	y := 1940 + g.rng.Intn(70)
	m := 1 + g.rng.Intn(12)
	d := 1 + g.rng.Intn(28)
	return fmt.Sprintf("%04d-%02d-%02dT00:00:00Z", y, m, d)
}

// ObjectID renders a 24-hex-digit identifier like the exams backend issues.
func (g *DataGenerator) ObjectID() exam.ID {
	return exam.ID(fmt.Sprintf("%08x%016x", g.rng.Uint32(), g.rng.Uint64()))
}

func (g *DataGenerator) GeneratePatient(id patient.ID) patient.Patient {
	sex := patient.SexFemale
	first := g.pick(firstNamesFemale)
	if g.rng.Intn(2) == 0 {
		sex = patient.SexMale
		first = g.pick(firstNamesMale)
	}
	return patient.Patient{
		ID:         id,
		Name:       first + " " + g.pick(lastNames),
		NationalID: strconv.Itoa(10000000 + g.rng.Intn(40000000)),
		BirthDate:  g.randomBirthDate(),
		Sex:        sex,
	}
}

func (g *DataGenerator) GenerateDoctor(id doctor.ID) doctor.Doctor {
	first := g.pick(firstNamesMale)
	if g.rng.Intn(2) == 0 {
		first = g.pick(firstNamesFemale)
	}
	return doctor.Doctor{
		ID:        id,
		FirstName: first,
		LastName:  g.pick(lastNames),
		Specialty: g.pick(specialties),
	}
}

// GenerateExam produces an exam dated within the last year. Completed
// exams carry results; the others have an empty result.
func (g *DataGenerator) GenerateExam(p patient.ID, d doctor.ID) exam.Exam {
	def := examDefs[g.rng.Intn(len(examDefs))]
	status := exam.Statuses[g.rng.Intn(len(exam.Statuses))]
	when := g.now.Add(-time.Duration(g.rng.Intn(365*24)) * time.Hour)

	e := exam.Exam{
		ID:        g.ObjectID(),
		PatientID: p.String(),
		DoctorID:  d.String(),
		Type:      def.Type,
		Date:      exam.FormatTime(when),
		Status:    status,
		Result:    map[string]string{},
	}
	if status == exam.StatusCompleted {
		for _, r := range def.Results {
			v := r.Low + g.rng.Float64()*(r.High-r.Low)
			e.Result[r.Key] = strconv.FormatFloat(v, 'f', 1, 64)
		}
	}
	if g.rng.Intn(3) == 0 {
		c := g.pick(comments)
		e.Comments = &c
	}
	return e
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// Seeder turns a SeedConfig into a Dataset.
type Seeder struct {
	config SeedConfig
	now    func() time.Time
}

func NewSeeder(config SeedConfig, now func() time.Time) *Seeder {
	if now == nil {
		now = time.Now
	}
	return &Seeder{config: config, now: now}
}

// Generate builds the dataset. Patient and doctor ids are sequential from
// 1; exams are spread round-robin over doctors and randomly over patients,
// newest first.
func (s *Seeder) Generate() (Dataset, *SeedResult) {
	start := time.Now()
	g := NewDataGenerator(s.config.Seed, s.now())

	ds := Dataset{
		Patients: make([]patient.Patient, 0, s.config.Patients),
		Doctors:  make([]doctor.Doctor, 0, s.config.Doctors),
		Exams:    make([]exam.Exam, 0, s.config.Exams),
	}
	for i := 1; i <= s.config.Patients; i++ {
		ds.Patients = append(ds.Patients, g.GeneratePatient(patient.ID(i)))
	}
	for i := 1; i <= s.config.Doctors; i++ {
		ds.Doctors = append(ds.Doctors, g.GenerateDoctor(doctor.ID(i)))
	}
	if len(ds.Patients) > 0 && len(ds.Doctors) > 0 {
		for i := 0; i < s.config.Exams; i++ {
			p := ds.Patients[g.rng.Intn(len(ds.Patients))].ID
			d := ds.Doctors[i%len(ds.Doctors)].ID
			ds.Exams = append(ds.Exams, g.GenerateExam(p, d))
		}
		sortExamsNewestFirst(ds.Exams)
	}

	return ds, &SeedResult{
		Patients: len(ds.Patients),
		Doctors:  len(ds.Doctors),
		Exams:    len(ds.Exams),
		Seed:     s.config.Seed,
		Duration: time.Since(start),
	}
}
