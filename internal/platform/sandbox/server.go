package sandbox

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
)

// Handler serves the patients, doctors, exams and summaries backends.
type Handler struct {
	repo   Repository
	logger zerolog.Logger

	// held while reseeding so readers never see a half-loaded dataset
	mu sync.RWMutex
}

func NewHandler(repo Repository, logger zerolog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Seed generates a dataset from cfg and loads it.
func (h *Handler) Seed(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ds, result := NewSeeder(cfg, nil).Generate()
	if err := h.repo.Replace(ctx, ds); err != nil {
		return nil, err
	}
	h.logger.Info().
		Int("patients", result.Patients).
		Int("doctors", result.Doctors).
		Int("exams", result.Exams).
		Int64("seed", result.Seed).
		Msg("sandbox seeded")
	return result, nil
}

// RegisterRoutes mounts the backend routes at the root of e and the seed
// endpoint under /sandbox.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/pacientes", h.listPatients)
	e.POST("/pacientes", h.createPatient)

	e.GET("/medicos", h.listDoctors)
	e.POST("/medico", h.createDoctor)

	e.GET("/api/examenes", h.listExams)
	e.POST("/api/examenes", h.createExam)
	e.GET("/api/examenes/:id", h.getExam)
	e.PUT("/api/examenes/:id", h.updateExam)
	e.DELETE("/api/examenes/:id", h.deleteExam)

	e.GET("/resumen/:kind/:id", h.getSummary)

	e.POST("/sandbox/seed", h.handleSeed)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, "not found")
	}
	h.logger.Error().Err(err).Str("path", c.Path()).Msg("sandbox storage error")
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}

func (h *Handler) listPatients(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out, err := h.repo.ListPatients(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createPatient(c echo.Context) error {
	var p patient.Patient
	if err := c.Bind(&p); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if p.Name == "" || p.NationalID == "" || p.BirthDate == "" || !p.Sex.Valid() {
		return errorJSON(c, http.StatusBadRequest, "nombre, dni, fecha_nac and sexo are required")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	created, err := h.repo.CreatePatient(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) listDoctors(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out, err := h.repo.ListDoctors(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) createDoctor(c echo.Context) error {
	var d doctor.Doctor
	if err := c.Bind(&d); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if d.FirstName == "" || d.LastName == "" || d.Specialty == "" {
		return errorJSON(c, http.StatusBadRequest, "nombre, apellido and especialidad are required")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	created, err := h.repo.CreateDoctor(c.Request().Context(), d)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) listExams(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out, err := h.repo.ListExams(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) getExam(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, err := h.repo.GetExam(c.Request().Context(), exam.ID(c.Param("id")))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) createExam(c echo.Context) error {
	var e exam.Exam
	if err := c.Bind(&e); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if e.PatientID == "" || e.Type == "" {
		return errorJSON(c, http.StatusBadRequest, "pacienteId and tipoExamen are required")
	}
	if e.Status != "" && !e.Status.Valid() {
		return errorJSON(c, http.StatusBadRequest, "unknown estado "+strconv.Quote(string(e.Status)))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	created, err := h.repo.CreateExam(c.Request().Context(), exam.WithDefaults(e, time.Now()))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateExam(c echo.Context) error {
	var p exam.Patch
	if err := c.Bind(&p); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if p.Status != nil && !p.Status.Valid() {
		return errorJSON(c, http.StatusBadRequest, "unknown estado "+strconv.Quote(string(*p.Status)))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	e, err := h.repo.UpdateExam(c.Request().Context(), exam.ID(c.Param("id")), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) deleteExam(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := h.repo.DeleteExam(c.Request().Context(), exam.ID(c.Param("id"))); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) getSummary(c echo.Context) error {
	kind, err := summary.ParseKind(c.Param("kind"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, "not found")
	}

	h.mu.RLock()
	ds, err := Snapshot(c.Request().Context(), h.repo)
	h.mu.RUnlock()
	if err != nil {
		return h.fail(c, err)
	}

	var s summary.Summary
	var ok bool
	switch kind {
	case summary.KindDoctor:
		s, ok = DoctorSummary(ds, doctor.ID(id))
	case summary.KindPatient:
		s, ok = PatientSummary(ds, patient.ID(id))
	}
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not found")
	}

	// the deployed backends answer untagged bodies
	switch kind {
	case summary.KindDoctor:
		return c.JSON(http.StatusOK, s.Doctor)
	default:
		return c.JSON(http.StatusOK, s.Patient)
	}
}

func (h *Handler) handleSeed(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if err := c.Bind(&cfg); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if cfg.Patients < 0 || cfg.Doctors < 0 || cfg.Exams < 0 {
		return errorJSON(c, http.StatusBadRequest, "counts must not be negative")
	}

	result, err := h.Seed(c.Request().Context(), cfg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
