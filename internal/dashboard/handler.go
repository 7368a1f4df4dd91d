package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
	"github.com/clinica/dashboard/internal/platform/export"
	"github.com/clinica/dashboard/internal/platform/listing"
	"github.com/clinica/dashboard/pkg/pagination"
)

// ExportPaths are the routes that stream workbooks, relative to the API
// group.
var ExportPaths = []string{"/patients/export", "/doctors/export", "/exams/export"}

type Handler struct {
	dash   *Dashboard
	logger zerolog.Logger
}

func NewHandler(dash *Dashboard, logger zerolog.Logger) *Handler {
	return &Handler{dash: dash, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.POST("/patients/search", h.SearchPatients)
	api.DELETE("/patients/search", h.ClearPatientSearch)
	api.POST("/patients/reload", h.ReloadPatients)
	api.GET("/patients/export", h.ExportPatients)

	api.GET("/doctors", h.ListDoctors)
	api.POST("/doctors", h.CreateDoctor)
	api.PUT("/doctors/query", h.QueueDoctorQuery)
	api.GET("/doctors/export", h.ExportDoctors)

	api.GET("/exams", h.ListExams)
	api.POST("/exams", h.CreateExam)
	api.POST("/exams/search", h.SearchExams)
	api.DELETE("/exams/search", h.ClearExamSearch)
	api.GET("/exams/export", h.ExportExams)
	api.GET("/exams/:id", h.EditExam)
	api.PUT("/exams/:id", h.UpdateExam)
	api.DELETE("/exams/:id", h.DeleteExam)

	api.GET("/summaries", h.GetSummary)
	api.POST("/summaries/search", h.SearchSummary)
	api.PUT("/summaries/kind", h.SetSummaryKind)
	api.GET("/summaries/:kind", h.Orchestrate)
}

// Health reports liveness and whether each view is serving fixtures.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "healthy",
		"offline": map[string]bool{
			"patients": h.dash.Patients.View().Offline,
			"doctors":  h.dash.Doctors.View().Offline,
			"exams":    h.dash.Exams.View().Offline,
		},
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// Result is the answer to a write: the record when one was produced and
// the view after reconciliation.
type Result[R any] struct {
	Record    *R              `json:"record,omitempty"`
	Confirmed *bool           `json:"confirmed,omitempty"`
	View      listing.View[R] `json:"view"`
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.dash.Patients.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	movePage(c, h.dash.Patients)
	return c.JSON(http.StatusOK, h.dash.Patients.View())
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p patient.Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Patients.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	created, err := h.dash.Patients.Create(ctx, p)
	return writeResult(c, h.dash.Patients, created, err)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Patients.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	h.logSearch(h.dash.Patients.Search(ctx, req.Query), "patients")
	return c.JSON(http.StatusOK, h.dash.Patients.View())
}

func (h *Handler) ClearPatientSearch(c echo.Context) error {
	h.logSearch(h.dash.Patients.ClearSearch(c.Request().Context()), "patients")
	return c.JSON(http.StatusOK, h.dash.Patients.View())
}

func (h *Handler) ReloadPatients(c echo.Context) error {
	h.logSearch(h.dash.Patients.Load(c.Request().Context()), "patients")
	return c.JSON(http.StatusOK, h.dash.Patients.View())
}

func (h *Handler) ExportPatients(c echo.Context) error {
	if err := h.dash.Patients.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return writeWorkbook(c, "pacientes", h.dash.ExportPatients)
}

// -- Doctors --

type doctorsState struct {
	listing.View[doctor.Doctor]
	// Pending is true while a queued query waits for its window.
	Pending bool `json:"pending"`
}

func (h *Handler) doctorsView() doctorsState {
	return doctorsState{View: h.dash.Doctors.View(), Pending: h.dash.DoctorQueryPending()}
}

func (h *Handler) ListDoctors(c echo.Context) error {
	if err := h.dash.Doctors.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	movePage(c, h.dash.Doctors)
	return c.JSON(http.StatusOK, h.doctorsView())
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d doctor.Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Doctors.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	created, err := h.dash.Doctors.Create(ctx, d)
	return writeResult(c, h.dash.Doctors, created, err)
}

// QueueDoctorQuery accepts the search box value. The filter is applied
// after the debounce window, so the returned state may still show the
// previous query with pending set.
func (h *Handler) QueueDoctorQuery(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.dash.Doctors.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	h.dash.QueueDoctorQuery(req.Query)
	return c.JSON(http.StatusAccepted, h.doctorsView())
}

func (h *Handler) ExportDoctors(c echo.Context) error {
	if err := h.dash.Doctors.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	h.dash.FlushDoctorQuery()
	return writeWorkbook(c, "medicos", h.dash.ExportDoctors)
}

// -- Exams --

func (h *Handler) ListExams(c echo.Context) error {
	if err := h.dash.Exams.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	movePage(c, h.dash.Exams)
	return c.JSON(http.StatusOK, h.dash.Exams.View())
}

func (h *Handler) CreateExam(c echo.Context) error {
	var e exam.Exam
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Exams.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	created, err := h.dash.Exams.Create(ctx, e)
	return writeResult(c, h.dash.Exams, created, err)
}

func (h *Handler) SearchExams(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Exams.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	h.logSearch(h.dash.Exams.Search(ctx, req.Query), "exams")
	return c.JSON(http.StatusOK, h.dash.Exams.View())
}

func (h *Handler) ClearExamSearch(c echo.Context) error {
	h.logSearch(h.dash.Exams.ClearSearch(c.Request().Context()), "exams")
	return c.JSON(http.StatusOK, h.dash.Exams.View())
}

type editState struct {
	Exam  *exam.Exam `json:"examen,omitempty"`
	Error string     `json:"error,omitempty"`
}

// EditExam prepares the edit form with a freshly fetched record.
func (h *Handler) EditExam(c echo.Context) error {
	id := exam.ID(c.Param("id"))
	e, ok := h.dash.EditExam(c.Request().Context(), id)
	if !ok {
		return c.JSON(http.StatusOK, editState{Error: exam.MsgNotLoaded})
	}
	return c.JSON(http.StatusOK, editState{Exam: &e})
}

func (h *Handler) UpdateExam(c echo.Context) error {
	id := exam.ID(c.Param("id"))
	var p exam.Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.dash.Exams.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	updated, err := h.dash.Exams.Update(ctx, id, p)
	if err != nil {
		if !listing.IsValidation(err) && !errors.Is(err, listing.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, Result[exam.Exam]{View: h.dash.Exams.View()})
	}
	return c.JSON(http.StatusOK, Result[exam.Exam]{Record: &updated, View: h.dash.Exams.View()})
}

func (h *Handler) DeleteExam(c echo.Context) error {
	id := exam.ID(c.Param("id"))
	ctx := c.Request().Context()
	if err := h.dash.Exams.EnsureLoaded(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	confirmed, err := h.dash.Exams.Delete(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, Result[exam.Exam]{Confirmed: &confirmed, View: h.dash.Exams.View()})
}

func (h *Handler) ExportExams(c echo.Context) error {
	if err := h.dash.Exams.EnsureLoaded(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return writeWorkbook(c, "examenes", h.dash.ExportExams)
}

// -- Summaries --

// lookupID accepts an id sent either as a JSON number or a string.
type lookupID string

func (l *lookupID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = lookupID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or a string: %w", err)
	}
	*l = lookupID(n.String())
	return nil
}

type summaryRequest struct {
	Kind string   `json:"kind"`
	ID   lookupID `json:"id"`
}

func (h *Handler) GetSummary(c echo.Context) error {
	movePage(c, h.dash.Summaries.Visits())
	return c.JSON(http.StatusOK, h.dash.Summaries.State())
}

// SearchSummary runs a lookup. A kind in the body switches the view first.
func (h *Handler) SearchSummary(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Kind != "" {
		kind, err := summary.ParseKind(req.Kind)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if kind != h.dash.Summaries.Kind() {
			h.dash.Summaries.SetKind(kind)
		}
	}
	h.logSearch(h.dash.Summaries.Search(c.Request().Context(), string(req.ID)), "summaries")
	return c.JSON(http.StatusOK, h.dash.Summaries.State())
}

func (h *Handler) SetSummaryKind(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	kind, err := summary.ParseKind(req.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.dash.Summaries.SetKind(kind)
	return c.JSON(http.StatusOK, h.dash.Summaries.State())
}

// Orchestrate returns the summaries of every id in the ids query
// parameter, in request order, skipping the ones that failed.
func (h *Handler) Orchestrate(c echo.Context) error {
	kind, err := summary.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ids, err := parseIDs(c.QueryParam("ids"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.dash.Orchestrate(c.Request().Context(), kind, ids))
}

// parseIDs splits a comma separated list of integer ids.
func parseIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids is required")
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("ids is required")
	}
	return ids, nil
}

// -- helpers --

// movePage applies the page and nav query parameters. Pages outside the
// range leave the view where it was.
func movePage(c echo.Context, p pager) {
	if pg := pagination.FromContext(c); pg.Present {
		p.GoToPage(pg.Page)
	}
	if nav := c.QueryParam("nav"); nav != "" {
		navigate(p, nav)
	}
}

type viewer[R any] interface {
	View() listing.View[R]
}

// writeResult answers a create. Validation failures are page-local and
// come back inside the view.
func writeResult[R any](c echo.Context, v viewer[R], created R, err error) error {
	if err != nil {
		if listing.IsValidation(err) {
			return c.JSON(http.StatusOK, Result[R]{View: v.View()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, Result[R]{Record: &created, View: v.View()})
}

func writeWorkbook(c echo.Context, name string, render func() ([]byte, error)) error {
	b, err := render()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename(name)))
	return c.Blob(http.StatusOK, export.ContentType, b)
}

func (h *Handler) logSearch(err error, view string) {
	switch {
	case err == nil, errors.Is(err, listing.ErrNotFound), errors.Is(err, listing.ErrStale):
		return
	}
	h.logger.Warn().Err(err).Str("view", view).Msg("search failed")
}
