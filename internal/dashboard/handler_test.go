package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
	"github.com/clinica/dashboard/internal/platform/export"
	"github.com/clinica/dashboard/internal/platform/listing"
)

func newTestHandler(t *testing.T, baseURL string) (*Handler, *echo.Echo) {
	t.Helper()
	d := newDashboard(t, baseURL, &manualClock{})
	h := NewHandler(d, zerolog.Nop())
	e := echo.New()
	e.GET("/health", h.Health)
	h.RegisterRoutes(e.Group("/api/v1"))
	return h, e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandler_Health(t *testing.T) {
	_, e := newTestHandler(t, unreachableURL())

	rec := do(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestHandler_ListPatientsPages(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	v := decode[listing.View[patient.Patient]](t, do(e, http.MethodGet, "/api/v1/patients", ""))
	if v.Page != 1 || v.TotalPages != 2 || len(v.Items) != 10 || v.Total != 12 {
		t.Errorf("expected page 1 of 2 with 10 items, got %+v", v)
	}
	if v.RangeLabel != "Mostrando 1 - 10 de 12 pacientes" {
		t.Errorf("unexpected range label %q", v.RangeLabel)
	}

	v = decode[listing.View[patient.Patient]](t, do(e, http.MethodGet, "/api/v1/patients?page=2", ""))
	if v.Page != 2 || len(v.Items) != 2 || !v.HasPrev || v.HasNext {
		t.Errorf("expected last page with 2 items, got %+v", v)
	}

	v = decode[listing.View[patient.Patient]](t, do(e, http.MethodGet, "/api/v1/patients?page=9", ""))
	if v.Page != 2 {
		t.Errorf("expected out-of-range page to be ignored, got page %d", v.Page)
	}

	v = decode[listing.View[patient.Patient]](t, do(e, http.MethodGet, "/api/v1/patients?nav=first", ""))
	if v.Page != 1 {
		t.Errorf("expected first page, got %d", v.Page)
	}
}

func TestHandler_SearchPatients(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	v := decode[listing.View[patient.Patient]](t, do(e, http.MethodPost, "/api/v1/patients/search", `{"query":"3"}`))
	if !v.PointLookup || len(v.Items) != 1 || v.Items[0].ID != 3 {
		t.Errorf("expected lookup of patient 3, got %+v", v)
	}

	v = decode[listing.View[patient.Patient]](t, do(e, http.MethodPost, "/api/v1/patients/search", `{"query":"999"}`))
	if v.Error != patient.MissMessage("999") {
		t.Errorf("unexpected error %q", v.Error)
	}
	if v.PointLookup || len(v.Items) != 10 {
		t.Errorf("expected the collection to stay visible, got %d items", len(v.Items))
	}

	v = decode[listing.View[patient.Patient]](t, do(e, http.MethodDelete, "/api/v1/patients/search", ""))
	if v.Error != "" || v.Query != "" {
		t.Errorf("expected cleared search, got %+v", v)
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	rec := do(e, http.MethodPost, "/api/v1/patients", `{"nombre":"Lucía Ortega"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a page-local validation error, got %d", rec.Code)
	}
	res := decode[Result[patient.Patient]](t, rec)
	if res.Record != nil || res.View.Error != patient.MsgRequired {
		t.Errorf("expected validation error, got %+v", res)
	}

	rec = do(e, http.MethodPost, "/api/v1/patients", `{"nombre":"Lucía Ortega","dni":"44556677","fecha_nac":"1990-02-03","sexo":"F"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	res = decode[Result[patient.Patient]](t, rec)
	if res.Record == nil || res.Record.ID != 13 {
		t.Errorf("expected created patient 13, got %+v", res.Record)
	}
	if res.View.Error != "" || res.View.Total != 13 {
		t.Errorf("expected 13 patients and no error, got %+v", res.View)
	}
}

func TestHandler_CreatePatientMalformed(t *testing.T) {
	_, e := newTestHandler(t, unreachableURL())

	rec := do(e, http.MethodPost, "/api/v1/patients", `{"nombre":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Doctors(t *testing.T) {
	srv := sandboxServer(t, nil)
	h, e := newTestHandler(t, srv.URL)

	v := decode[listing.View[doctor.Doctor]](t, do(e, http.MethodGet, "/api/v1/doctors", ""))
	if v.Page != 0 || v.Total != 3 {
		t.Errorf("expected 3 doctors from page 0, got %+v", v)
	}

	rec := do(e, http.MethodPost, "/api/v1/doctors", `{"nombre":"Zacarías","apellido":"Quintero","especialidad":"Neumología"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = do(e, http.MethodPut, "/api/v1/doctors/query", `{"query":"quintero"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	st := decode[doctorsState](t, rec)
	if !st.Pending || st.Query != "" {
		t.Errorf("expected pending query not yet applied, got %+v", st)
	}

	h.dash.FlushDoctorQuery()
	st = decode[doctorsState](t, do(e, http.MethodGet, "/api/v1/doctors", ""))
	if st.Pending || st.Query != "quintero" || st.Total != 1 {
		t.Errorf("expected filtered view, got %+v", st)
	}
}

func TestHandler_CreateDoctorValidation(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	res := decode[Result[doctor.Doctor]](t, do(e, http.MethodPost, "/api/v1/doctors", `{"nombre":"Sin"}`))
	if res.Record != nil || res.View.Error != doctor.MsgRequired {
		t.Errorf("expected validation error, got %+v", res)
	}
}

func TestHandler_ExamsLifecycle(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	v := decode[listing.View[exam.Exam]](t, do(e, http.MethodGet, "/api/v1/exams", ""))
	if v.Total != 15 || v.TotalPages != 2 {
		t.Fatalf("expected 15 exams on 2 pages, got %+v", v)
	}

	rec := do(e, http.MethodPost, "/api/v1/exams", `{"pacienteId":"2","medicoId":"1","tipoExamen":"Orina"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	created := decode[Result[exam.Exam]](t, rec)
	if created.Record == nil || created.Record.Status != exam.StatusPending {
		t.Fatalf("expected pending exam, got %+v", created.Record)
	}
	if created.View.Items[0].ID != created.Record.ID {
		t.Errorf("expected the new exam at the head, got %s", created.View.Items[0].ID)
	}
	id := string(created.Record.ID)

	edit := decode[editState](t, do(e, http.MethodGet, "/api/v1/exams/"+id, ""))
	if edit.Exam == nil || edit.Exam.Type != "Orina" {
		t.Errorf("expected edit form for %s, got %+v", id, edit)
	}

	updated := decode[Result[exam.Exam]](t, do(e, http.MethodPut, "/api/v1/exams/"+id, `{"estado":"completado","comentarios":"sin hallazgos"}`))
	if updated.Record == nil || updated.Record.Status != exam.StatusCompleted || *updated.Record.Comments != "sin hallazgos" {
		t.Errorf("expected completed exam, got %+v", updated.Record)
	}

	deleted := decode[Result[exam.Exam]](t, do(e, http.MethodDelete, "/api/v1/exams/"+id, ""))
	if deleted.Confirmed == nil || !*deleted.Confirmed {
		t.Errorf("expected confirmed deletion, got %+v", deleted.Confirmed)
	}
	if deleted.View.Total != 15 {
		t.Errorf("expected 15 exams after delete, got %d", deleted.View.Total)
	}
}

func TestHandler_ExamValidation(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	res := decode[Result[exam.Exam]](t, do(e, http.MethodPost, "/api/v1/exams", `{"tipoExamen":"Orina"}`))
	if res.Record != nil || res.View.Error != exam.MsgRequired {
		t.Errorf("expected validation error, got %+v", res)
	}
}

func TestHandler_SearchExamsMissHidesList(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	v := decode[listing.View[exam.Exam]](t, do(e, http.MethodPost, "/api/v1/exams/search", `{"query":"nonexistent-id"}`))
	if v.Error != exam.MsgMiss || len(v.Items) != 0 {
		t.Errorf("expected hidden list with miss message, got %+v", v)
	}

	v = decode[listing.View[exam.Exam]](t, do(e, http.MethodPost, "/api/v1/exams/search", `{"query":""}`))
	if v.Error != "" || v.Total != 15 {
		t.Errorf("expected reloaded list, got %+v", v)
	}
}

func TestHandler_EditExamNotLoaded(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	edit := decode[editState](t, do(e, http.MethodGet, "/api/v1/exams/nonexistent-id", ""))
	if edit.Exam != nil || edit.Error != exam.MsgNotLoaded {
		t.Errorf("expected not loaded message, got %+v", edit)
	}
}

type summaryBody struct {
	Kind    summary.Kind    `json:"tipo"`
	Summary json.RawMessage `json:"resumen"`
	Visits  struct {
		Total      int               `json:"total"`
		TotalPages int               `json:"total_pages"`
		Items      []json.RawMessage `json:"items"`
	} `json:"consultas"`
	Error string `json:"error"`
}

func TestHandler_Summaries(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	body := decode[summaryBody](t, do(e, http.MethodPost, "/api/v1/summaries/search", `{"id":1}`))
	if body.Kind != summary.KindDoctor || len(body.Summary) == 0 {
		t.Fatalf("expected a doctor summary, got %+v", body)
	}
	if body.Visits.Total != 5 || len(body.Visits.Items) != 5 {
		t.Errorf("expected 5 visits, got %d", body.Visits.Total)
	}
	if !bytes.Contains(body.Summary, []byte(`"tipo":"medico"`)) {
		t.Errorf("expected tagged summary, got %s", body.Summary)
	}

	body = decode[summaryBody](t, do(e, http.MethodPost, "/api/v1/summaries/search", `{"kind":"paciente","id":"abc"}`))
	if body.Kind != summary.KindPatient || body.Error != summary.MissMessage(summary.KindPatient) {
		t.Errorf("expected patient miss, got %+v", body)
	}

	body = decode[summaryBody](t, do(e, http.MethodPut, "/api/v1/summaries/kind", `{"kind":"medico"}`))
	if body.Kind != summary.KindDoctor || body.Error != "" || len(body.Summary) != 0 {
		t.Errorf("expected cleared doctor view, got %+v", body)
	}

	rec := do(e, http.MethodPut, "/api/v1/summaries/kind", `{"kind":"enfermero"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestHandler_Orchestrate(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	rec := do(e, http.MethodGet, "/api/v1/summaries/paciente?ids=99,1,2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	for i, want := range []float64{1, 2} {
		p, _ := got[i]["paciente"].(map[string]any)
		if p["id"] != want {
			t.Errorf("expected patient %v at %d, got %v", want, i, p["id"])
		}
	}

	for _, path := range []string{
		"/api/v1/summaries/enfermero?ids=1",
		"/api/v1/summaries/medico",
		"/api/v1/summaries/medico?ids=1,x",
	} {
		if rec := do(e, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestHandler_ExportExams(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	rec := do(e, http.MethodGet, "/api/v1/exams/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != export.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "examenes.xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Examenes")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 16 || rows[0][0] != "ID" {
		t.Errorf("expected header plus 15 rows, got %d", len(rows))
	}
}

func TestHandler_ExportDoctorsAppliesPendingQuery(t *testing.T) {
	srv := sandboxServer(t, nil)
	_, e := newTestHandler(t, srv.URL)

	do(e, http.MethodPost, "/api/v1/doctors", `{"nombre":"Zacarías","apellido":"Quintero","especialidad":"Neumología"}`)
	do(e, http.MethodPut, "/api/v1/doctors/query", `{"query":"zacar"}`)

	rec := do(e, http.MethodGet, "/api/v1/doctors/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Medicos")
	if len(rows) != 2 || rows[1][2] != "Quintero" {
		t.Errorf("expected only the filtered doctor, got %v", rows)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 3, 1 ,,2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[2] != 2 {
		t.Errorf("expected [3 1 2], got %v", ids)
	}
	if _, err := parseIDs(" , "); err == nil {
		t.Error("expected error for empty list")
	}
}
