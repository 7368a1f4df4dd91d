package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/platform/resource"
)

func unreachableURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newClient(baseURL string) *Client {
	req := resource.NewRequester("summaries", baseURL, 2*time.Second, zerolog.Nop())
	return NewClient(req, NewStore())
}

// summaryServer answers doctor summaries for the ids in known, with a
// delay proportional to the id so completions arrive out of order.
func summaryServer(t *testing.T, known map[int]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/resumen/medico/%d", &id); err != nil {
			http.NotFound(w, r)
			return
		}
		time.Sleep(time.Duration(10-id) * 5 * time.Millisecond)
		if !known[id] {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"medico":{"id":%d,"nombre":"Dr %d","especialidad":"General"},"consultas":[]}`, id, id)
	}))
}

func TestClient_GetRemoteDoctor(t *testing.T) {
	srv := summaryServer(t, map[int]bool{4: true})
	defer srv.Close()

	s, ok, origin := newClient(srv.URL).Get(context.Background(), KindDoctor, 4)
	if !ok || origin != resource.Remote {
		t.Fatalf("expected remote summary, got %v %s", ok, origin)
	}
	if s.Kind != KindDoctor || s.Doctor == nil || s.Doctor.Doctor.ID != 4 || s.Patient != nil {
		t.Errorf("expected tagged doctor summary, got %+v", s)
	}
}

func TestClient_GetFallbackByKindAndID(t *testing.T) {
	c := newClient(unreachableURL())
	ctx := context.Background()

	s, ok, origin := c.Get(ctx, KindDoctor, 1)
	if !ok || origin != resource.Fixture || s.Doctor.Doctor.Name != "Victor" {
		t.Errorf("expected fixture doctor 1, got %+v %v %s", s, ok, origin)
	}
	p, ok, _ := c.Get(ctx, KindPatient, 1)
	if !ok || p.Patient.Patient.Name != "María López" || p.Key().ID != 101 {
		t.Errorf("expected fixture patient 101 under id 1, got %+v %v", p, ok)
	}
	if _, ok, _ := c.Get(ctx, KindPatient, 101); ok {
		t.Error("expected no offline summary for id 101")
	}
	if _, ok, _ := c.Get(ctx, KindDoctor, 2); ok {
		t.Error("expected no offline summary for doctor 2")
	}
}

func TestClient_OrchestrateKeepsOrderAndDropsFailures(t *testing.T) {
	srv := summaryServer(t, map[int]bool{1: true, 3: true, 5: true})
	defer srv.Close()

	got := newClient(srv.URL).Orchestrate(context.Background(), KindDoctor, []int{5, 2, 1, 3})

	var ids []int
	for _, s := range got {
		ids = append(ids, s.Key().ID)
	}
	if fmt.Sprint(ids) != "[5 1 3]" {
		t.Errorf("expected [5 1 3], got %v", ids)
	}
}

func TestClient_OrchestrateDoesNotUseFixtures(t *testing.T) {
	got := newClient(unreachableURL()).Orchestrate(context.Background(), KindDoctor, []int{1})
	if len(got) != 0 {
		t.Errorf("expected no results without upstream, got %d", len(got))
	}
}

func TestVisitLabels(t *testing.T) {
	doc := Fixtures()[0]
	visits := doc.Visits()
	if len(visits) != 3 {
		t.Fatalf("expected 3 visits, got %d", len(visits))
	}
	if got := visits[0].Label(); got != "María López (ID: 101)" {
		t.Errorf("unexpected label %q", got)
	}
	anon := Visit{Kind: KindDoctor, Doctor: &DoctorVisit{PatientID: 7}}
	if got := anon.Label(); got != "ID: 7" {
		t.Errorf("unexpected anonymous label %q", got)
	}

	pat := Fixtures()[1].Visits()
	if got := pat[1].Label(); got != "Dra. Laura Sánchez" {
		t.Errorf("unexpected patient visit label %q", got)
	}
	if row := pat[0].Row(); row.DateLabel != "15 de abril de 2025" {
		t.Errorf("unexpected date label %q", row.DateLabel)
	}
}

func TestSummary_MarshalCarriesTag(t *testing.T) {
	b, err := json.Marshal(Fixtures()[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"tipo":"paciente"`) || !strings.Contains(out, `"dni":"12345678"`) {
		t.Errorf("unexpected json %s", out)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	if _, err := Decode("enfermero", []byte(`{}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := ParseKind("enfermero"); err == nil {
		t.Error("expected error parsing unknown kind")
	}
}

func TestMissMessage(t *testing.T) {
	if got := MissMessage(KindDoctor); got != "No se encontró el medico con el ID proporcionado" {
		t.Errorf("unexpected message %q", got)
	}
}
