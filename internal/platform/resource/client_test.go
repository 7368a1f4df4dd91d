package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/platform/fixture"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type namePatch struct {
	Name *string `json:"name,omitempty"`
}

func (p namePatch) Apply(r record) record {
	if p.Name != nil {
		r.Name = *p.Name
	}
	return r
}

func strPtr(s string) *string { return &s }

var recordIdentity = Identity[record, int]{
	Of:   func(r record) int { return r.ID },
	With: func(r record, id int) record { r.ID = id; return r },
	New: func(exists func(int) bool) int {
		for id := 100; ; id++ {
			if !exists(id) {
				return id
			}
		}
	},
	Format: strconv.Itoa,
}

func newFixtures() *fixture.Store[record, int] {
	return fixture.NewStore(recordIdentity.Of,
		record{ID: 1, Name: "uno"},
		record{ID: 2, Name: "dos"},
		record{ID: 3, Name: "tres"},
	)
}

func unreachableURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newTestClient(baseURL string, endpoints Endpoints) *Client[record, int] {
	req := NewRequester("records", baseURL, 2*time.Second, zerolog.Nop())
	return NewClient(req, endpoints, newFixtures(), recordIdentity)
}

var itemEndpoints = Endpoints{List: "/records", Item: "/records/{id}", Create: "/records"}

func TestClient_ListRemoteTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
		json.NewEncoder(w).Encode([]record{{ID: 7, Name: "a"}, {ID: 8, Name: "b"}, {ID: 9, Name: "c"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	items, origin := c.List(context.Background(), 2)

	if origin != Remote {
		t.Errorf("expected remote origin, got %s", origin)
	}
	if len(items) != 2 || items[0].ID != 7 || items[1].ID != 8 {
		t.Errorf("expected first two remote records, got %v", items)
	}
}

func TestClient_ListStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	items, origin := c.List(context.Background(), 0)

	if origin != Fixture || !origin.Offline() {
		t.Errorf("expected fixture origin, got %s", origin)
	}
	if len(items) != 3 {
		t.Errorf("expected full fixture, got %d", len(items))
	}
}

func TestClient_ListUnreachableFallsBackWithLimit(t *testing.T) {
	c := newTestClient(unreachableURL(), itemEndpoints)
	items, origin := c.List(context.Background(), 2)

	if origin != Fixture {
		t.Errorf("expected fixture origin, got %s", origin)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 fixture records, got %d", len(items))
	}
}

func TestClient_ListMalformedBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	if _, origin := c.List(context.Background(), 0); origin != Fixture {
		t.Errorf("expected fixture origin, got %s", origin)
	}
}

func TestClient_GetByIDRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(record{ID: 42, Name: "remote"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	rec, ok, origin := c.GetByID(context.Background(), 42)

	if !ok || rec.ID != 42 || origin != Remote {
		t.Errorf("expected remote record 42, got %v %v %s", rec, ok, origin)
	}
}

func TestClient_GetByIDNotFoundScansFixtures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)

	rec, ok, origin := c.GetByID(context.Background(), 2)
	if !ok || rec.Name != "dos" || origin != Fixture {
		t.Errorf("expected fixture record 2, got %v %v %s", rec, ok, origin)
	}
	if _, ok, _ := c.GetByID(context.Background(), 99); ok {
		t.Error("expected absent for unknown id")
	}
}

func TestClient_GetByIDWithoutItemEndpointScansRemoteList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]record{{ID: 5, Name: "cinco"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Endpoints{List: "/records", Create: "/records"})

	rec, ok, origin := c.GetByID(context.Background(), 5)
	if !ok || rec.Name != "cinco" || origin != Remote {
		t.Errorf("expected remote record 5, got %v %v %s", rec, ok, origin)
	}
	if _, ok, _ := c.GetByID(context.Background(), 1); ok {
		t.Error("expected fixture record to be invisible while the remote answers")
	}
}

func TestClient_CreateRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		var in record
		json.NewDecoder(r.Body).Decode(&in)
		in.ID = 500
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	rec, origin := c.Create(context.Background(), record{Name: "nuevo"})

	if origin != Remote || rec.ID != 500 || rec.Name != "nuevo" {
		t.Errorf("expected remote record 500, got %v %s", rec, origin)
	}
	if n := len(c.Store().List(0)); n != 3 {
		t.Errorf("expected fixtures untouched, got %d", n)
	}
}

func TestClient_CreateFallbackAssignsFreshID(t *testing.T) {
	c := newTestClient(unreachableURL(), itemEndpoints)
	ctx := context.Background()

	first, origin := c.Create(ctx, record{Name: "a"})
	second, _ := c.Create(ctx, record{Name: "b"})

	if origin != Fixture {
		t.Errorf("expected fixture origin, got %s", origin)
	}
	if first.ID == second.ID {
		t.Errorf("expected distinct ids, both %d", first.ID)
	}

	items, _ := c.List(ctx, 0)
	matches := 0
	for _, r := range items {
		if r.Name == "a" {
			matches++
			if r.ID != first.ID {
				t.Errorf("expected stored id %d, got %d", first.ID, r.ID)
			}
		}
	}
	if matches != 1 {
		t.Errorf("expected exactly one stored draft, got %d", matches)
	}
}

func TestClient_UpdateFallbackMerges(t *testing.T) {
	c := newTestClient(unreachableURL(), itemEndpoints)
	ctx := context.Background()

	rec, ok, origin := c.Update(ctx, 3, namePatch{Name: strPtr("TRES")})
	if !ok || rec.ID != 3 || rec.Name != "TRES" || origin != Fixture {
		t.Errorf("expected merged record, got %v %v %s", rec, ok, origin)
	}
	if stored, _ := c.Store().Find(3); stored.Name != "TRES" {
		t.Errorf("expected fixture to be updated in place, got %v", stored)
	}
	if _, ok, _ := c.Update(ctx, 99, namePatch{}); ok {
		t.Error("expected absent for unknown id")
	}
}

func TestClient_UpdateRemoteSendsPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["id"]; ok {
			t.Error("expected only set fields in the body")
		}
		json.NewEncoder(w).Encode(record{ID: 1, Name: fmt.Sprint(body["name"])})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	rec, ok, origin := c.Update(context.Background(), 1, namePatch{Name: strPtr("x")})

	if !ok || rec.Name != "x" || origin != Remote {
		t.Errorf("expected remote update, got %v %v %s", rec, ok, origin)
	}
}

func TestClient_DeleteRemoteConfirms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, itemEndpoints)
	if !c.Delete(context.Background(), 1) {
		t.Error("expected confirmed deletion")
	}
}

func TestClient_DeleteFallbackRemovesButReportsFalse(t *testing.T) {
	c := newTestClient(unreachableURL(), itemEndpoints)
	ctx := context.Background()

	if c.Delete(ctx, 2) {
		t.Error("expected false for a fallback deletion")
	}
	if _, ok, _ := c.GetByID(ctx, 2); ok {
		t.Error("expected record to be gone after deletion")
	}
	if c.Delete(ctx, 99) {
		t.Error("expected false for unknown id")
	}
}

func TestClient_WritesWithoutItemEndpointUseFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, Endpoints{List: "/records", Create: "/records"})
	if c.Delete(context.Background(), 1) {
		t.Error("expected false without an item endpoint")
	}
	if c.Store().Contains(1) {
		t.Error("expected fixture removal")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Failure
	}{
		{"nil", nil, FailureNone},
		{"status", fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 503}), FailureStatus},
		{"decode", &DecodeError{Err: errors.New("bad")}, FailureDecode},
		{"unsupported", errUnsupported, FailureUnsupported},
		{"transport", errors.New("connection refused"), FailureTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type countingRecorder struct {
	calls map[string]int
}

func (r *countingRecorder) RecordUpstream(resource, op, outcome string) {
	r.calls[resource+"/"+op+"/"+outcome]++
}

func TestRequester_RecordsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]record{{ID: 7, Name: "a"}})
	}))
	defer srv.Close()

	rec := &countingRecorder{calls: map[string]int{}}
	req := NewRequester("records", srv.URL, 2*time.Second, zerolog.Nop()).WithRecorder(rec)
	c := NewClient(req, itemEndpoints, newFixtures(), recordIdentity)

	c.List(context.Background(), 0)
	c.Create(context.Background(), record{Name: "nuevo"})
	req.Failure(Call{Op: "get"}, "", errors.New("boom"))

	want := map[string]int{
		"records/list/" + OutcomeRemote:     1,
		"records/create/" + OutcomeFallback: 1,
		"records/get/" + OutcomeDropped:     1,
	}
	for k, n := range want {
		if rec.calls[k] != n {
			t.Errorf("expected %d for %s, got %d", n, k, rec.calls[k])
		}
	}
	if len(rec.calls) != len(want) {
		t.Errorf("expected %d outcome keys, got %v", len(want), rec.calls)
	}
}
