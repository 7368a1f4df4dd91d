package fixture

import (
	"fmt"
	"sync"
	"testing"
)

type item struct {
	ID   string
	Name string
}

func newTestStore() *Store[item, string] {
	return NewStore(func(i item) string { return i.ID },
		item{ID: "a", Name: "first"},
		item{ID: "b", Name: "second"},
		item{ID: "c", Name: "third"},
	)
}

func TestStore_ListLimit(t *testing.T) {
	s := newTestStore()

	if got := s.List(0); len(got) != 3 {
		t.Errorf("expected 3 items without limit, got %d", len(got))
	}
	got := s.List(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected insertion order, got %v", got)
	}
	if got := s.List(10); len(got) != 3 {
		t.Errorf("expected limit above size to return all, got %d", len(got))
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := newTestStore()
	got := s.List(0)
	got[0].Name = "mutated"

	if r, _ := s.Find("a"); r.Name != "first" {
		t.Errorf("expected store to be unaffected, got %q", r.Name)
	}
}

func TestStore_Find(t *testing.T) {
	s := newTestStore()

	if r, ok := s.Find("b"); !ok || r.Name != "second" {
		t.Errorf("expected to find b, got %v %v", r, ok)
	}
	if _, ok := s.Find("missing"); ok {
		t.Error("expected missing id to be absent")
	}
}

func TestStore_UpdateInPlace(t *testing.T) {
	s := newTestStore()

	r, ok := s.Update("b", func(i item) item { i.Name = "changed"; return i })
	if !ok || r.Name != "changed" {
		t.Fatalf("expected update to succeed, got %v %v", r, ok)
	}
	list := s.List(0)
	if list[1].ID != "b" || list[1].Name != "changed" {
		t.Errorf("expected record to keep its position, got %v", list)
	}
	if _, ok := s.Update("missing", func(i item) item { return i }); ok {
		t.Error("expected update of missing id to report absent")
	}
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore()

	if !s.Remove("a") {
		t.Fatal("expected remove to report true")
	}
	if s.Contains("a") {
		t.Error("expected a to be gone")
	}
	if s.Remove("a") {
		t.Error("expected second remove to report false")
	}
	if n := len(s.List(0)); n != 2 {
		t.Errorf("expected 2 items, got %d", n)
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore()
	s.AppendNew(item{}, func(func(string) bool) string { return "d" }, func(i item, id string) item { i.ID = id; return i })
	s.Remove("a")

	s.Reset()

	if len(s.List(0)) != 3 || !s.Contains("a") || s.Contains("d") {
		t.Errorf("expected seed to be restored, got %v", s.List(0))
	}
}

func TestStore_AppendNewUniqueUnderConcurrency(t *testing.T) {
	s := NewStore(func(i item) string { return i.ID })
	counter := 0
	newID := func(exists func(string) bool) string {
		for {
			counter++
			id := fmt.Sprintf("id-%d", counter%50)
			if !exists(id) {
				return id
			}
		}
	}
	withID := func(i item, id string) item { i.ID = id; return i }

	var wg sync.WaitGroup
	for n := 0; n < 40; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendNew(item{Name: "x"}, newID, withID)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, r := range s.List(0) {
		if seen[r.ID] {
			t.Fatalf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
	if len(seen) != 40 {
		t.Errorf("expected 40 records, got %d", len(seen))
	}
}
