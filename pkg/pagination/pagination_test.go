package pagination

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Present {
		t.Error("expected no page when the query string is empty")
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if !p.Present || p.Page != 3 {
		t.Errorf("expected page 3, got %+v", p)
	}
}

func TestFromContext_Invalid(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if p := FromContext(c); p.Present {
		t.Errorf("expected invalid page to be ignored, got %+v", p)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int
		size  int
		want  int
	}{
		{"empty", 0, 10, 0},
		{"exact", 20, 10, 2},
		{"partial", 23, 10, 3},
		{"single", 1, 10, 1},
		{"zero size", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.size); got != tt.want {
				t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		index int
		base  int
		pages int
		want  int
	}{
		{"in range one based", 2, 1, 3, 2},
		{"above one based", 5, 1, 3, 3},
		{"below one based", 0, 1, 3, 1},
		{"above zero based", 3, 0, 3, 2},
		{"no pages", 4, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.index, tt.base, tt.pages); got != tt.want {
				t.Errorf("Clamp() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	if !InRange(3, 1, 3) {
		t.Error("expected page 3 of 3 to be in range")
	}
	if InRange(3, 0, 3) {
		t.Error("expected zero-based index 3 of 3 pages to be out of range")
	}
	if InRange(1, 1, 0) {
		t.Error("expected no page to be in range when there are no pages")
	}
}

func TestSlice_PartitionsExactlyOnce(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	var joined []int
	pages := TotalPages(len(items), 10)
	for p := 0; p < pages; p++ {
		joined = append(joined, Slice(items, Offset(p, 0, 10), 10)...)
	}

	if !reflect.DeepEqual(joined, items) {
		t.Errorf("expected pages to reproduce the collection, got %v", joined)
	}
}

func TestSlice_PastEnd(t *testing.T) {
	got := Slice([]int{1, 2, 3}, 10, 5)
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"few pages", 1, 3, []int{1, 2, 3}},
		{"start", 2, 10, []int{1, 2, 3, 4, 5}},
		{"middle", 6, 10, []int{4, 5, 6, 7, 8}},
		{"end", 9, 10, []int{6, 7, 8, 9, 10}},
		{"none", 1, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Window(tt.current, tt.total, WindowWidth); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Window(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
		})
	}
}

func TestRange_Label(t *testing.T) {
	r := NewRange(20, 10, 23)
	if got := r.Label("exámenes"); got != "Mostrando 21 - 23 de 23 exámenes" {
		t.Errorf("unexpected label %q", got)
	}
	if empty := NewRange(0, 10, 0); empty.From != 0 || empty.To != 0 {
		t.Errorf("expected zero range for empty collection, got %+v", empty)
	}
}
