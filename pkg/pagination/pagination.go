package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	// WindowWidth is how many page numbers the dashboard shows at once.
	WindowWidth = 5
)

// Params holds the page requested through the query string.
type Params struct {
	Page    int
	Present bool
}

// FromContext extracts the requested page from the echo context. The page
// parameter is read verbatim so the caller can apply its own index base;
// Present is false when the request did not ask for a page.
func FromContext(c echo.Context) Params {
	raw := c.QueryParam("page")
	if raw == "" {
		raw = c.QueryParam("_page")
	}
	if raw == "" {
		return Params{}
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return Params{}
	}
	return Params{Page: page, Present: true}
}

// TotalPages returns ceil(total/size). A non-positive size yields zero pages.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// InRange reports whether index is a valid page for the given base.
func InRange(index, base, totalPages int) bool {
	return index >= base && index <= totalPages-1+base
}

// Clamp forces index into [base, totalPages-1+base]. With no pages the
// result is base.
func Clamp(index, base, totalPages int) int {
	if totalPages <= 0 || index < base {
		return base
	}
	if last := totalPages - 1 + base; index > last {
		return last
	}
	return index
}

// Offset returns the position of the first element of page index.
func Offset(index, base, size int) int {
	off := (index - base) * size
	if off < 0 {
		return 0
	}
	return off
}

// Slice returns items[offset : offset+size] bounded by len(items). The
// result shares the backing array with items.
func Slice[T any](items []T, offset, size int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || size <= 0 {
		return []T{}
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Window returns up to width page numbers centred on current. Both current
// and the returned numbers are 1-based, matching what the user sees.
func Window(current, totalPages, width int) []int {
	if totalPages <= 0 || width <= 0 {
		return []int{}
	}
	n := width
	if totalPages < n {
		n = totalPages
	}
	half := width / 2

	var start int
	switch {
	case totalPages <= width:
		start = 1
	case current <= half+1:
		start = 1
	case current >= totalPages-half:
		start = totalPages - width + 1
	default:
		start = current - half
	}

	pages := make([]int, n)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}

// Range describes the 1-based span of elements a page shows.
type Range struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// NewRange computes the span for a page starting at offset.
func NewRange(offset, size, total int) Range {
	if total == 0 {
		return Range{}
	}
	to := offset + size
	if to > total {
		to = total
	}
	return Range{From: offset + 1, To: to, Total: total}
}

// Label renders the range the way the dashboard footer does.
func (r Range) Label(noun string) string {
	return fmt.Sprintf("Mostrando %d - %d de %d %s", r.From, r.To, r.Total, noun)
}
