package listing

import "github.com/clinica/dashboard/pkg/pagination"

// View is the rendered state of a Controller. Page numbers, including
// Window, are expressed in the view's index base.
type View[R any] struct {
	Items       []R              `json:"items"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"total_pages"`
	Total       int              `json:"total"`
	PageSize    int              `json:"page_size"`
	Window      []int            `json:"window"`
	Range       pagination.Range `json:"range"`
	RangeLabel  string           `json:"range_label,omitempty"`
	HasPrev     bool             `json:"has_prev"`
	HasNext     bool             `json:"has_next"`
	PointLookup bool             `json:"point_lookup"`
	Query       string           `json:"query,omitempty"`
	Offline     bool             `json:"offline"`
	Error       string           `json:"error,omitempty"`
}
