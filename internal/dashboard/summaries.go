package dashboard

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/domain/summary"
	"github.com/clinica/dashboard/internal/platform/listing"
	"github.com/clinica/dashboard/internal/platform/resource"
)

const visitsPageSize = 5

// SummarySource resolves one summary.
type SummarySource interface {
	Get(ctx context.Context, kind summary.Kind, id int) (summary.Summary, bool, resource.Origin)
}

// visitSource serves the visits of the current summary to a controller.
type visitSource struct {
	visits []summary.Visit
}

func (s visitSource) List(ctx context.Context, limit int) ([]summary.Visit, resource.Origin) {
	if limit > 0 && len(s.visits) > limit {
		return s.visits[:limit], resource.Remote
	}
	return s.visits, resource.Remote
}

func (s visitSource) GetByID(ctx context.Context, id string) (summary.Visit, bool, resource.Origin) {
	return summary.Visit{}, false, resource.Remote
}

func visitsConfig() listing.Config[summary.Visit, string] {
	return listing.Config[summary.Visit, string]{
		Name:      "consultas",
		PageSize:  visitsPageSize,
		IndexBase: 0,
		Search:    listing.SearchDisabled,
		IDOf:      func(v summary.Visit) string { return v.Date() },
	}
}

// SummaryState is the rendered summary view.
type SummaryState struct {
	Kind    summary.Kind                `json:"tipo"`
	Query   string                      `json:"query,omitempty"`
	Summary *summary.Summary            `json:"resumen,omitempty"`
	Visits  listing.View[summary.Visit] `json:"consultas"`
	Offline bool                        `json:"offline"`
	Error   string                      `json:"error,omitempty"`
}

// SummaryView is the visit-history screen: one search by kind and id, and
// the visits of the match paginated five at a time.
type SummaryView struct {
	mu     sync.Mutex
	src    SummarySource
	logger zerolog.Logger

	kind    summary.Kind
	query   string
	current *summary.Summary
	origin  resource.Origin
	err     string
	seq     uint64
	visits  *listing.Controller[summary.Visit, string]
}

// NewSummaryView creates the view searching doctors first.
func NewSummaryView(src SummarySource, logger zerolog.Logger) *SummaryView {
	v := &SummaryView{
		src:    src,
		logger: logger.With().Str("view", "resumen").Logger(),
		kind:   summary.KindDoctor,
		origin: resource.Remote,
	}
	v.visits = v.newVisits(nil)
	return v
}

func (v *SummaryView) newVisits(visits []summary.Visit) *listing.Controller[summary.Visit, string] {
	c := listing.New(visitsConfig(), visitSource{visits: visits}, v.logger)
	_ = c.Load(context.Background())
	return c
}

// Kind returns the kind searched next.
func (v *SummaryView) Kind() summary.Kind {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.kind
}

// SetKind switches between doctor and patient search, dropping the
// current summary and error. A lookup still in flight is discarded.
func (v *SummaryView) SetKind(kind summary.Kind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kind = kind
	v.seq++
	v.reset()
}

// Search looks up the summary of query under the current kind. An empty
// query does nothing; a non-numeric one is reported as a miss.
func (v *SummaryView) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	v.mu.Lock()
	v.seq++
	seq := v.seq
	kind := v.kind
	v.query = query
	v.reset()
	v.mu.Unlock()

	var (
		s      summary.Summary
		found  bool
		origin = resource.Remote
	)
	id, parseErr := strconv.Atoi(query)
	if parseErr == nil {
		s, found, origin = v.src.Get(ctx, kind, id)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		v.logger.Debug().
			Str("op", "lookup").
			Uint64("seq", seq).
			Uint64("latest", v.seq).
			Msg("discarding stale response")
		return listing.ErrStale
	}
	v.origin = origin
	if !found {
		v.err = summary.MissMessage(kind)
		return listing.ErrNotFound
	}
	v.current = &s
	v.visits = v.newVisits(s.Visits())
	return nil
}

// reset clears the result. Callers hold v.mu.
func (v *SummaryView) reset() {
	v.current = nil
	v.err = ""
	v.visits = v.newVisits(nil)
}

// Visits returns the pager over the current visits.
func (v *SummaryView) Visits() *listing.Controller[summary.Visit, string] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visits
}

// State snapshots the view.
func (v *SummaryView) State() SummaryState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SummaryState{
		Kind:    v.kind,
		Query:   v.query,
		Summary: v.current,
		Visits:  v.visits.View(),
		Offline: v.origin.Offline(),
		Error:   v.err,
	}
}
