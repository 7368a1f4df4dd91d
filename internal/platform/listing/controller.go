// Package listing implements the list controller behind every dashboard
// view: one retained collection, a derived page, a single search box and
// write actions that patch the collection once they resolve.
package listing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/platform/resource"
	"github.com/clinica/dashboard/pkg/pagination"
)

const defaultPageSize = 10

// Controller owns the retained collection of one view. Network calls run
// outside the lock; every read carries a sequence number and a response
// that is no longer the latest issued is dropped.
type Controller[R any, I comparable] struct {
	mu     sync.Mutex
	loadMu sync.Mutex
	cfg    Config[R, I]
	src    Source[R, I]
	logger zerolog.Logger

	full   []R
	page   int
	query  string
	lookup *R
	hidden bool
	err    string
	origin resource.Origin
	seq    uint64
	loaded bool
}

// New creates a controller reading from src.
func New[R any, I comparable](cfg Config[R, I], src Source[R, I], logger zerolog.Logger) *Controller[R, I] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.IndexBase != 1 {
		cfg.IndexBase = 0
	}
	return &Controller[R, I]{
		cfg:    cfg,
		src:    src,
		logger: logger.With().Str("view", cfg.Name).Logger(),
		page:   cfg.IndexBase,
		origin: resource.Remote,
	}
}

// Loaded reports whether the collection has been fetched at least once.
func (c *Controller[R, I]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// EnsureLoaded fetches the collection on first use. Concurrent first
// callers share one fetch and all return once the collection is in place.
func (c *Controller[R, I]) EnsureLoaded(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	for !c.Loaded() {
		// a Load issued elsewhere superseded ours; fetch again
		if err := c.Load(ctx); !errors.Is(err, ErrStale) {
			return err
		}
	}
	return nil
}

// Load fetches the collection, replacing the retained one and clearing
// any point lookup.
func (c *Controller[R, I]) Load(ctx context.Context) error {
	c.mu.Lock()
	seq := c.next()
	c.mu.Unlock()

	items, origin := c.src.List(ctx, c.cfg.LoadCap)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.discard("load", seq)
		return ErrStale
	}
	if err := ctx.Err(); err != nil {
		c.err = c.cfg.Messages.Load
		return err
	}
	c.full = items
	c.origin = origin
	c.loaded = true
	c.lookup = nil
	c.hidden = false
	c.err = ""
	c.page = c.clamp(c.page)
	return nil
}

// Search applies query according to the configured search mode. A point
// lookup that finds nothing returns ErrNotFound after setting the miss
// message.
func (c *Controller[R, I]) Search(ctx context.Context, query string) error {
	switch c.cfg.Search {
	case SearchFilter:
		c.mu.Lock()
		c.query = query
		c.page = c.cfg.IndexBase
		c.err = ""
		c.mu.Unlock()
		return nil
	case SearchLookup:
		return c.pointLookup(ctx, strings.TrimSpace(query))
	default:
		return ErrUnsupported
	}
}

// ClearSearch drops the filter or the point lookup. Views that reload on
// an empty query refetch the collection.
func (c *Controller[R, I]) ClearSearch(ctx context.Context) error {
	if c.cfg.Search == SearchLookup && c.cfg.OnEmptyQuery == EmptyReloads {
		c.mu.Lock()
		c.query = ""
		c.mu.Unlock()
		return c.Load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.Search == SearchLookup {
		c.next()
	}
	c.query = ""
	c.lookup = nil
	c.hidden = false
	c.err = ""
	c.page = c.clamp(c.page)
	return nil
}

func (c *Controller[R, I]) pointLookup(ctx context.Context, query string) error {
	if query == "" {
		return c.ClearSearch(ctx)
	}

	c.mu.Lock()
	seq := c.next()
	c.query = query
	c.mu.Unlock()

	var (
		rec    R
		found  bool
		origin resource.Origin
	)
	id, parseErr := c.cfg.ParseID(query)
	if parseErr == nil {
		rec, found, origin = c.src.GetByID(ctx, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.discard("lookup", seq)
		return ErrStale
	}
	if parseErr == nil {
		c.origin = origin
	}
	if found {
		c.lookup = &rec
		c.hidden = false
		c.err = ""
		return nil
	}

	c.lookup = nil
	if c.cfg.Messages.Miss != nil {
		c.err = c.cfg.Messages.Miss(query)
	}
	if c.cfg.Miss == MissEmptyVisible {
		c.hidden = true
	}
	return ErrNotFound
}

// GoToPage moves to page n. Out-of-range pages leave the view untouched
// and return false.
func (c *Controller[R, I]) GoToPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(n)
}

// Next moves one page forward.
func (c *Controller[R, I]) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(c.page + 1)
}

// Prev moves one page back.
func (c *Controller[R, I]) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(c.page - 1)
}

// First moves to the first page.
func (c *Controller[R, I]) First() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(c.cfg.IndexBase)
}

// Last moves to the last page.
func (c *Controller[R, I]) Last() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goTo(c.totalPages() - 1 + c.cfg.IndexBase)
}

func (c *Controller[R, I]) goTo(n int) bool {
	if c.lookup != nil || c.hidden {
		return false
	}
	if !pagination.InRange(n, c.cfg.IndexBase, c.totalPages()) {
		return false
	}
	c.page = n
	return true
}

// Create validates draft, sends it and inserts the result at the
// configured position.
func (c *Controller[R, I]) Create(ctx context.Context, draft R) (R, error) {
	var zero R
	creator, ok := c.src.(Creator[R])
	if !ok {
		return zero, ErrUnsupported
	}
	if err := c.validate(draft); err != nil {
		return zero, err
	}

	rec, _ := creator.Create(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Insert == InsertHead {
		c.full = append([]R{rec}, c.full...)
	} else {
		c.full = append(c.full, rec)
	}
	c.err = ""
	c.page = c.clamp(c.page)
	return rec, nil
}

// Update validates the patched record, sends patch and replaces the
// matching element in place.
func (c *Controller[R, I]) Update(ctx context.Context, id I, patch resource.Patch[R]) (R, error) {
	var zero R
	updater, ok := c.src.(Updater[R, I])
	if !ok {
		return zero, ErrUnsupported
	}

	c.mu.Lock()
	current, ok := c.retained(id)
	c.mu.Unlock()
	if !ok {
		current, ok, _ = c.src.GetByID(ctx, id)
	}
	// an unknown id is left for the upstream to reject
	if ok {
		if err := c.validate(patch.Apply(current)); err != nil {
			return zero, err
		}
	}

	rec, found, _ := updater.Update(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !found {
		c.err = c.cfg.Messages.NotUpdated
		return zero, ErrNotFound
	}
	for i := range c.full {
		if c.cfg.IDOf(c.full[i]) == id {
			c.full[i] = rec
			break
		}
	}
	if c.lookup != nil && c.cfg.IDOf(*c.lookup) == id {
		c.lookup = &rec
	}
	c.err = ""
	c.page = c.clamp(c.page)
	return rec, nil
}

// Delete removes id upstream and from the retained collection. confirmed
// is true only when the upstream acknowledged the deletion.
func (c *Controller[R, I]) Delete(ctx context.Context, id I) (confirmed bool, err error) {
	deleter, ok := c.src.(Deleter[I])
	if !ok {
		return false, ErrUnsupported
	}

	confirmed = deleter.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.full[:0]
	for _, r := range c.full {
		if c.cfg.IDOf(r) != id {
			kept = append(kept, r)
		}
	}
	c.full = kept
	if c.lookup != nil && c.cfg.IDOf(*c.lookup) == id {
		c.lookup = nil
	}
	c.err = ""
	c.page = c.clamp(c.page)
	return confirmed, nil
}

// Find returns the retained record with id.
func (c *Controller[R, I]) Find(id I) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.find(id)
}

// Collection returns a copy of the retained collection.
func (c *Controller[R, I]) Collection() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]R(nil), c.full...)
}

// Filtered returns a copy of the records the pages are cut from.
func (c *Controller[R, I]) Filtered() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]R(nil), c.pageSource()...)
}

// Err returns the current page-local error message.
func (c *Controller[R, I]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Page returns the current page index in the view's base.
func (c *Controller[R, I]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// TotalPages returns the number of pages of the current filter.
func (c *Controller[R, I]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages()
}

// View snapshots the state a client renders.
func (c *Controller[R, I]) View() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View[R]{
		Page:     c.page,
		PageSize: c.cfg.PageSize,
		Query:    c.query,
		Offline:  c.origin.Offline(),
		Error:    c.err,
		Window:   []int{},
	}

	switch {
	case c.lookup != nil:
		v.Items = []R{*c.lookup}
		v.Page = c.cfg.IndexBase
		v.TotalPages = 1
		v.Total = 1
		v.Range = pagination.NewRange(0, 1, 1)
		v.PointLookup = true
	case c.hidden:
		v.Items = []R{}
	default:
		src := c.pageSource()
		total := len(src)
		pages := pagination.TotalPages(total, c.cfg.PageSize)
		offset := pagination.Offset(c.page, c.cfg.IndexBase, c.cfg.PageSize)

		v.Items = append([]R{}, pagination.Slice(src, offset, c.cfg.PageSize)...)
		v.Total = total
		v.TotalPages = pages
		v.Range = pagination.NewRange(offset, c.cfg.PageSize, total)
		v.HasPrev = c.page > c.cfg.IndexBase
		v.HasNext = c.page < pages-1+c.cfg.IndexBase
		for _, n := range pagination.Window(c.page-c.cfg.IndexBase+1, pages, pagination.WindowWidth) {
			v.Window = append(v.Window, n-1+c.cfg.IndexBase)
		}
	}
	if v.Total > 0 && c.cfg.Name != "" {
		v.RangeLabel = v.Range.Label(c.cfg.Name)
	}
	return v
}

func (c *Controller[R, I]) validate(r R) error {
	if c.cfg.Validate == nil {
		return nil
	}
	err := c.cfg.Validate(r)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	c.mu.Lock()
	if errors.As(err, &ve) {
		c.err = ve.Message
	} else {
		c.err = err.Error()
	}
	c.mu.Unlock()
	return err
}

// next issues a new sequence number. Callers hold c.mu.
func (c *Controller[R, I]) next() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller[R, I]) discard(op string, seq uint64) {
	c.logger.Debug().
		Str("op", op).
		Uint64("seq", seq).
		Uint64("latest", c.seq).
		Msg("discarding stale response")
}

// retained finds id in the point lookup first, then in the collection.
// A looked-up record may sit past the load cap.
func (c *Controller[R, I]) retained(id I) (R, bool) {
	if c.lookup != nil && c.cfg.IDOf(*c.lookup) == id {
		return *c.lookup, true
	}
	return c.find(id)
}

func (c *Controller[R, I]) find(id I) (R, bool) {
	for _, r := range c.full {
		if c.cfg.IDOf(r) == id {
			return r, true
		}
	}
	var zero R
	return zero, false
}

func (c *Controller[R, I]) pageSource() []R {
	if c.cfg.Search != SearchFilter || c.query == "" || c.cfg.Match == nil {
		return c.full
	}
	out := make([]R, 0, len(c.full))
	for _, r := range c.full {
		if c.cfg.Match(r, c.query) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller[R, I]) totalPages() int {
	return pagination.TotalPages(len(c.pageSource()), c.cfg.PageSize)
}

func (c *Controller[R, I]) clamp(page int) int {
	return pagination.Clamp(page, c.cfg.IndexBase, c.totalPages())
}
