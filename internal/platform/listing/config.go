package listing

import (
	"context"

	"github.com/clinica/dashboard/internal/platform/resource"
)

// InsertPosition is where a newly created record lands in the collection.
type InsertPosition int

const (
	InsertTail InsertPosition = iota
	InsertHead
)

// SearchMode selects how a query narrows the view.
type SearchMode int

const (
	// SearchDisabled ignores queries.
	SearchDisabled SearchMode = iota
	// SearchFilter narrows the retained collection with Config.Match
	// without touching the upstream.
	SearchFilter
	// SearchLookup resolves the query as an identifier through the
	// source and shows the single match.
	SearchLookup
)

// MissPolicy decides what a failed point lookup leaves on screen.
type MissPolicy int

const (
	// MissKeepCollection keeps showing the paged collection.
	MissKeepCollection MissPolicy = iota
	// MissEmptyVisible hides every record until the search is reset.
	MissEmptyVisible
)

// EmptyQueryPolicy decides what submitting an empty lookup does.
type EmptyQueryPolicy int

const (
	// EmptyClearsLookup drops the current match.
	EmptyClearsLookup EmptyQueryPolicy = iota
	// EmptyReloads refetches the whole collection.
	EmptyReloads
)

// Messages are the user-facing error strings of one view.
type Messages struct {
	Load       string
	Miss       func(query string) string
	NotUpdated string
}

// Config holds the per-view parameters of a Controller.
type Config[R any, I comparable] struct {
	Name      string
	PageSize  int
	IndexBase int
	Insert    InsertPosition
	// LoadCap bounds the initial fetch; zero means unbounded.
	LoadCap int

	Search       SearchMode
	Miss         MissPolicy
	OnEmptyQuery EmptyQueryPolicy
	Match        func(r R, query string) bool
	ParseID      func(query string) (I, error)

	IDOf     func(R) I
	Validate func(R) error
	Messages Messages
}

// Source is the read side of a Resource Client.
type Source[R any, I comparable] interface {
	List(ctx context.Context, limit int) ([]R, resource.Origin)
	GetByID(ctx context.Context, id I) (R, bool, resource.Origin)
}

// Creator is implemented by sources that accept new records.
type Creator[R any] interface {
	Create(ctx context.Context, draft R) (R, resource.Origin)
}

// Updater is implemented by sources that accept partial updates.
type Updater[R any, I comparable] interface {
	Update(ctx context.Context, id I, patch resource.Patch[R]) (R, bool, resource.Origin)
}

// Deleter is implemented by sources that delete records.
type Deleter[I comparable] interface {
	Delete(ctx context.Context, id I) bool
}
