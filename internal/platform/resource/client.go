// Package resource implements the HTTP clients for the clinic backends.
// Every operation that fails upstream, whether on the wire or with a
// non-2xx status, is answered from a fixture store instead so reads never
// surface an error to the caller.
package resource

import (
	"context"
	"net/http"

	"github.com/clinica/dashboard/internal/platform/fixture"
)

// Origin tells the caller where a result came from.
type Origin string

const (
	Remote  Origin = "remote"
	Fixture Origin = "fixture"
)

// Offline reports whether the result was served from fixtures.
func (o Origin) Offline() bool { return o == Fixture }

// Endpoints are the paths of one resource relative to its base URL. Item
// must contain the {id} placeholder; an empty Item means the backend has
// no per-record endpoint.
type Endpoints struct {
	List   string
	Item   string
	Create string
}

// Patch is a partial update. It is sent as the PUT body and applied
// locally when the upstream is unavailable.
type Patch[R any] interface {
	Apply(R) R
}

// Identity tells the client how to read, assign and format identifiers.
type Identity[R any, I comparable] struct {
	Of     func(R) I
	With   func(R, I) R
	New    func(exists func(I) bool) I
	Format func(I) string
}

// Client is the generic Resource Client.
type Client[R any, I comparable] struct {
	req       *Requester
	endpoints Endpoints
	store     *fixture.Store[R, I]
	id        Identity[R, I]
}

// NewClient creates a client. store is the fallback dataset and is
// mutated by fallback writes.
func NewClient[R any, I comparable](req *Requester, endpoints Endpoints, store *fixture.Store[R, I], id Identity[R, I]) *Client[R, I] {
	return &Client[R, I]{
		req:       req,
		endpoints: endpoints,
		store:     store,
		id:        id,
	}
}

// Store exposes the fallback dataset.
func (c *Client[R, I]) Store() *fixture.Store[R, I] {
	return c.store
}

// List fetches the whole collection and truncates it to limit. A
// non-positive limit means no truncation.
func (c *Client[R, I]) List(ctx context.Context, limit int) ([]R, Origin) {
	call := Call{Op: "list", Method: http.MethodGet, Path: c.endpoints.List}

	var items []R
	requestID, err := c.req.Do(ctx, call, &items)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		return c.store.List(limit), Fixture
	}
	if items == nil {
		items = []R{}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, Remote
}

// GetByID looks up one record. Without an item endpoint the id is
// searched in the remote list.
func (c *Client[R, I]) GetByID(ctx context.Context, id I) (R, bool, Origin) {
	if c.endpoints.Item == "" {
		return c.findInList(ctx, id)
	}

	call := Call{Op: "get", Method: http.MethodGet, Path: c.endpoints.Item, ID: c.id.Format(id)}

	var rec R
	requestID, err := c.req.Do(ctx, call, &rec)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		r, ok := c.store.Find(id)
		return r, ok, Fixture
	}
	return rec, true, Remote
}

func (c *Client[R, I]) findInList(ctx context.Context, id I) (R, bool, Origin) {
	items, origin := c.List(ctx, 0)
	for _, r := range items {
		if c.id.Of(r) == id {
			return r, true, origin
		}
	}
	var zero R
	return zero, false, origin
}

// Create posts draft. On failure the draft is stored locally under a fresh
// identifier and returned as if it had been accepted.
func (c *Client[R, I]) Create(ctx context.Context, draft R) (R, Origin) {
	call := Call{Op: "create", Method: http.MethodPost, Path: c.endpoints.Create, Body: draft}

	var rec R
	requestID, err := c.req.Do(ctx, call, &rec)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		return c.store.AppendNew(draft, c.id.New, c.id.With), Fixture
	}
	return rec, Remote
}

// Update sends patch for id. On failure patch is merged over the matching
// fixture record in place.
func (c *Client[R, I]) Update(ctx context.Context, id I, patch Patch[R]) (R, bool, Origin) {
	call := Call{Op: "update", Method: http.MethodPut, Path: c.endpoints.Item, ID: c.id.Format(id), Body: patch}

	var rec R
	requestID, err := c.doItem(ctx, call, &rec)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		r, ok := c.store.Update(id, patch.Apply)
		return r, ok, Fixture
	}
	return rec, true, Remote
}

// Delete removes id upstream. The result is true only when the upstream
// confirmed the deletion; a fallback removal still reports false.
func (c *Client[R, I]) Delete(ctx context.Context, id I) bool {
	call := Call{Op: "delete", Method: http.MethodDelete, Path: c.endpoints.Item, ID: c.id.Format(id)}

	requestID, err := c.doItem(ctx, call, nil)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		c.store.Remove(id)
		return false
	}
	return true
}

func (c *Client[R, I]) doItem(ctx context.Context, call Call, out any) (string, error) {
	if c.endpoints.Item == "" {
		return "", errUnsupported
	}
	return c.req.Do(ctx, call, out)
}
