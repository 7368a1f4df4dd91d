package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/clinica/dashboard/internal/platform/fixture"
	"github.com/clinica/dashboard/internal/platform/resource"
)

const ItemPath = "/resumen/{kind}/{id}"

// MissMessage is shown when a summary lookup finds nothing.
func MissMessage(kind Kind) string {
	return "No se encontró el " + string(kind) + " con el ID proporcionado"
}

// Client reads visit-history summaries.
type Client struct {
	req   *resource.Requester
	store *fixture.Store[Summary, Key]
}

// NewClient creates a summaries client falling back to store.
func NewClient(req *resource.Requester, store *fixture.Store[Summary, Key]) *Client {
	return &Client{req: req, store: store}
}

// Get resolves one summary. When the upstream fails only (kind, DemoID)
// is answered from the fixtures.
func (c *Client) Get(ctx context.Context, kind Kind, id int) (Summary, bool, resource.Origin) {
	s, call, requestID, err := c.fetch(ctx, kind, id)
	if err != nil {
		c.req.Fallback(call, requestID, err)
		s, ok := c.store.Find(Key{Kind: kind, ID: id})
		return s, ok, resource.Fixture
	}
	return s, true, resource.Remote
}

// Orchestrate looks up every id concurrently against the upstream only.
// Results keep the order of ids; failed lookups are dropped.
func (c *Client) Orchestrate(ctx context.Context, kind Kind, ids []int) []Summary {
	results := make([]*Summary, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			s, call, requestID, err := c.fetch(gctx, kind, id)
			if err != nil {
				c.req.Failure(call, requestID, err)
				return nil
			}
			results[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Summary, 0, len(ids))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (c *Client) fetch(ctx context.Context, kind Kind, id int) (Summary, resource.Call, string, error) {
	call := resource.Call{
		Op:     "get",
		Method: http.MethodGet,
		Path:   ItemPath,
		Params: map[string]string{"kind": string(kind), "id": strconv.Itoa(id)},
	}

	var body json.RawMessage
	requestID, err := c.req.Do(ctx, call, &body)
	if err != nil {
		return Summary{}, call, requestID, err
	}
	s, err := Decode(kind, body)
	if err != nil {
		return Summary{}, call, requestID, &resource.DecodeError{Path: ItemPath, Err: err}
	}
	return s, call, requestID, nil
}

// Store exposes the fallback dataset.
func (c *Client) Store() *fixture.Store[Summary, Key] {
	return c.store
}
