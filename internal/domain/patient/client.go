package patient

import (
	"context"

	"github.com/clinica/dashboard/internal/platform/fixture"
	"github.com/clinica/dashboard/internal/platform/resource"
)

const (
	ListPath   = "/pacientes"
	CreatePath = "/pacientes"

	// fallbackIDRange bounds identifiers assigned to writes kept locally.
	fallbackIDRange = 1000
)

// Client talks to the patients backend. Patients are never updated or
// deleted from the dashboard, so only reads and creation are exposed.
type Client struct {
	rc *resource.Client[Patient, ID]
}

// NewClient creates a patients client falling back to store.
func NewClient(req *resource.Requester, store *fixture.Store[Patient, ID]) *Client {
	return &Client{
		rc: resource.NewClient(req, resource.Endpoints{List: ListPath, Create: CreatePath}, store, resource.Identity[Patient, ID]{
			Of:     func(p Patient) ID { return p.ID },
			With:   func(p Patient, id ID) Patient { p.ID = id; return p },
			New:    resource.RandomIntID[ID](fallbackIDRange),
			Format: ID.String,
		}),
	}
}

func (c *Client) List(ctx context.Context, limit int) ([]Patient, resource.Origin) {
	return c.rc.List(ctx, limit)
}

// GetByID searches the remote list, since the backend has no per-patient
// endpoint.
func (c *Client) GetByID(ctx context.Context, id ID) (Patient, bool, resource.Origin) {
	return c.rc.GetByID(ctx, id)
}

func (c *Client) Create(ctx context.Context, draft Patient) (Patient, resource.Origin) {
	draft.ID = 0
	return c.rc.Create(ctx, draft)
}

// Store exposes the fallback dataset.
func (c *Client) Store() *fixture.Store[Patient, ID] {
	return c.rc.Store()
}
