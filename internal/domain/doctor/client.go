package doctor

import (
	"context"
	"strings"

	"github.com/clinica/dashboard/internal/platform/fixture"
	"github.com/clinica/dashboard/internal/platform/listing"
	"github.com/clinica/dashboard/internal/platform/resource"
)

const (
	ListPath = "/medicos"
	// CreatePath is singular on the deployed backend.
	CreatePath = "/medico"

	fallbackIDRange = 1000
)

const (
	MsgRequired = "Por favor complete los campos obligatorios: nombre, apellido y especialidad"
	MsgLoad     = "No se pudieron cargar los médicos. Por favor, intente nuevamente."
)

// Client talks to the doctors backend. Doctors are immutable once created.
type Client struct {
	rc *resource.Client[Doctor, ID]
}

// NewClient creates a doctors client falling back to store.
func NewClient(req *resource.Requester, store *fixture.Store[Doctor, ID]) *Client {
	return &Client{
		rc: resource.NewClient(req, resource.Endpoints{List: ListPath, Create: CreatePath}, store, resource.Identity[Doctor, ID]{
			Of:     func(d Doctor) ID { return d.ID },
			With:   func(d Doctor, id ID) Doctor { d.ID = id; return d },
			New:    resource.RandomIntID[ID](fallbackIDRange),
			Format: ID.String,
		}),
	}
}

func (c *Client) List(ctx context.Context, limit int) ([]Doctor, resource.Origin) {
	return c.rc.List(ctx, limit)
}

func (c *Client) GetByID(ctx context.Context, id ID) (Doctor, bool, resource.Origin) {
	return c.rc.GetByID(ctx, id)
}

func (c *Client) Create(ctx context.Context, draft Doctor) (Doctor, resource.Origin) {
	draft.ID = 0
	return c.rc.Create(ctx, draft)
}

// Store exposes the fallback dataset.
func (c *Client) Store() *fixture.Store[Doctor, ID] {
	return c.rc.Store()
}

// Validate checks the creation form.
func Validate(d Doctor) error {
	if strings.TrimSpace(d.FirstName) == "" ||
		strings.TrimSpace(d.LastName) == "" ||
		strings.TrimSpace(d.Specialty) == "" {
		return listing.NewValidationError(MsgRequired)
	}
	return nil
}

// ListConfig is the doctors view: a substring filter over name, last name
// and specialty, pages counted from zero.
func ListConfig() listing.Config[Doctor, ID] {
	return listing.Config[Doctor, ID]{
		Name:      "médicos",
		PageSize:  10,
		IndexBase: 0,
		Insert:    listing.InsertTail,
		Search:    listing.SearchFilter,
		Match:     Matches,
		IDOf:      func(d Doctor) ID { return d.ID },
		Validate:  Validate,
		Messages:  listing.Messages{Load: MsgLoad},
	}
}
