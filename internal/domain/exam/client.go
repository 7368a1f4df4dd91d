package exam

import (
	"context"
	"strings"
	"time"

	"github.com/clinica/dashboard/internal/platform/fixture"
	"github.com/clinica/dashboard/internal/platform/listing"
	"github.com/clinica/dashboard/internal/platform/resource"
)

const (
	ListPath   = "/api/examenes"
	ItemPath   = "/api/examenes/{id}"
	CreatePath = "/api/examenes"

	// fallbackIDPrefix marks identifiers assigned to writes kept locally.
	fallbackIDPrefix = "mock"
)

const (
	MsgRequired   = "Por favor complete los campos obligatorios: ID del paciente y tipo de examen"
	MsgLoad       = "No se pudieron cargar los exámenes. Por favor, intente nuevamente."
	MsgMiss       = "No se pudo encontrar el examen con ese ID. Por favor, intente nuevamente."
	MsgNotUpdated = "Error al actualizar el examen. Por favor, intente nuevamente."
	MsgNotLoaded  = "No se pudo cargar el examen para editar. Por favor, intente nuevamente."
)

// Client talks to the exams backend, the only one with full CRUD.
type Client struct {
	rc  *resource.Client[Exam, ID]
	now func() time.Time
}

// NewClient creates an exams client falling back to store. now dates new
// exams and seeds fallback identifiers; nil means time.Now.
func NewClient(req *resource.Requester, store *fixture.Store[Exam, ID], now func() time.Time) *Client {
	if now == nil {
		now = time.Now
	}
	return &Client{
		rc: resource.NewClient(req, resource.Endpoints{List: ListPath, Item: ItemPath, Create: CreatePath}, store, resource.Identity[Exam, ID]{
			Of:     func(e Exam) ID { return e.ID },
			With:   func(e Exam, id ID) Exam { e.ID = id; return e },
			New:    resource.TimestampID[ID](fallbackIDPrefix, now),
			Format: ID.String,
		}),
		now: now,
	}
}

func (c *Client) List(ctx context.Context, limit int) ([]Exam, resource.Origin) {
	return c.rc.List(ctx, limit)
}

func (c *Client) GetByID(ctx context.Context, id ID) (Exam, bool, resource.Origin) {
	return c.rc.GetByID(ctx, id)
}

// Create fills the creation defaults before sending draft.
func (c *Client) Create(ctx context.Context, draft Exam) (Exam, resource.Origin) {
	draft.ID = ""
	return c.rc.Create(ctx, WithDefaults(draft, c.now()))
}

func (c *Client) Update(ctx context.Context, id ID, patch resource.Patch[Exam]) (Exam, bool, resource.Origin) {
	return c.rc.Update(ctx, id, patch)
}

func (c *Client) Delete(ctx context.Context, id ID) bool {
	return c.rc.Delete(ctx, id)
}

// Store exposes the fallback dataset.
func (c *Client) Store() *fixture.Store[Exam, ID] {
	return c.rc.Store()
}

// Validate checks the creation and edit forms.
func Validate(e Exam) error {
	if strings.TrimSpace(e.PatientID) == "" || strings.TrimSpace(e.Type) == "" {
		return listing.NewValidationError(MsgRequired)
	}
	if e.Status != "" && !e.Status.Valid() {
		return listing.NewValidationError("Estado de examen no válido: " + string(e.Status))
	}
	return nil
}

// ListConfig is the exams view: ten per page counted from one, newest
// first, lookups by id that hide the list on a miss.
func ListConfig(loadCap int) listing.Config[Exam, ID] {
	return listing.Config[Exam, ID]{
		Name:         "exámenes",
		PageSize:     10,
		IndexBase:    1,
		Insert:       listing.InsertHead,
		LoadCap:      loadCap,
		Search:       listing.SearchLookup,
		Miss:         listing.MissEmptyVisible,
		OnEmptyQuery: listing.EmptyReloads,
		ParseID:      ParseID,
		IDOf:         func(e Exam) ID { return e.ID },
		Validate:     Validate,
		Messages: listing.Messages{
			Load:       MsgLoad,
			Miss:       func(string) string { return MsgMiss },
			NotUpdated: MsgNotUpdated,
		},
	}
}
