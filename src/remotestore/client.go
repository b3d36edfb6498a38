// Package remotestore talks to the spreadsheet-backed persistence service:
// a single web-app endpoint that dispatches on an "accion" form field.
package remotestore

import (
	"context"

	"github.com/username/debtfolio/src/models"
)

// Actions understood by the remote endpoint.
const (
	actionSaveContract   = "guardarContrato"
	actionUpdateContract = "actualizarContrato"
	actionSaveHistory    = "guardarHistorial"
	actionGetHistory     = "obtenerHistorial"
	actionGetDetail      = "obtenerDetallesContrato"
)

// Client is the abstraction over the remote store. Every method maps onto
// exactly one wire-level request. Failures are normalized into the domain
// error taxonomy: *models.NetworkError for transport problems,
// models.ErrNotFound for unknown folios, *models.ValidationError for
// server-reported errors and *models.ReferenceDataError for reference-list
// loads.
type Client interface {
	// FetchReferenceLists retrieves the catalog of valid entities and
	// product types.
	FetchReferenceLists(ctx context.Context) (*models.ReferenceLists, error)

	// CreatePlan persists a new plan, lines included.
	CreatePlan(ctx context.Context, plan *models.Plan) error

	// UpdatePlan overwrites the plan stored under plan.Folio.
	// Returns models.ErrNotFound when the folio is unknown.
	UpdatePlan(ctx context.Context, plan *models.Plan) error

	// AppendHistory appends a summary row to the append-only history log.
	AppendHistory(ctx context.Context, record models.HistoryRecord) error

	// FetchHistory lists all history rows in store order.
	FetchHistory(ctx context.Context) ([]models.HistoryRecord, error)

	// FetchPlanDetail retrieves a stored plan with its lines by folio.
	// Returns models.ErrNotFound when the folio is unknown.
	FetchPlanDetail(ctx context.Context, folio string) (*models.Plan, error)
}
