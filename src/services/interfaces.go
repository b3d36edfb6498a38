package services

import (
	"context"

	"github.com/username/debtfolio/src/models"
)

// ReferenceService owns the catalog of valid entities and product types.
// Lists never blocks the workflow on remote failures: it degrades to the last
// local snapshot, then to the built-in defaults.
type ReferenceService interface {
	// Lists returns the reference catalog, loading it lazily on first use.
	Lists(ctx context.Context) (*models.ReferenceLists, error)

	// Refresh drops the cached catalog and reloads it from the remote store.
	Refresh(ctx context.Context) (*models.ReferenceLists, error)
}

// HistoryService lists the append-only log of plan save events. The degraded
// flag is true when the records came from the local mirror because the remote
// store was unreachable.
type HistoryService interface {
	History(ctx context.Context) (records []models.HistoryRecord, degraded bool, err error)
}
