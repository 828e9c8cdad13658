package charges

import (
	"context"

	"regie/internal/domain/compensation"
)

type StoreAPI interface {
	Create(ctx context.Context, tenantID string, record Record) (Record, error)
	Get(ctx context.Context, tenantID, id string) (Record, error)
	Count(ctx context.Context, tenantID string, filter Filter) (int, error)
	List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Record, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]Record, error)
	// Delete returns the ids it actually removed.
	Delete(ctx context.Context, tenantID string, ids []string) ([]string, error)
	Totals(ctx context.Context, tenantID string, filter Filter) (Stats, error)
}

// RecordSource supplies the compensation records of a project.
type RecordSource interface {
	ListForProject(ctx context.Context, tenantID, projectID string) ([]compensation.Record, error)
}
