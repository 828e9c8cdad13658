package compensation

import "context"

type StoreAPI interface {
	Count(ctx context.Context, tenantID string, filter Filter) (int, error)
	List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Record, error)
	ListForProject(ctx context.Context, tenantID, projectID string) ([]Record, error)
	Create(ctx context.Context, tenantID string, record Record) (Record, error)
}
