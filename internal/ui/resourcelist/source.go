package resourcelist

import (
	"context"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/model"
)

// Source fetches rows for a view. Server-paged sources receive the page,
// sort, search and filters in opts and return one page; the others ignore
// opts and return every row for client-side paging.
type Source struct {
	ServerPaged bool
	Fetch       func(ctx context.Context, opts api.ListOptions) ([]model.Row, model.Pagination, error)
}

// rows converts a typed slice into Rows.
func rows[T model.Row](in []T) []model.Row {
	out := make([]model.Row, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

// BidSource pages bids on the server.
func BidSource(c *api.Client) Source {
	return Source{
		ServerPaged: true,
		Fetch: func(ctx context.Context, opts api.ListOptions) ([]model.Row, model.Pagination, error) {
			page, err := c.ListBids(ctx, opts)
			if err != nil {
				return nil, model.Pagination{}, err
			}
			return rows(page.Data), page.Pagination, nil
		},
	}
}

// ContractSource pages contracts on the server.
func ContractSource(c *api.Client) Source {
	return Source{
		ServerPaged: true,
		Fetch: func(ctx context.Context, opts api.ListOptions) ([]model.Row, model.Pagination, error) {
			page, err := c.ListContracts(ctx, opts)
			if err != nil {
				return nil, model.Pagination{}, err
			}
			return rows(page.Data), page.Pagination, nil
		},
	}
}

// ObjectSource loads every client object.
func ObjectSource(c *api.Client) Source {
	return Source{
		Fetch: func(ctx context.Context, _ api.ListOptions) ([]model.Row, model.Pagination, error) {
			objs, err := c.ListClientObjects(ctx, 0)
			if err != nil {
				return nil, model.Pagination{}, err
			}
			return rows(objs), model.Pagination{}, nil
		},
	}
}

// EquipmentSource loads the whole equipment catalog.
func EquipmentSource(c *api.Client) Source {
	return Source{
		Fetch: func(ctx context.Context, _ api.ListOptions) ([]model.Row, model.Pagination, error) {
			items, err := c.ListEquipment(ctx)
			if err != nil {
				return nil, model.Pagination{}, err
			}
			return rows(items), model.Pagination{}, nil
		},
	}
}
