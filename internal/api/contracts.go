package api

import (
	"context"
	"fmt"

	"github.com/nhle/crmterm/internal/model"
)

// ListContracts returns one server-side page of contracts.
func (c *Client) ListContracts(ctx context.Context, opts ListOptions) (*model.Page[model.Contract], error) {
	var page model.Page[model.Contract]
	if err := c.get(ctx, "/contracts", opts.Values(), &page); err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	return &page, nil
}

// GetContract fetches a single contract.
func (c *Client) GetContract(ctx context.Context, id int64) (*model.Contract, error) {
	var out model.Contract
	if err := c.get(ctx, fmt.Sprintf("/contracts/%d", id), nil, &out); err != nil {
		return nil, fmt.Errorf("getting contract %d: %w", id, err)
	}
	return &out, nil
}
