package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/crmterm/internal/model"
)

// ListBids returns one server-side page of bids.
func (c *Client) ListBids(ctx context.Context, opts ListOptions) (*model.Page[model.Bid], error) {
	var page model.Page[model.Bid]
	if err := c.get(ctx, "/bids", opts.Values(), &page); err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	return &page, nil
}

// GetBid fetches a single bid by ID.
func (c *Client) GetBid(ctx context.Context, id int64) (*model.Bid, error) {
	var bid model.Bid
	if err := c.get(ctx, fmt.Sprintf("/bids/%d", id), nil, &bid); err != nil {
		return nil, fmt.Errorf("getting bid %d: %w", id, err)
	}
	return &bid, nil
}

// CreateBid creates a bid and returns the stored record.
func (c *Client) CreateBid(ctx context.Context, in model.BidInput) (*model.Bid, error) {
	var bid model.Bid
	if err := c.post(ctx, "/bids", in, &bid); err != nil {
		return nil, fmt.Errorf("creating bid: %w", err)
	}
	return &bid, nil
}

// CreateBids creates several bids in one request, one per client object.
func (c *Client) CreateBids(ctx context.Context, in []model.BidInput) ([]model.Bid, error) {
	var out list[model.Bid]
	if err := c.post(ctx, "/bids/batch", map[string]any{"bids": in}, &out); err != nil {
		return nil, fmt.Errorf("creating %d bids: %w", len(in), err)
	}
	return out, nil
}

// UpdateBid replaces the editable fields of a bid.
func (c *Client) UpdateBid(ctx context.Context, id int64, in model.BidInput) (*model.Bid, error) {
	var bid model.Bid
	if err := c.put(ctx, fmt.Sprintf("/bids/%d", id), in, &bid); err != nil {
		return nil, fmt.Errorf("updating bid %d: %w", id, err)
	}
	return &bid, nil
}

// DeleteBid removes a bid.
func (c *Client) DeleteBid(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/bids/%d", id)); err != nil {
		return fmt.Errorf("deleting bid %d: %w", id, err)
	}
	return nil
}

// LatestBid returns the most recently created bid. ok is false when the
// server has no bids at all.
func (c *Client) LatestBid(ctx context.Context) (summary model.BidSummary, ok bool, err error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", "1")
	q.Set("sortBy", "createdAt")
	q.Set("sortOrder", SortDesc)

	var page model.Page[model.BidSummary]
	if err := c.get(ctx, "/bids", q, &page); err != nil {
		return model.BidSummary{}, false, fmt.Errorf("fetching latest bid: %w", err)
	}
	if len(page.Data) == 0 {
		return model.BidSummary{}, false, nil
	}
	return page.Data[0], true, nil
}

// ListBidTypes returns the bid types with their SLA defaults and workflows.
func (c *Client) ListBidTypes(ctx context.Context) ([]model.BidType, error) {
	var out list[model.BidType]
	if err := c.get(ctx, "/bid-types", nil, &out); err != nil {
		return nil, fmt.Errorf("listing bid types: %w", err)
	}
	return out, nil
}
