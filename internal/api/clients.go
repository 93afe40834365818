package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/crmterm/internal/model"
)

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]model.Client, error) {
	var out list[model.Client]
	if err := c.get(ctx, "/clients", nil, &out); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return out, nil
}

// GetClient fetches a client by ID.
func (c *Client) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	var out model.Client
	if err := c.get(ctx, fmt.Sprintf("/clients/%d", id), nil, &out); err != nil {
		return nil, fmt.Errorf("getting client %d: %w", id, err)
	}
	return &out, nil
}

// CreateClient creates a client.
func (c *Client) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	var out model.Client
	if err := c.post(ctx, "/clients", in, &out); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return &out, nil
}

// UpdateClient updates a client.
func (c *Client) UpdateClient(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error) {
	var out model.Client
	if err := c.put(ctx, fmt.Sprintf("/clients/%d", id), in, &out); err != nil {
		return nil, fmt.Errorf("updating client %d: %w", id, err)
	}
	return &out, nil
}

// DeleteClient removes a client.
func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/clients/%d", id)); err != nil {
		return fmt.Errorf("deleting client %d: %w", id, err)
	}
	return nil
}

// ListClientObjects returns service objects, limited to one client when
// clientID is non-zero.
func (c *Client) ListClientObjects(ctx context.Context, clientID int64) ([]model.ClientObject, error) {
	var q url.Values
	if clientID > 0 {
		q = url.Values{"clientId": {strconv.FormatInt(clientID, 10)}}
	}
	var out list[model.ClientObject]
	if err := c.get(ctx, "/client-objects", q, &out); err != nil {
		return nil, fmt.Errorf("listing client objects: %w", err)
	}
	return out, nil
}

// CreateClientObject creates a service object.
func (c *Client) CreateClientObject(ctx context.Context, in model.ClientObjectInput) (*model.ClientObject, error) {
	var out model.ClientObject
	if err := c.post(ctx, "/client-objects", in, &out); err != nil {
		return nil, fmt.Errorf("creating client object: %w", err)
	}
	return &out, nil
}

// UpdateClientObject updates a service object.
func (c *Client) UpdateClientObject(ctx context.Context, id int64, in model.ClientObjectInput) (*model.ClientObject, error) {
	var out model.ClientObject
	if err := c.put(ctx, fmt.Sprintf("/client-objects/%d", id), in, &out); err != nil {
		return nil, fmt.Errorf("updating client object %d: %w", id, err)
	}
	return &out, nil
}

// DeleteClientObject removes a service object.
func (c *Client) DeleteClientObject(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/client-objects/%d", id)); err != nil {
		return fmt.Errorf("deleting client object %d: %w", id, err)
	}
	return nil
}
