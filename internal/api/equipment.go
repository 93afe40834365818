package api

import (
	"context"
	"fmt"

	"github.com/nhle/crmterm/internal/model"
)

// ListEquipment returns the whole equipment catalog.
func (c *Client) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	var out list[model.Equipment]
	if err := c.get(ctx, "/equipment", nil, &out); err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	return out, nil
}

// CreateEquipment adds a catalog entry.
func (c *Client) CreateEquipment(ctx context.Context, in model.EquipmentInput) (*model.Equipment, error) {
	var out model.Equipment
	if err := c.post(ctx, "/equipment", in, &out); err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}
	return &out, nil
}

// UpdateEquipment updates a catalog entry.
func (c *Client) UpdateEquipment(ctx context.Context, id int64, in model.EquipmentInput) (*model.Equipment, error) {
	var out model.Equipment
	if err := c.put(ctx, fmt.Sprintf("/equipment/%d", id), in, &out); err != nil {
		return nil, fmt.Errorf("updating equipment %d: %w", id, err)
	}
	return &out, nil
}

// DeleteEquipment removes a catalog entry.
func (c *Client) DeleteEquipment(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/equipment/%d", id)); err != nil {
		return fmt.Errorf("deleting equipment %d: %w", id, err)
	}
	return nil
}
