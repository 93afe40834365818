package model

import "time"

// Equipment is a nomenclature entry in the inventory catalog.
type Equipment struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ProductCode   string    `json:"productCode"`
	PurchasePrice float64   `json:"purchasePrice"`
	SellingPrice  float64   `json:"sellingPrice"`
	Description   string    `json:"description,omitempty"`
	Images        []string  `json:"images,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EquipmentInput is the payload for creating or updating equipment.
type EquipmentInput struct {
	Name          string  `json:"name"`
	ProductCode   string  `json:"productCode"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	Description   string  `json:"description,omitempty"`
}
