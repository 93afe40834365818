package model

import (
	"math"
	"time"
)

// Contract is an equipment installation under a service agreement,
// created from a closed bid.
type Contract struct {
	ID              int64      `json:"id"`
	BidNumber       int64      `json:"bidNumber"`
	ClientName      string     `json:"clientName"`
	ResponsibleName string     `json:"responsibleName"`
	ClientObject    string     `json:"clientObject"`
	EquipmentName   string     `json:"equipmentName"`
	IMEI            string     `json:"imei"`
	Quantity        int        `json:"quantity"`
	ContractEndDate *time.Time `json:"contractEndDate,omitempty"`
}

// RemainingDays returns the whole days left until the contract ends,
// negative once it has expired. ok is false when no end date is set.
func (c Contract) RemainingDays(now time.Time) (days int, ok bool) {
	if c.ContractEndDate == nil {
		return 0, false
	}
	d := c.ContractEndDate.Sub(now).Hours() / 24
	return int(math.Ceil(d)), true
}
