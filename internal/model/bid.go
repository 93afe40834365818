package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bid is a service request tracked by the CRM backend.
type Bid struct {
	// ID is the server-assigned bid number.
	ID int64 `json:"id"`

	// Tema is the short subject line of the request.
	Tema string `json:"tema"`

	// ClientID references the client that raised the request.
	ClientID int64 `json:"clientId"`

	// ClientName is the denormalized client display name.
	ClientName string `json:"clientName"`

	// ClientObjectID references the serviced vehicle or unit, if any.
	ClientObjectID *int64 `json:"clientObjectId,omitempty"`

	// ClientObject is the expanded service object returned by list endpoints.
	ClientObject *ClientObject `json:"clientObject,omitempty"`

	// BidTypeID references the bid type that drives SLA defaults.
	BidTypeID *int64 `json:"bidTypeId,omitempty"`

	// Status is the workflow status name computed by the server.
	Status string `json:"status"`

	// Description is the free-form body of the request.
	Description string `json:"description"`

	// CreatorName is the display name of the user who created the bid.
	CreatorName string `json:"creatorName"`

	// ResponsibleName is the display name of the assigned engineer.
	ResponsibleName string `json:"responsibleName,omitempty"`

	// ParentID links a follow-up bid to the bid it was spawned from.
	ParentID *int64 `json:"parentId,omitempty"`

	PlannedResolutionDate      *time.Time `json:"plannedResolutionDate,omitempty"`
	PlannedReactionTimeMinutes *int       `json:"plannedReactionTimeMinutes,omitempty"`
	PlannedDurationMinutes     *int       `json:"plannedDurationMinutes,omitempty"`
	AssignedAt                 *time.Time `json:"assignedAt,omitempty"`
	SpentTimeHours             *float64   `json:"spentTimeHours,omitempty"`

	// RemainingTime is the server-rendered SLA countdown.
	RemainingTime string `json:"remainingTime,omitempty"`

	// UpdNumber is the accounting document number attached on close.
	UpdNumber string `json:"updNumber,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary projects the bid onto the fields shown in a notification.
func (b Bid) Summary() BidSummary {
	return BidSummary{
		ID:         b.ID,
		Title:      b.Tema,
		Status:     b.Status,
		ClientName: b.ClientName,
		CreatedAt:  b.CreatedAt,
	}
}

// BidInput is the payload for creating or updating a bid.
type BidInput struct {
	Tema                       string     `json:"tema"`
	ClientID                   int64      `json:"clientId"`
	ClientObjectID             *int64     `json:"clientObjectId,omitempty"`
	BidTypeID                  *int64     `json:"bidTypeId,omitempty"`
	Description                string     `json:"description"`
	ParentID                   *int64     `json:"parentId,omitempty"`
	PlannedResolutionDate      *time.Time `json:"plannedResolutionDate,omitempty"`
	PlannedReactionTimeMinutes *int       `json:"plannedReactionTimeMinutes,omitempty"`
	PlannedDurationMinutes     *int       `json:"plannedDurationMinutes,omitempty"`
}

// BidType describes a category of bid with SLA defaults and its workflow.
type BidType struct {
	ID                         int64       `json:"id"`
	Name                       string      `json:"name"`
	PlannedReactionTimeMinutes *int        `json:"plannedReactionTimeMinutes,omitempty"`
	PlannedDurationMinutes     *int        `json:"plannedDurationMinutes,omitempty"`
	Statuses                   []BidStatus `json:"statuses,omitempty"`
}

// BidStatus is one step of a bid type workflow.
type BidStatus struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// BidSummary is the read-only projection of a bid carried by notifications.
// The client only keeps it for display.
type BidSummary struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status,omitempty"`
	ClientName string    `json:"clientName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts either "title" or the legacy "tema" field for the
// subject. The id may arrive as a number or a numeric string.
func (b *BidSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Title      string          `json:"title"`
		Tema       string          `json:"tema"`
		Status     json.RawMessage `json:"status"`
		ClientName string          `json:"clientName"`
		CreatedAt  *time.Time      `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := parseID(raw.ID)
	if err != nil {
		return err
	}

	out := BidSummary{
		ID:         id,
		Title:      raw.Title,
		Status:     parseStatus(raw.Status),
		ClientName: raw.ClientName,
	}
	if out.Title == "" {
		out.Title = raw.Tema
	}
	if raw.CreatedAt != nil {
		out.CreatedAt = *raw.CreatedAt
	}

	*b = out
	return nil
}

// Valid reports whether the summary carries an identifiable bid.
func (b BidSummary) Valid() bool {
	return b.ID > 0
}

func parseID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("decoding bid id %s: %w", string(raw), err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding bid id %q: %w", s, err)
	}
	return n, nil
}

// parseStatus accepts a plain status name or a {"name": ...} object.
func parseStatus(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}
