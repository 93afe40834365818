package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBidSummary_DecodeTema tests the legacy tema field fallback.
func TestBidSummary_DecodeTema(t *testing.T) {
	var b BidSummary
	err := json.Unmarshal([]byte(`{"id":42,"tema":"Pump repair","clientName":"Acme"}`), &b)
	require.NoError(t, err)

	assert.Equal(t, int64(42), b.ID)
	assert.Equal(t, "Pump repair", b.Title)
	assert.Equal(t, "Acme", b.ClientName)
	assert.True(t, b.CreatedAt.IsZero())
	assert.True(t, b.Valid())
}

// TestBidSummary_DecodeTitleWins tests that title takes precedence over tema.
func TestBidSummary_DecodeTitleWins(t *testing.T) {
	var b BidSummary
	err := json.Unmarshal([]byte(`{"id":"7","title":"New","tema":"Old","status":{"name":"Open"},"createdAt":"2026-01-02T03:04:05Z"}`), &b)
	require.NoError(t, err)

	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, "New", b.Title)
	assert.Equal(t, "Open", b.Status)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), b.CreatedAt.UTC())
}

// TestBidSummary_DecodeErrors tests payloads that must be rejected.
func TestBidSummary_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not an object", `"hello"`},
		{"id not numeric", `{"id":"abc"}`},
		{"id wrong type", `{"id":true}`},
		{"bad time", `{"id":1,"createdAt":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BidSummary
			assert.Error(t, json.Unmarshal([]byte(tt.in), &b))
		})
	}
}

// TestBidSummary_MissingIDIsInvalid tests that an empty payload decodes but is not valid.
func TestBidSummary_MissingIDIsInvalid(t *testing.T) {
	var b BidSummary
	require.NoError(t, json.Unmarshal([]byte(`{}`), &b))
	assert.False(t, b.Valid())
}

// TestBid_Summary tests projecting a full bid.
func TestBid_Summary(t *testing.T) {
	created := time.Now()
	b := Bid{ID: 3, Tema: "Install tracker", Status: "Open", ClientName: "Acme", CreatedAt: created}

	s := b.Summary()
	assert.Equal(t, BidSummary{ID: 3, Title: "Install tracker", Status: "Open", ClientName: "Acme", CreatedAt: created}, s)
}

// TestBid_Cell tests rendering of table cells.
func TestBid_Cell(t *testing.T) {
	mins := 90
	b := Bid{
		ID:                     12,
		Tema:                   "Calibrate",
		ClientObject:           &ClientObject{BrandModel: "Volvo FH", StateNumber: "A123BC"},
		PlannedDurationMinutes: &mins,
		UpdNumber:              "UPD-1",
	}

	assert.Equal(t, "12", b.Cell("id"))
	assert.Equal(t, "Calibrate", b.Cell("tema"))
	assert.Equal(t, "Volvo FH (A123BC)", b.Cell("clientObject"))
	assert.Equal(t, "90", b.Cell("plannedDurationMinutes"))
	assert.Equal(t, "", b.Cell("plannedReactionTimeMinutes"))
	assert.Equal(t, "UPD-1", b.Cell("upd"))
	assert.Equal(t, "", b.Cell("nope"))
}
