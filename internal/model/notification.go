package model

import "time"

// Notification is a server-side inbox entry for the current user.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID int64 `json:"id"`

	// BidID links this notification to the originating bid, if any.
	BidID *int64 `json:"bidId,omitempty"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"createdAt"`
}

// EventKind tags a real-time notification event.
type EventKind string

// EventNewBid is the only kind the server currently produces.
const EventNewBid EventKind = "NewBid"

// NotificationEvent is a real-time event delivered by the notification
// channel, either pushed by the server or discovered by polling.
type NotificationEvent struct {
	Kind EventKind
	Bid  BidSummary
}
