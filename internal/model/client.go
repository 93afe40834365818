package model

import "time"

// Client is a customer organization or person served under contract.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClientInput is the payload for creating or updating a client.
type ClientInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// ClientObject is a vehicle or unit of equipment a client has under service.
type ClientObject struct {
	// ID is the server-assigned object identifier.
	ID int64 `json:"id"`

	// ClientID references the owning client.
	ClientID int64 `json:"clientId"`

	// ClientName is the denormalized owner name.
	ClientName string `json:"clientName,omitempty"`

	// BrandModel is the make and model, e.g. "Volvo FH16".
	BrandModel string `json:"brandModel"`

	// StateNumber is the registration plate, if the object has one.
	StateNumber string `json:"stateNumber,omitempty"`

	// ResponsibleID references the engineer responsible for the object.
	ResponsibleID *int64 `json:"responsibleId,omitempty"`

	// ResponsibleName is the denormalized engineer name.
	ResponsibleName string `json:"responsibleName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Label renders the object the way the bid table shows it.
func (o ClientObject) Label() string {
	if o.StateNumber == "" {
		return o.BrandModel
	}
	return o.BrandModel + " (" + o.StateNumber + ")"
}

// ClientObjectInput is the payload for creating or updating a client object.
type ClientObjectInput struct {
	ClientID      int64  `json:"clientId"`
	BrandModel    string `json:"brandModel"`
	StateNumber   string `json:"stateNumber,omitempty"`
	ResponsibleID *int64 `json:"responsibleId,omitempty"`
}
