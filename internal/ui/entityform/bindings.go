package entityform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/crmterm/internal/model"
)

// bindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type bindings struct {
	// bid
	tema        string
	description string
	clientID    int64
	objectID    int64
	bidTypeID   int64
	reaction    string
	duration    string

	// client object
	brandModel    string
	stateNumber   string
	responsibleID int64

	// equipment
	name          string
	productCode   string
	purchasePrice string
	sellingPrice  string

	// client
	phone string
	email string
}

func (b *bindings) reset() {
	*b = bindings{}
}

func (b *bindings) loadBid(bid model.Bid) {
	b.reset()
	b.tema = bid.Tema
	b.description = bid.Description
	b.clientID = bid.ClientID
	if bid.ClientObjectID != nil {
		b.objectID = *bid.ClientObjectID
	}
	if bid.BidTypeID != nil {
		b.bidTypeID = *bid.BidTypeID
	}
	b.reaction = formatMinutes(bid.PlannedReactionTimeMinutes)
	b.duration = formatMinutes(bid.PlannedDurationMinutes)
}

func (b *bindings) loadObject(o model.ClientObject) {
	b.reset()
	b.clientID = o.ClientID
	b.brandModel = o.BrandModel
	b.stateNumber = o.StateNumber
	if o.ResponsibleID != nil {
		b.responsibleID = *o.ResponsibleID
	}
}

func (b *bindings) loadEquipment(e model.Equipment) {
	b.reset()
	b.name = e.Name
	b.productCode = e.ProductCode
	b.purchasePrice = strconv.FormatFloat(e.PurchasePrice, 'f', -1, 64)
	b.sellingPrice = strconv.FormatFloat(e.SellingPrice, 'f', -1, 64)
	b.description = e.Description
}

// bidInput builds the request body. Empty minute fields take the bid
// type's defaults.
func (b *bindings) bidInput(types []model.BidType) (model.BidInput, error) {
	in := model.BidInput{
		Tema:        strings.TrimSpace(b.tema),
		ClientID:    b.clientID,
		Description: strings.TrimSpace(b.description),
	}
	if in.Tema == "" {
		return in, fmt.Errorf("subject is required")
	}
	if in.ClientID <= 0 {
		return in, fmt.Errorf("client is required")
	}
	if b.objectID > 0 {
		in.ClientObjectID = ptr(b.objectID)
	}

	reaction, err := parseMinutes("reaction time", b.reaction)
	if err != nil {
		return in, err
	}
	duration, err := parseMinutes("duration", b.duration)
	if err != nil {
		return in, err
	}
	in.PlannedReactionTimeMinutes = reaction
	in.PlannedDurationMinutes = duration

	if b.bidTypeID > 0 {
		in.BidTypeID = ptr(b.bidTypeID)
		if bt, ok := findBidType(types, b.bidTypeID); ok {
			ApplyBidTypeDefaults(&in, bt)
		}
	}
	return in, nil
}

// ApplyBidTypeDefaults fills planned minutes the user left empty from bt.
func ApplyBidTypeDefaults(in *model.BidInput, bt model.BidType) {
	if in.PlannedReactionTimeMinutes == nil && bt.PlannedReactionTimeMinutes != nil {
		in.PlannedReactionTimeMinutes = ptr(*bt.PlannedReactionTimeMinutes)
	}
	if in.PlannedDurationMinutes == nil && bt.PlannedDurationMinutes != nil {
		in.PlannedDurationMinutes = ptr(*bt.PlannedDurationMinutes)
	}
}

func (b *bindings) objectInput() (model.ClientObjectInput, error) {
	in := model.ClientObjectInput{
		ClientID:    b.clientID,
		BrandModel:  strings.TrimSpace(b.brandModel),
		StateNumber: strings.ToUpper(strings.TrimSpace(b.stateNumber)),
	}
	if in.ClientID <= 0 {
		return in, fmt.Errorf("client is required")
	}
	if in.BrandModel == "" {
		return in, fmt.Errorf("brand/model is required")
	}
	if b.responsibleID > 0 {
		in.ResponsibleID = ptr(b.responsibleID)
	}
	return in, nil
}

func (b *bindings) equipmentInput() (model.EquipmentInput, error) {
	in := model.EquipmentInput{
		Name:        strings.TrimSpace(b.name),
		ProductCode: strings.TrimSpace(b.productCode),
		Description: strings.TrimSpace(b.description),
	}
	if in.Name == "" {
		return in, fmt.Errorf("name is required")
	}
	var err error
	if in.PurchasePrice, err = parsePrice("purchase price", b.purchasePrice); err != nil {
		return in, err
	}
	if in.SellingPrice, err = parsePrice("selling price", b.sellingPrice); err != nil {
		return in, err
	}
	return in, nil
}

func (b *bindings) clientInput() (model.ClientInput, error) {
	in := model.ClientInput{
		Name:  strings.TrimSpace(b.name),
		Phone: strings.TrimSpace(b.phone),
		Email: strings.TrimSpace(b.email),
	}
	if in.Name == "" {
		return in, fmt.Errorf("name is required")
	}
	return in, nil
}

func findBidType(types []model.BidType, id int64) (model.BidType, bool) {
	for _, bt := range types {
		if bt.ID == id {
			return bt, true
		}
	}
	return model.BidType{}, false
}

func formatMinutes(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func ptr[T any](v T) *T { return &v }
