package model

import (
	"strconv"
	"time"
)

// Row is the common interface for records displayed in a resource table.
// Bid, Contract, ClientObject and Equipment implement this interface.
type Row interface {
	RowID() int64
	// Cell renders the value of the named column. Unknown columns are empty.
	Cell(column string) string
}

// Column describes one table column of a resource view.
type Column struct {
	Key   string
	Title string
	Width int

	// Visible is the default visibility before any saved preference applies.
	Visible bool

	// Required columns can never be hidden or dropped from the order.
	Required bool
}

// Keys returns the column keys in declaration order.
func Keys(cols []Column) []string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}

// Lookup returns the column with the given key.
func Lookup(cols []Column, key string) (Column, bool) {
	for _, c := range cols {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// BidColumns lists every column of the bids table.
var BidColumns = []Column{
	{Key: "id", Title: "№", Width: 6, Visible: true, Required: true},
	{Key: "clientName", Title: "Client", Width: 18, Visible: true},
	{Key: "clientObject", Title: "Object", Width: 18, Visible: true},
	{Key: "tema", Title: "Subject", Width: 24, Visible: true},
	{Key: "creatorName", Title: "Creator", Width: 14, Visible: true},
	{Key: "status", Title: "Status", Width: 12, Visible: true, Required: true},
	{Key: "description", Title: "Description", Width: 24, Visible: true},
	{Key: "plannedResolutionDate", Title: "Resolve by", Width: 16},
	{Key: "plannedReactionTimeMinutes", Title: "Reaction, min", Width: 8},
	{Key: "assignedAt", Title: "Assigned", Width: 16},
	{Key: "plannedDurationMinutes", Title: "Duration, min", Width: 8},
	{Key: "spentTimeHours", Title: "Spent, h", Width: 8},
	{Key: "remainingTime", Title: "Remaining", Width: 10},
	{Key: "upd", Title: "UPD", Width: 10},
}

// ContractColumns lists every column of the contracts table.
var ContractColumns = []Column{
	{Key: "id", Title: "ID", Width: 6, Visible: true, Required: true},
	{Key: "bidNumber", Title: "Bid", Width: 6, Visible: true},
	{Key: "clientName", Title: "Client", Width: 18, Visible: true},
	{Key: "responsibleName", Title: "Responsible", Width: 14, Visible: true},
	{Key: "clientObject", Title: "Object", Width: 18, Visible: true},
	{Key: "equipmentName", Title: "Equipment", Width: 18, Visible: true},
	{Key: "imei", Title: "IMEI", Width: 16, Visible: true},
	{Key: "quantity", Title: "Qty", Width: 4, Visible: true},
	{Key: "contractEndDate", Title: "Ends", Width: 10, Visible: true},
	{Key: "remainingDays", Title: "Days left", Width: 9, Visible: true},
}

// ObjectColumns lists every column of the client objects table.
var ObjectColumns = []Column{
	{Key: "id", Title: "ID", Width: 6, Visible: true, Required: true},
	{Key: "client", Title: "Client", Width: 20, Visible: true},
	{Key: "brandModel", Title: "Brand/Model", Width: 20, Visible: true},
	{Key: "stateNumber", Title: "Plate", Width: 12, Visible: true},
	{Key: "responsible", Title: "Responsible", Width: 16, Visible: true},
}

// EquipmentColumns lists every column of the equipment table.
var EquipmentColumns = []Column{
	{Key: "id", Title: "ID", Width: 6, Visible: true, Required: true},
	{Key: "name", Title: "Name", Width: 24, Visible: true, Required: true},
	{Key: "productCode", Title: "Code", Width: 12, Visible: true},
	{Key: "purchasePrice", Title: "Purchase", Width: 10, Visible: true},
	{Key: "sellingPrice", Title: "Selling", Width: 10, Visible: true},
	{Key: "description", Title: "Description", Width: 24},
}

const dateTimeLayout = "2006-01-02 15:04"

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(dateTimeLayout)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Bid implements Row.

func (b Bid) RowID() int64 { return b.ID }

func (b Bid) Cell(column string) string {
	switch column {
	case "id":
		return strconv.FormatInt(b.ID, 10)
	case "clientName":
		return b.ClientName
	case "clientObject":
		if b.ClientObject == nil {
			return ""
		}
		return b.ClientObject.Label()
	case "tema":
		return b.Tema
	case "creatorName":
		return b.CreatorName
	case "responsibleName":
		return b.ResponsibleName
	case "status":
		return b.Status
	case "description":
		return b.Description
	case "plannedResolutionDate":
		return formatTime(b.PlannedResolutionDate)
	case "plannedReactionTimeMinutes":
		return formatInt(b.PlannedReactionTimeMinutes)
	case "assignedAt":
		return formatTime(b.AssignedAt)
	case "plannedDurationMinutes":
		return formatInt(b.PlannedDurationMinutes)
	case "spentTimeHours":
		if b.SpentTimeHours == nil {
			return ""
		}
		return strconv.FormatFloat(*b.SpentTimeHours, 'f', -1, 64)
	case "remainingTime":
		return b.RemainingTime
	case "upd":
		return b.UpdNumber
	case "createdAt":
		return formatTime(&b.CreatedAt)
	}
	return ""
}

// Contract implements Row. remainingDays is computed against the wall clock.

func (c Contract) RowID() int64 { return c.ID }

func (c Contract) Cell(column string) string {
	switch column {
	case "id":
		return strconv.FormatInt(c.ID, 10)
	case "bidNumber":
		return strconv.FormatInt(c.BidNumber, 10)
	case "clientName":
		return c.ClientName
	case "responsibleName":
		return c.ResponsibleName
	case "clientObject":
		return c.ClientObject
	case "equipmentName":
		return c.EquipmentName
	case "imei":
		return c.IMEI
	case "quantity":
		return strconv.Itoa(c.Quantity)
	case "contractEndDate":
		if c.ContractEndDate == nil {
			return ""
		}
		return c.ContractEndDate.Local().Format("2006-01-02")
	case "remainingDays":
		days, ok := c.RemainingDays(time.Now())
		if !ok {
			return ""
		}
		return strconv.Itoa(days)
	}
	return ""
}

// ClientObject implements Row.

func (o ClientObject) RowID() int64 { return o.ID }

func (o ClientObject) Cell(column string) string {
	switch column {
	case "id":
		return strconv.FormatInt(o.ID, 10)
	case "client":
		return o.ClientName
	case "brandModel":
		return o.BrandModel
	case "stateNumber":
		return o.StateNumber
	case "responsible":
		return o.ResponsibleName
	}
	return ""
}

// Equipment implements Row.

func (e Equipment) RowID() int64 { return e.ID }

func (e Equipment) Cell(column string) string {
	switch column {
	case "id":
		return strconv.FormatInt(e.ID, 10)
	case "name":
		return e.Name
	case "productCode":
		return e.ProductCode
	case "purchasePrice":
		return formatMoney(e.PurchasePrice)
	case "sellingPrice":
		return formatMoney(e.SellingPrice)
	case "description":
		return e.Description
	}
	return ""
}

// Filter is a multi-select filter over one column of a resource table.
type Filter struct {
	// Column is the Row column the filter matches against.
	Column string
	Title  string

	// Visible is whether the filter dropdown is shown by default.
	Visible bool
}

// BidFilters are hidden until enabled in the filter settings.
var BidFilters = []Filter{
	{Column: "creatorName", Title: "Creator"},
	{Column: "clientName", Title: "Client"},
	{Column: "status", Title: "Status"},
	{Column: "clientObject", Title: "Object"},
	{Column: "responsibleName", Title: "Responsible"},
}

var ContractFilters = []Filter{
	{Column: "clientName", Title: "Client", Visible: true},
	{Column: "responsibleName", Title: "Responsible", Visible: true},
	{Column: "clientObject", Title: "Object", Visible: true},
	{Column: "equipmentName", Title: "Equipment", Visible: true},
}

var ObjectFilters = []Filter{
	{Column: "client", Title: "Client", Visible: true},
	{Column: "brandModel", Title: "Brand/Model", Visible: true},
	{Column: "responsible", Title: "Responsible", Visible: true},
}
