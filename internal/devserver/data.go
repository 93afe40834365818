package devserver

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nhle/crmterm/internal/model"
)

// store is the in-memory backend state. Every method takes the lock.
type store struct {
	mu  sync.Mutex
	now func() time.Time

	nextID        int64
	me            model.User
	users         []model.User
	bidTypes      []model.BidType
	clients       []model.Client
	objects       []model.ClientObject
	equipment     []model.Equipment
	contracts     []model.Contract
	bids          []model.Bid
	notifications []model.Notification
}

func minutes(n int) *int { return &n }

// newStore seeds a small demo data set.
func newStore(now func() time.Time) *store {
	t := now()
	s := &store{now: now, nextID: 100}

	s.me = model.User{ID: 1, Login: "dispatcher", FullName: "Demo Dispatcher"}
	s.users = []model.User{
		s.me,
		{ID: 2, Login: "ivanov", FullName: "Ivan Ivanov"},
		{ID: 3, Login: "petrova", FullName: "Anna Petrova"},
	}
	s.bidTypes = []model.BidType{
		{ID: 1, Name: "Installation", PlannedReactionTimeMinutes: minutes(60), PlannedDurationMinutes: minutes(240),
			Statuses: []model.BidStatus{{Position: 1, Name: "Open"}, {Position: 2, Name: "In progress"}, {Position: 3, Name: "Closed"}}},
		{ID: 2, Name: "Repair", PlannedReactionTimeMinutes: minutes(30), PlannedDurationMinutes: minutes(120),
			Statuses: []model.BidStatus{{Position: 1, Name: "Open"}, {Position: 2, Name: "Closed"}}},
	}
	s.clients = []model.Client{
		{ID: 1, Name: "Acme Logistics", Phone: "+1 555 0100", CreatedAt: t.Add(-90 * 24 * time.Hour)},
		{ID: 2, Name: "Northwind Freight", Email: "ops@northwind.test", CreatedAt: t.Add(-30 * 24 * time.Hour)},
	}
	s.objects = []model.ClientObject{
		{ID: 1, ClientID: 1, ClientName: "Acme Logistics", BrandModel: "Volvo FH16", StateNumber: "A123BC", ResponsibleID: ptr(int64(2)), ResponsibleName: "Ivan Ivanov"},
		{ID: 2, ClientID: 1, ClientName: "Acme Logistics", BrandModel: "Scania R500", StateNumber: "B456CD"},
		{ID: 3, ClientID: 2, ClientName: "Northwind Freight", BrandModel: "MAN TGX", StateNumber: "C789EF", ResponsibleID: ptr(int64(3)), ResponsibleName: "Anna Petrova"},
	}
	s.equipment = []model.Equipment{
		{ID: 1, Name: "GPS tracker", ProductCode: "GT-100", PurchasePrice: 80, SellingPrice: 120, CreatedAt: t},
		{ID: 2, Name: "Fuel sensor", ProductCode: "FS-20", PurchasePrice: 45.5, SellingPrice: 70, CreatedAt: t},
		{ID: 3, Name: "Tachograph", ProductCode: "TG-7", PurchasePrice: 300, SellingPrice: 420, CreatedAt: t},
	}
	ends := []time.Time{t.Add(200 * 24 * time.Hour), t.Add(12 * 24 * time.Hour), t.Add(-5 * 24 * time.Hour)}
	s.contracts = []model.Contract{
		{ID: 1, BidNumber: 1, ClientName: "Acme Logistics", ResponsibleName: "Ivan Ivanov", ClientObject: "Volvo FH16 (A123BC)", EquipmentName: "GPS tracker", IMEI: "356938035643809", Quantity: 1, ContractEndDate: &ends[0]},
		{ID: 2, BidNumber: 2, ClientName: "Northwind Freight", ResponsibleName: "Anna Petrova", ClientObject: "MAN TGX (C789EF)", EquipmentName: "Fuel sensor", Quantity: 2, ContractEndDate: &ends[1]},
		{ID: 3, BidNumber: 2, ClientName: "Northwind Freight", ResponsibleName: "Anna Petrova", ClientObject: "MAN TGX (C789EF)", EquipmentName: "Tachograph", Quantity: 1, ContractEndDate: &ends[2]},
	}
	s.bids = []model.Bid{
		s.newBid(1, t.Add(-48*time.Hour), model.BidInput{Tema: "Install tracker", ClientID: 1, ClientObjectID: ptr(int64(1)), BidTypeID: ptr(int64(1))}),
		s.newBid(2, t.Add(-3*time.Hour), model.BidInput{Tema: "Fuel sensor calibration", ClientID: 2, ClientObjectID: ptr(int64(3)), BidTypeID: ptr(int64(2))}),
	}
	s.bids[0].Status = "Closed"
	return s
}

func ptr[T any](v T) *T { return &v }

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

// newBid builds a bid from in, resolving names and bid type defaults.
// The caller holds the lock.
func (s *store) newBid(id int64, at time.Time, in model.BidInput) model.Bid {
	b := model.Bid{
		ID:          id,
		Status:      "Open",
		CreatorName: s.me.FullName,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	s.applyBid(&b, in)
	return b
}

func (s *store) applyBid(b *model.Bid, in model.BidInput) {
	b.Tema = in.Tema
	b.ClientID = in.ClientID
	b.ClientName = ""
	if i := indexOf(s.clients, in.ClientID, func(c model.Client) int64 { return c.ID }); i >= 0 {
		b.ClientName = s.clients[i].Name
	}
	b.ClientObjectID = in.ClientObjectID
	b.ClientObject = nil
	if in.ClientObjectID != nil {
		if i := indexOf(s.objects, *in.ClientObjectID, func(o model.ClientObject) int64 { return o.ID }); i >= 0 {
			o := s.objects[i]
			b.ClientObject = &o
		}
	}
	b.BidTypeID = in.BidTypeID
	b.Description = in.Description
	b.ParentID = in.ParentID
	b.PlannedResolutionDate = in.PlannedResolutionDate
	b.PlannedReactionTimeMinutes = in.PlannedReactionTimeMinutes
	b.PlannedDurationMinutes = in.PlannedDurationMinutes
	if in.BidTypeID != nil {
		if i := indexOf(s.bidTypes, *in.BidTypeID, func(t model.BidType) int64 { return t.ID }); i >= 0 {
			bt := s.bidTypes[i]
			if b.PlannedReactionTimeMinutes == nil {
				b.PlannedReactionTimeMinutes = bt.PlannedReactionTimeMinutes
			}
			if b.PlannedDurationMinutes == nil {
				b.PlannedDurationMinutes = bt.PlannedDurationMinutes
			}
		}
	}
}

func indexOf[T any](items []T, id int64, key func(T) int64) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}

func bidID(b model.Bid) int64                    { return b.ID }
func clientID(c model.Client) int64              { return c.ID }
func objectID(o model.ClientObject) int64        { return o.ID }
func equipmentID(e model.Equipment) int64        { return e.ID }
func contractID(c model.Contract) int64          { return c.ID }
func notificationID(n model.Notification) int64 { return n.ID }

func (s *store) listBids() []model.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bids)
}

func (s *store) getBid(id int64) (model.Bid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.bids, id, bidID)
	if i < 0 {
		return model.Bid{}, false
	}
	return s.bids[i], true
}

// createBid stores a bid and files a notification about it.
func (s *store) createBid(in model.BidInput) model.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.newBid(s.id(), s.now(), in)
	s.bids = append(s.bids, b)
	s.notifications = append(s.notifications, model.Notification{
		ID:        s.id(),
		BidID:     ptr(b.ID),
		Message:   fmt.Sprintf("New bid №%d: %s", b.ID, b.Tema),
		CreatedAt: b.CreatedAt,
	})
	return b
}

func (s *store) updateBid(id int64, in model.BidInput) (model.Bid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.bids, id, bidID)
	if i < 0 {
		return model.Bid{}, false
	}
	s.applyBid(&s.bids[i], in)
	s.bids[i].UpdatedAt = s.now()
	return s.bids[i], true
}

func (s *store) deleteBid(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.bids, id, bidID)
}

func remove[T any](items *[]T, id int64, key func(T) int64) bool {
	i := indexOf(*items, id, key)
	if i < 0 {
		return false
	}
	*items = slices.Delete(*items, i, i+1)
	return true
}

func (s *store) listClients() []model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.clients)
}

func (s *store) getClient(id int64) (model.Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.clients, id, clientID)
	if i < 0 {
		return model.Client{}, false
	}
	return s.clients[i], true
}

func (s *store) saveClient(id int64, in model.ClientInput) (model.Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		c := model.Client{ID: s.id(), CreatedAt: s.now()}
		s.clients = append(s.clients, c)
		id = c.ID
	}
	i := indexOf(s.clients, id, clientID)
	if i < 0 {
		return model.Client{}, false
	}
	c := &s.clients[i]
	c.Name, c.Phone, c.Email, c.Address = in.Name, in.Phone, in.Email, in.Address
	return *c, true
}

func (s *store) deleteClient(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.clients, id, clientID)
}

// listObjects returns the objects of one client, or all when owner is 0.
func (s *store) listObjects(owner int64) []model.ClientObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClientObject, 0, len(s.objects))
	for _, o := range s.objects {
		if owner == 0 || o.ClientID == owner {
			out = append(out, o)
		}
	}
	return out
}

func (s *store) saveObject(id int64, in model.ClientObjectInput) (model.ClientObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		o := model.ClientObject{ID: s.id(), CreatedAt: s.now()}
		s.objects = append(s.objects, o)
		id = o.ID
	}
	i := indexOf(s.objects, id, objectID)
	if i < 0 {
		return model.ClientObject{}, false
	}
	o := &s.objects[i]
	o.ClientID, o.BrandModel, o.StateNumber, o.ResponsibleID = in.ClientID, in.BrandModel, in.StateNumber, in.ResponsibleID
	o.ClientName = ""
	if j := indexOf(s.clients, in.ClientID, clientID); j >= 0 {
		o.ClientName = s.clients[j].Name
	}
	o.ResponsibleName = ""
	if in.ResponsibleID != nil {
		if j := indexOf(s.users, *in.ResponsibleID, func(u model.User) int64 { return u.ID }); j >= 0 {
			o.ResponsibleName = s.users[j].FullName
		}
	}
	return *o, true
}

func (s *store) deleteObject(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.objects, id, objectID)
}

func (s *store) listEquipment() []model.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.equipment)
}

func (s *store) saveEquipment(id int64, in model.EquipmentInput) (model.Equipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		e := model.Equipment{ID: s.id(), CreatedAt: s.now()}
		s.equipment = append(s.equipment, e)
		id = e.ID
	}
	i := indexOf(s.equipment, id, equipmentID)
	if i < 0 {
		return model.Equipment{}, false
	}
	e := &s.equipment[i]
	e.Name, e.ProductCode, e.Description = in.Name, in.ProductCode, in.Description
	e.PurchasePrice, e.SellingPrice = in.PurchasePrice, in.SellingPrice
	return *e, true
}

func (s *store) deleteEquipment(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.equipment, id, equipmentID)
}

func (s *store) listContracts() []model.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contracts)
}

func (s *store) getContract(id int64) (model.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.contracts, id, contractID)
	if i < 0 {
		return model.Contract{}, false
	}
	return s.contracts[i], true
}

func (s *store) listNotifications(unreadOnly bool) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, 0, len(s.notifications))
	// Newest first.
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (s *store) addNotification(bidID *int64, message string) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := model.Notification{ID: s.id(), BidID: bidID, Message: message, CreatedAt: s.now()}
	s.notifications = append(s.notifications, n)
	return n
}

func (s *store) markRead(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.notifications, id, notificationID)
	if i < 0 {
		return false
	}
	s.notifications[i].Read = true
	return true
}
