package devserver

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/crmterm/internal/listing"
	"github.com/nhle/crmterm/internal/model"
)

// allPermissions is granted to every dev server session.
var allPermissions = []string{
	model.PermBidCreate,
	model.PermBidEdit,
	model.PermBidDelete,
	model.PermClientCreate,
	model.PermObjectCreate,
	model.PermEquipmentCreate,
	model.PermEquipmentEdit,
	model.PermEquipmentDelete,
}

var (
	bidSearchColumns      = []string{"id", "tema", "clientName", "description", "status"}
	contractSearchColumns = []string{"id", "bidNumber", "clientName", "equipmentName", "imei"}
)

// reservedParams are list query parameters that are not column filters.
var reservedParams = map[string]bool{
	"page": true, "limit": true, "sortBy": true, "sortOrder": true, "search": true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, what string, id int64) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", what, id))
}

// parseQuery maps list query parameters onto a listing.Query.
func parseQuery(q url.Values, search []string) listing.Query {
	out := listing.Query{
		Search:        strings.TrimSpace(q.Get("search")),
		SearchColumns: search,
		SortKey:       q.Get("sortBy"),
		SortDesc:      q.Get("sortOrder") == "desc",
		Page:          1,
		PageSize:      20,
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		out.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		out.PageSize = min(l, 500)
	}
	for k, vals := range q {
		if reservedParams[k] || len(vals) == 0 {
			continue
		}
		if out.Filters == nil {
			out.Filters = make(map[string][]string)
		}
		out.Filters[k] = vals
	}
	return out
}

func page[R model.Row](res listing.Result[R], limit int) model.Page[R] {
	rows := res.Rows
	if rows == nil {
		rows = []R{}
	}
	return model.Page[R]{
		Data: rows,
		Pagination: model.Pagination{
			Page:       res.Page,
			Limit:      limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	}
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Session{User: s.data.me, Permissions: allPermissions})
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	s.data.mu.Lock()
	users := slices.Clone(s.data.users)
	s.data.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []model.Role{{ID: 1, Name: "Administrator", Permissions: allPermissions}})
}

func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r.URL.Query(), bidSearchColumns)
	bids := s.data.listBids()

	// createdAt renders at minute precision, so order it on the timestamp
	// with the id breaking ties.
	if q.SortKey == "createdAt" {
		slices.SortStableFunc(bids, func(a, b model.Bid) int {
			c := a.CreatedAt.Compare(b.CreatedAt)
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			if q.SortDesc {
				return -c
			}
			return c
		})
		q.SortKey = ""
	}
	writeJSON(w, http.StatusOK, page(listing.Apply(bids, q), q.PageSize))
}

func (s *Server) handleGetBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, found := s.data.getBid(id)
	if !found {
		notFound(w, "bid", id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func validBid(in model.BidInput) string {
	switch {
	case strings.TrimSpace(in.Tema) == "":
		return "tema is required"
	case in.ClientID <= 0:
		return "clientId is required"
	}
	return ""
}

// createBid stores the bid and pushes a NewBid event to connected peers.
func (s *Server) createBid(in model.BidInput) model.Bid {
	b := s.data.createBid(in)
	s.hub.Broadcast(Event{Type: string(model.EventNewBid), Data: b.Summary()})
	s.opts.Logger.Info().Int64("bid_id", b.ID).Str("tema", b.Tema).Msg("bid created")
	return b
}

func (s *Server) handleCreateBid(w http.ResponseWriter, r *http.Request) {
	var in model.BidInput
	if !decode(w, r, &in) {
		return
	}
	if msg := validBid(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusCreated, s.createBid(in))
}

func (s *Server) handleCreateBids(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Bids []model.BidInput `json:"bids"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Bids) == 0 {
		writeError(w, http.StatusBadRequest, "bids must not be empty")
		return
	}
	for i, in := range body.Bids {
		if msg := validBid(in); msg != "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("bids[%d]: %s", i, msg))
			return
		}
	}
	out := make([]model.Bid, 0, len(body.Bids))
	for _, in := range body.Bids {
		out = append(out, s.createBid(in))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.BidInput
	if !decode(w, r, &in) {
		return
	}
	if msg := validBid(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	b, found := s.data.updateBid(id, in)
	if !found {
		notFound(w, "bid", id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.deleteBid(id) {
		notFound(w, "bid", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBidTypes(w http.ResponseWriter, _ *http.Request) {
	s.data.mu.Lock()
	types := slices.Clone(s.data.bidTypes)
	s.data.mu.Unlock()
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listClients())
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, found := s.data.getClient(id)
	if !found {
		notFound(w, "client", id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) saveClient(w http.ResponseWriter, r *http.Request, id int64) {
	var in model.ClientInput
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, found := s.data.saveClient(id, in)
	if !found {
		notFound(w, "client", id)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, c)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	s.saveClient(w, r, 0)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.saveClient(w, r, id)
	}
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.deleteClient(id) {
		notFound(w, "client", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	var clientID int64
	if v := r.URL.Query().Get("clientId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid clientId")
			return
		}
		clientID = id
	}
	writeJSON(w, http.StatusOK, s.data.listObjects(clientID))
}

func (s *Server) saveObject(w http.ResponseWriter, r *http.Request, id int64) {
	var in model.ClientObjectInput
	if !decode(w, r, &in) {
		return
	}
	switch {
	case in.ClientID <= 0:
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	case strings.TrimSpace(in.BrandModel) == "":
		writeError(w, http.StatusBadRequest, "brandModel is required")
		return
	}
	o, found := s.data.saveObject(id, in)
	if !found {
		notFound(w, "client object", id)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, o)
}

func (s *Server) handleCreateObject(w http.ResponseWriter, r *http.Request) {
	s.saveObject(w, r, 0)
}

func (s *Server) handleUpdateObject(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.saveObject(w, r, id)
	}
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.deleteObject(id) {
		notFound(w, "client object", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEquipment(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listEquipment())
}

func (s *Server) saveEquipment(w http.ResponseWriter, r *http.Request, id int64) {
	var in model.EquipmentInput
	if !decode(w, r, &in) {
		return
	}
	switch {
	case strings.TrimSpace(in.Name) == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return
	case in.PurchasePrice < 0 || in.SellingPrice < 0:
		writeError(w, http.StatusBadRequest, "prices must not be negative")
		return
	}
	e, found := s.data.saveEquipment(id, in)
	if !found {
		notFound(w, "equipment", id)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

func (s *Server) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	s.saveEquipment(w, r, 0)
}

func (s *Server) handleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		s.saveEquipment(w, r, id)
	}
}

func (s *Server) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.deleteEquipment(id) {
		notFound(w, "equipment", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r.URL.Query(), contractSearchColumns)
	writeJSON(w, http.StatusOK, page(listing.Apply(s.data.listContracts(), q), q.PageSize))
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, found := s.data.getContract(id)
	if !found {
		notFound(w, "contract", id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("filter") == "unread"
	writeJSON(w, http.StatusOK, s.data.listNotifications(unread))
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BidID   *int64 `json:"bidId"`
		Message string `json:"message"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusCreated, s.data.addNotification(body.BidID, body.Message))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.markRead(id) {
		notFound(w, "notification", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
