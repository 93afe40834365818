package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/ui/detail"
	"github.com/nhle/crmterm/internal/ui/entityform"
	"github.com/nhle/crmterm/internal/ui/resourcelist"
)

// requestTimeout bounds one user-initiated API call.
const requestTimeout = 30 * time.Second

var (
	errReadOnly        = errors.New("contracts are read-only")
	errDeleteForbidden = errors.New("you are not allowed to delete this record")
)

// sessionLoadedMsg carries the signed-in user and permissions.
type sessionLoadedMsg struct {
	session *api.Session
	err     error
}

// unreadCountMsg carries the number of unread server notifications.
type unreadCountMsg struct {
	count int
}

// formOptionsMsg is sent when the choices for a form have been fetched.
type formOptionsMsg struct {
	view prefs.View
	kind entityform.Kind
	row  model.Row
	opts entityform.Options
	err  error
}

// submittedMsg reports the result of a create or update.
type submittedMsg struct {
	kind    entityform.Kind
	id      int64
	summary string
	err     error
}

// deletedMsg reports the result of a delete.
type deletedMsg struct {
	view prefs.View
	id   int64
	err  error
}

func (m Model) loadSession() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := c.CurrentUser(ctx)
		return sessionLoadedMsg{session: s, err: err}
	}
}

// fetchUnreadCount returns a tea.Cmd that counts unread server
// notifications. Failures keep the previous count.
func (m Model) fetchUnreadCount() tea.Cmd {
	c := m.client
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		items, err := c.ListNotifications(ctx, api.NotificationsUnread)
		if err != nil {
			log.Debug().Err(err).Msg("counting unread notifications")
			return nil
		}
		return unreadCountMsg{count: len(items)}
	}
}

func (m Model) loadBid(id int64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b, err := c.GetBid(ctx, id)
		if err != nil {
			return detail.LoadedMsg{Err: err}
		}
		return detail.LoadedMsg{Row: *b}
	}
}

func (m Model) loadContract(id int64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ct, err := c.GetContract(ctx, id)
		if err != nil {
			return detail.LoadedMsg{Err: err}
		}
		return detail.LoadedMsg{Row: *ct}
	}
}

func (m Model) permissions() api.Permissions {
	if m.session == nil {
		return nil
	}
	return m.session.Permissions
}

func formKind(v prefs.View) (entityform.Kind, bool) {
	switch v {
	case prefs.ViewBids:
		return entityform.KindBid, true
	case prefs.ViewObjects:
		return entityform.KindObject, true
	case prefs.ViewEquipment:
		return entityform.KindEquipment, true
	}
	return 0, false
}

func createPermission(k entityform.Kind) string {
	switch k {
	case entityform.KindBid:
		return model.PermBidCreate
	case entityform.KindObject:
		return model.PermObjectCreate
	case entityform.KindEquipment:
		return model.PermEquipmentCreate
	case entityform.KindClient:
		return model.PermClientCreate
	}
	return ""
}

// openForm loads the form choices for view, then opens the create form,
// or the edit form when row is set.
func (m *Model) openForm(view prefs.View, row model.Row) tea.Cmd {
	kind, ok := formKind(view)
	if !ok {
		m.status = errReadOnly.Error()
		return nil
	}
	if row == nil && !m.permissions().Has(createPermission(kind)) {
		m.status = resourcelist.ErrCreateForbidden.Error()
		return nil
	}
	return m.loadFormOptions(view, kind, row)
}

func (m *Model) openClientForm() tea.Cmd {
	if !m.permissions().Has(model.PermClientCreate) {
		m.status = resourcelist.ErrCreateForbidden.Error()
		return nil
	}
	return m.loadFormOptions("", entityform.KindClient, nil)
}

// loadFormOptions fetches the records offered by the form's selects in
// parallel.
func (m Model) loadFormOptions(view prefs.View, kind entityform.Kind, row model.Row) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var opts entityform.Options
		g, gctx := errgroup.WithContext(ctx)

		if kind == entityform.KindBid || kind == entityform.KindObject {
			g.Go(func() (err error) {
				opts.Clients, err = c.ListClients(gctx)
				return err
			})
			g.Go(func() (err error) {
				opts.Users, err = c.ListUsers(gctx)
				return err
			})
		}
		if kind == entityform.KindBid {
			g.Go(func() (err error) {
				opts.Objects, err = c.ListClientObjects(gctx, 0)
				return err
			})
			g.Go(func() (err error) {
				opts.BidTypes, err = c.ListBidTypes(gctx)
				return err
			})
		}

		err := g.Wait()
		return formOptionsMsg{view: view, kind: kind, row: row, opts: opts, err: err}
	}
}

// submit creates or updates the record a form produced.
func (m Model) submit(msg entityform.SubmittedMsg) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		out := submittedMsg{kind: msg.Kind, id: msg.ID}
		verb := "created"
		if msg.ID != 0 {
			verb = "updated"
		}

		switch in := msg.Input.(type) {
		case model.BidInput:
			var b *model.Bid
			if msg.ID == 0 {
				b, out.err = c.CreateBid(ctx, in)
			} else {
				b, out.err = c.UpdateBid(ctx, msg.ID, in)
			}
			if out.err == nil {
				out.id = b.ID
				out.summary = fmt.Sprintf("Bid №%d %s", b.ID, verb)
			}

		case model.ClientObjectInput:
			var o *model.ClientObject
			if msg.ID == 0 {
				o, out.err = c.CreateClientObject(ctx, in)
			} else {
				o, out.err = c.UpdateClientObject(ctx, msg.ID, in)
			}
			if out.err == nil {
				out.id = o.ID
				out.summary = fmt.Sprintf("Object %s %s", o.Label(), verb)
			}

		case model.EquipmentInput:
			var e *model.Equipment
			if msg.ID == 0 {
				e, out.err = c.CreateEquipment(ctx, in)
			} else {
				e, out.err = c.UpdateEquipment(ctx, msg.ID, in)
			}
			if out.err == nil {
				out.id = e.ID
				out.summary = fmt.Sprintf("Equipment %q %s", e.Name, verb)
			}

		case model.ClientInput:
			var cl *model.Client
			cl, out.err = c.CreateClient(ctx, in)
			if out.err == nil {
				out.id = cl.ID
				out.summary = fmt.Sprintf("Client %q created", cl.Name)
			}

		default:
			out.err = fmt.Errorf("unsupported form input %T", msg.Input)
		}
		return out
	}
}

// deleteRow deletes a record after the user confirmed it.
func (m Model) deleteRow(view prefs.View, id int64) tea.Cmd {
	c := m.client
	perms := m.permissions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		switch view {
		case prefs.ViewBids:
			if !perms.Has(model.PermBidDelete) {
				err = errDeleteForbidden
				break
			}
			err = c.DeleteBid(ctx, id)
		case prefs.ViewObjects:
			err = c.DeleteClientObject(ctx, id)
		case prefs.ViewEquipment:
			if !perms.Has(model.PermEquipmentDelete) {
				err = errDeleteForbidden
				break
			}
			err = c.DeleteEquipment(ctx, id)
		default:
			err = errReadOnly
		}
		return deletedMsg{view: view, id: id, err: err}
	}
}

// resetColumns restores the default layout of the table on screen.
func (m Model) resetColumns() tea.Cmd {
	reg := m.deps.Registry
	view := m.lists[m.active].Name()
	return func() tea.Msg {
		s, err := reg.Reset(context.Background(), view)
		return resourcelist.SettingsLoadedMsg{View: view, Settings: s, Err: err}
	}
}
