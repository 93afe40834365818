// Package prefs loads and saves per-view table settings.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/nhle/crmterm/internal/model"
)

// Storage is the key/value port view settings persist through.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// View names a resource table.
type View string

const (
	ViewBids      View = "bids"
	ViewContracts View = "contracts"
	ViewObjects   View = "objects"
	ViewEquipment View = "equipment"
)

// ViewSettings is the saved layout of one resource table.
type ViewSettings struct {
	// Visible maps a column key to whether it is shown.
	Visible map[string]bool `json:"visibleColumns"`

	// Order lists every column key in display order.
	Order []string `json:"columnOrder"`

	// Filters maps a filter key to whether its dropdown is shown.
	Filters map[string]bool `json:"visibleFilters"`

	PageSize int `json:"pageSize,omitempty"`
}

// Clone returns a deep copy.
func (s ViewSettings) Clone() ViewSettings {
	out := ViewSettings{
		Visible:  make(map[string]bool, len(s.Visible)),
		Order:    slices.Clone(s.Order),
		Filters:  make(map[string]bool, len(s.Filters)),
		PageSize: s.PageSize,
	}
	for k, v := range s.Visible {
		out.Visible[k] = v
	}
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	return out
}

// VisibleColumns returns the shown columns in display order.
func (s ViewSettings) VisibleColumns(cols []model.Column) []model.Column {
	var out []model.Column
	for _, key := range s.Order {
		c, ok := model.Lookup(cols, key)
		if ok && s.Visible[key] {
			out = append(out, c)
		}
	}
	return out
}

// VisibleFilters returns the enabled filters in declaration order.
func (s ViewSettings) VisibleFilters(filters []model.Filter) []model.Filter {
	var out []model.Filter
	for _, f := range filters {
		if s.Filters[f.Column] {
			out = append(out, f)
		}
	}
	return out
}

// ToggleFilter flips whether a filter dropdown is shown.
func (s *ViewSettings) ToggleFilter(column string) {
	if _, ok := s.Filters[column]; ok {
		s.Filters[column] = !s.Filters[column]
	}
}

// Toggle flips a column's visibility. Required columns stay visible.
func (s *ViewSettings) Toggle(cols []model.Column, key string) {
	c, ok := model.Lookup(cols, key)
	if !ok || c.Required {
		return
	}
	s.Visible[key] = !s.Visible[key]
}

// Move shifts a column by delta positions within Order, clamped to bounds.
func (s *ViewSettings) Move(key string, delta int) {
	i := slices.Index(s.Order, key)
	if i < 0 {
		return
	}
	j := min(max(i+delta, 0), len(s.Order)-1)
	if i == j {
		return
	}
	s.Order = slices.Delete(s.Order, i, i+1)
	s.Order = slices.Insert(s.Order, j, key)
}

// Defaults builds settings from the column and filter defaults.
func Defaults(cols []model.Column, filters []model.Filter, pageSize int) ViewSettings {
	s := ViewSettings{
		Visible:  make(map[string]bool, len(cols)),
		Order:    model.Keys(cols),
		Filters:  make(map[string]bool, len(filters)),
		PageSize: pageSize,
	}
	for _, c := range cols {
		s.Visible[c.Key] = c.Visible || c.Required
	}
	for _, f := range filters {
		s.Filters[f.Column] = f.Visible
	}
	return s
}

// Merge overlays saved over defaults. Unknown columns and filters are
// dropped, columns missing from the saved order are appended, and required
// columns are always visible.
func Merge(defaults, saved ViewSettings) ViewSettings {
	out := defaults.Clone()

	for k, v := range saved.Visible {
		if _, known := out.Visible[k]; known {
			out.Visible[k] = v
		}
	}
	for k, v := range saved.Filters {
		if _, known := out.Filters[k]; known {
			out.Filters[k] = v
		}
	}
	if saved.PageSize > 0 {
		out.PageSize = saved.PageSize
	}

	if len(saved.Order) > 0 {
		order := make([]string, 0, len(defaults.Order))
		for _, k := range saved.Order {
			if slices.Contains(defaults.Order, k) && !slices.Contains(order, k) {
				order = append(order, k)
			}
		}
		for _, k := range defaults.Order {
			if !slices.Contains(order, k) {
				order = append(order, k)
			}
		}
		out.Order = order
	}

	return out
}

// Registry loads and saves settings for every view through a Storage.
type Registry struct {
	storage  Storage
	defaults map[View]ViewSettings
	required map[View][]string

	mu    sync.Mutex
	cache map[View]ViewSettings
}

// NewRegistry creates a Registry backed by storage.
func NewRegistry(storage Storage) *Registry {
	return &Registry{
		storage:  storage,
		defaults: make(map[View]ViewSettings),
		required: make(map[View][]string),
		cache:    make(map[View]ViewSettings),
	}
}

// RegisterDefaults declares the four resource views.
func (r *Registry) RegisterDefaults(pageSize int) {
	r.Register(ViewBids, model.BidColumns, model.BidFilters, pageSize)
	r.Register(ViewContracts, model.ContractColumns, model.ContractFilters, pageSize)
	r.Register(ViewObjects, model.ObjectColumns, model.ObjectFilters, pageSize)
	r.Register(ViewEquipment, model.EquipmentColumns, nil, pageSize)
}

// Register declares a view's columns and filters.
func (r *Registry) Register(v View, cols []model.Column, filters []model.Filter, pageSize int) {
	var req []string
	for _, c := range cols {
		if c.Required {
			req = append(req, c.Key)
		}
	}
	r.mu.Lock()
	r.defaults[v] = Defaults(cols, filters, pageSize)
	r.required[v] = req
	r.mu.Unlock()
}

func key(v View) string { return "view." + string(v) }

// Load returns the view's settings: saved state merged over defaults.
// Corrupt saved state falls back to defaults.
func (r *Registry) Load(ctx context.Context, v View) (ViewSettings, error) {
	r.mu.Lock()
	if s, ok := r.cache[v]; ok {
		r.mu.Unlock()
		return s.Clone(), nil
	}
	defaults, ok := r.defaults[v]
	required := r.required[v]
	r.mu.Unlock()
	if !ok {
		return ViewSettings{}, fmt.Errorf("unknown view %q", v)
	}

	raw, found, err := r.storage.Get(ctx, key(v))
	if err != nil {
		return defaults.Clone(), fmt.Errorf("loading %s settings: %w", v, err)
	}

	out := defaults.Clone()
	if found {
		var saved ViewSettings
		if err := json.Unmarshal([]byte(raw), &saved); err == nil {
			out = Merge(defaults, saved)
		}
	}
	for _, k := range required {
		out.Visible[k] = true
	}

	r.mu.Lock()
	r.cache[v] = out.Clone()
	r.mu.Unlock()
	return out, nil
}

// Save persists the view's settings.
func (r *Registry) Save(ctx context.Context, v View, s ViewSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding %s settings: %w", v, err)
	}
	if err := r.storage.Set(ctx, key(v), string(data)); err != nil {
		return fmt.Errorf("saving %s settings: %w", v, err)
	}
	r.mu.Lock()
	r.cache[v] = s.Clone()
	r.mu.Unlock()
	return nil
}

// Reset forgets a view's saved settings and returns its defaults.
func (r *Registry) Reset(ctx context.Context, v View) (ViewSettings, error) {
	r.mu.Lock()
	defaults, ok := r.defaults[v]
	r.mu.Unlock()
	if !ok {
		return ViewSettings{}, fmt.Errorf("unknown view %q", v)
	}
	if err := r.storage.Delete(ctx, key(v)); err != nil {
		return defaults.Clone(), fmt.Errorf("resetting %s settings: %w", v, err)
	}
	r.mu.Lock()
	delete(r.cache, v)
	r.mu.Unlock()
	return r.Load(ctx, v)
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
