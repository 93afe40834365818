// Package listing filters, sorts and paginates rows already fetched from
// the server.
package listing

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/nhle/crmterm/internal/model"
)

// Query selects and orders a page of rows.
type Query struct {
	// Search is matched case-insensitively against the SearchColumns.
	Search        string
	SearchColumns []string

	// Filters maps a column to accepted values: OR within a column, AND
	// across columns. An empty value list does not filter.
	Filters map[string][]string

	SortKey  string
	SortDesc bool

	Page     int
	PageSize int
}

// Result is one page of matching rows.
type Result[R model.Row] struct {
	Rows       []R
	Total      int
	Page       int
	TotalPages int
}

// Apply runs q over rows. The input slice is not modified.
func Apply[R model.Row](rows []R, q Query) Result[R] {
	matched := make([]R, 0, len(rows))
	for _, r := range rows {
		if matchesSearch(r, q.Search, q.SearchColumns) && matchesFilters(r, q.Filters) {
			matched = append(matched, r)
		}
	}

	if q.SortKey != "" {
		slices.SortStableFunc(matched, func(a, b R) int {
			c := Compare(a.Cell(q.SortKey), b.Cell(q.SortKey))
			if q.SortDesc {
				return -c
			}
			return c
		})
	}

	total := len(matched)
	if q.PageSize <= 0 {
		return Result[R]{Rows: matched, Total: total, Page: 1, TotalPages: 1}
	}

	pages := max(1, (total+q.PageSize-1)/q.PageSize)
	page := ClampPage(q.Page, pages)
	start := min((page-1)*q.PageSize, total)
	end := min(start+q.PageSize, total)

	return Result[R]{
		Rows:       matched[start:end],
		Total:      total,
		Page:       page,
		TotalPages: pages,
	}
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	return min(max(page, 1), totalPages)
}

func matchesSearch(r model.Row, search string, columns []string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, col := range columns {
		if strings.Contains(strings.ToLower(r.Cell(col)), needle) {
			return true
		}
	}
	return false
}

func matchesFilters(r model.Row, filters map[string][]string) bool {
	for col, accepted := range filters {
		if len(accepted) == 0 {
			continue
		}
		if !slices.Contains(accepted, r.Cell(col)) {
			return false
		}
	}
	return true
}

// Compare orders two cell values: numbers numerically, numbers before
// text, empty values last, text case-insensitively.
func Compare(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Distinct returns the sorted non-empty values of column across rows.
func Distinct[R model.Row](rows []R, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v := r.Cell(column)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, Compare)
	return out
}

// Sort is a sort key and direction.
type Sort struct {
	Key  string
	Desc bool
}

// Toggle returns the next sort after selecting key: the same key flips
// ascending to descending and back, a new key starts ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key {
		return Sort{Key: key, Desc: !s.Desc}
	}
	return Sort{Key: key}
}

// Order returns "asc" or "desc".
func (s Sort) Order() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

// ToggleValue adds v to the selection or removes it if present.
func ToggleValue(selected []string, v string) []string {
	if i := slices.Index(selected, v); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), v)
}
