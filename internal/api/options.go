package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Sort orders accepted by the backend.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions are the common list query parameters. Zero values are omitted.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string

	// Filters maps a column to the accepted values. Multiple values are
	// sent as repeated parameters.
	Filters map[string][]string
}

// Values encodes the options as query parameters.
func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.SortBy != "" {
		v.Set("sortBy", o.SortBy)
		order := o.SortOrder
		if order == "" {
			order = SortAsc
		}
		v.Set("sortOrder", order)
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	for k, vals := range o.Filters {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	return v
}

// list decodes either a bare JSON array or a {data: [...]} envelope.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	var arr []T
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = arr
		return nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*l = env.Data
	return nil
}
