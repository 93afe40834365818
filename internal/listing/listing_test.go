package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crmterm/internal/model"
)

func objects() []model.ClientObject {
	return []model.ClientObject{
		{ID: 1, ClientName: "Acme", BrandModel: "Volvo FH", StateNumber: "A100", ResponsibleName: "Ivan"},
		{ID: 2, ClientName: "Beta", BrandModel: "MAN TGX", StateNumber: "B200", ResponsibleName: "Olga"},
		{ID: 10, ClientName: "Acme", BrandModel: "Scania R", StateNumber: "", ResponsibleName: "Olga"},
		{ID: 3, ClientName: "Gamma", BrandModel: "volvo FM", StateNumber: "C300", ResponsibleName: ""},
	}
}

func ids(rows []model.ClientObject) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestApply_Search(t *testing.T) {
	res := Apply(objects(), Query{Search: "VOLVO", SearchColumns: []string{"brandModel", "stateNumber"}})
	assert.Equal(t, []int64{1, 3}, ids(res.Rows))
	assert.Equal(t, 2, res.Total)

	res = Apply(objects(), Query{Search: "volvo", SearchColumns: []string{"client"}})
	assert.Empty(t, res.Rows)
}

// TestApply_Filters tests OR within a column and AND across columns.
func TestApply_Filters(t *testing.T) {
	res := Apply(objects(), Query{Filters: map[string][]string{
		"client": {"Acme", "Beta"},
	}})
	assert.Equal(t, []int64{1, 2, 10}, ids(res.Rows))

	res = Apply(objects(), Query{Filters: map[string][]string{
		"client":      {"Acme", "Beta"},
		"responsible": {"Olga"},
		"brandModel":  {},
	}})
	assert.Equal(t, []int64{2, 10}, ids(res.Rows))
}

// TestApply_SortNumericAndStable tests numeric-aware, stable sorting.
func TestApply_SortNumericAndStable(t *testing.T) {
	res := Apply(objects(), Query{SortKey: "id"})
	assert.Equal(t, []int64{1, 2, 3, 10}, ids(res.Rows))

	res = Apply(objects(), Query{SortKey: "id", SortDesc: true})
	assert.Equal(t, []int64{10, 3, 2, 1}, ids(res.Rows))

	// Equal keys keep input order.
	res = Apply(objects(), Query{SortKey: "client"})
	assert.Equal(t, []int64{1, 10, 2, 3}, ids(res.Rows))

	// Empty values sort last.
	res = Apply(objects(), Query{SortKey: "stateNumber"})
	assert.Equal(t, int64(10), res.Rows[3].ID)
}

// TestApply_Pagination tests page clamping and totals.
func TestApply_Pagination(t *testing.T) {
	rows := objects()

	res := Apply(rows, Query{SortKey: "id", Page: 2, PageSize: 3})
	assert.Equal(t, []int64{10}, ids(res.Rows))
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 4, res.Total)

	res = Apply(rows, Query{SortKey: "id", Page: 99, PageSize: 3})
	assert.Equal(t, 2, res.Page)

	res = Apply(rows, Query{SortKey: "id", Page: -1, PageSize: 3})
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, []int64{1, 2, 3}, ids(res.Rows))

	res = Apply([]model.ClientObject{}, Query{Page: 3, PageSize: 3})
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.TotalPages)
	assert.Empty(t, res.Rows)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	rows := objects()
	Apply(rows, Query{SortKey: "id", SortDesc: true})
	assert.Equal(t, []int64{1, 2, 10, 3}, ids(rows))
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare("2", "10"))
	assert.Positive(t, Compare("b", "A"))
	assert.Negative(t, Compare("5", "abc"))
	assert.Negative(t, Compare("x", ""))
	assert.Zero(t, Compare("", ""))
	assert.Negative(t, Compare("1.5", "2"))
}

func TestDistinct(t *testing.T) {
	got := Distinct(objects(), "responsible")
	assert.Equal(t, []string{"Ivan", "Olga"}, got)

	got = Distinct(objects(), "client")
	assert.Equal(t, []string{"Acme", "Beta", "Gamma"}, got)
}

func TestSort_Toggle(t *testing.T) {
	s := Sort{}.Toggle("id")
	assert.Equal(t, Sort{Key: "id"}, s)
	assert.Equal(t, "asc", s.Order())

	s = s.Toggle("id")
	assert.Equal(t, Sort{Key: "id", Desc: true}, s)
	assert.Equal(t, "desc", s.Order())

	s = s.Toggle("client")
	assert.Equal(t, Sort{Key: "client"}, s)
}

func TestToggleValue(t *testing.T) {
	sel := ToggleValue(nil, "Acme")
	require.Equal(t, []string{"Acme"}, sel)
	sel = ToggleValue(sel, "Beta")
	assert.Equal(t, []string{"Acme", "Beta"}, sel)
	sel = ToggleValue(sel, "Acme")
	assert.Equal(t, []string{"Beta"}, sel)
}
