package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-editor/internal/model"
)

func catalog() []model.Label {
	return []model.Label{
		{LabelID: model.SocietyCatalogID, Name: "Societies", Values: []model.Value{
			{ValueID: "1", Value: "North"},
			{ValueID: "2", Value: "South"},
		}},
		{LabelID: model.CediCatalogID, Name: "Centers", Values: []model.Value{
			{ValueID: "10", Value: "Harbor", ParentValueID: "1"},
			{ValueID: "11", Value: "Ridge", ParentValueID: "1.0"},
			{ValueID: "20", Value: "Delta", ParentValueID: "2"},
		}},
		{LabelID: "COLORS", Name: "Colors", Collection: "paint", Values: []model.Value{
			{ValueID: "RED", Value: "Red", Alias: "crimson"},
			{ValueID: "BLUE", Value: "Blue"},
		}},
		{LabelID: "SIZES", Name: "Sizes", Description: "Garment sizes"},
	}
}

func ids(labels []model.Label) []string {
	var out []string
	for _, l := range labels {
		out = append(out, l.LabelID)
	}
	return out
}

func TestFilter(t *testing.T) {
	labels := catalog()

	assert.Len(t, Filter(labels, "  "), 4)
	assert.Equal(t, []string{"SIZES"}, ids(Filter(labels, "GARMENT")))
	assert.Equal(t, []string{"COLORS"}, ids(Filter(labels, "paint")))

	got := Filter(labels, "crimson")
	require.Equal(t, []string{"COLORS"}, ids(got))
	assert.Len(t, got[0].Values, 2)

	assert.Empty(t, Filter(labels, "nothing-like-this"))
}

func TestFuzzyFilter(t *testing.T) {
	got := FuzzyFilter(catalog(), "clrs")
	require.NotEmpty(t, got)
	assert.Equal(t, "COLORS", got[0].LabelID)
	assert.Len(t, FuzzyFilter(catalog(), ""), 4)
}

func TestSocietyAndCediOptions(t *testing.T) {
	labels := catalog()

	soc := SocietyOptions(labels)
	require.Len(t, soc, 3)
	assert.Equal(t, Option{ID: "0", Name: AllName}, soc[0])

	cedis := CediOptions(labels, "1")
	var names []string
	for _, o := range cedis {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{AllName, "Harbor", "Ridge"}, names)

	assert.Len(t, CediOptions(labels, "0"), 1)
	assert.Len(t, CediOptions(nil, "1"), 1)
}

func TestDisplayAndResolve(t *testing.T) {
	soc := SocietyOptions(catalog())

	assert.Equal(t, "North", DisplayName(soc, "01"))
	assert.Equal(t, "TODOS", DisplayName(soc, "0"))
	assert.Equal(t, "99", DisplayName(soc, "99"))

	id, ok := Resolve(soc, "South")
	require.True(t, ok)
	assert.Equal(t, "2", id)
	id, ok = Resolve(soc, "2.0")
	require.True(t, ok)
	assert.Equal(t, "2", id)
	_, ok = Resolve(soc, "West")
	assert.False(t, ok)
}

func TestParentValues(t *testing.T) {
	labels := catalog()
	opts := ParentValueOptions(labels, "RED")
	for _, o := range opts {
		assert.NotEqual(t, "RED", o.ID)
	}
	assert.Len(t, opts, 6)

	assert.Equal(t, "Blue (BLUE)", ParentValueName(labels, "BLUE"))
	assert.Equal(t, "", ParentValueName(labels, ""))
	assert.Equal(t, "GONE", ParentValueName(labels, "GONE"))
}
