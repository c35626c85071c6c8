package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/expdes/pkg/models"
)

func TestSummarize_Columns(t *testing.T) {
	ds := &models.Dataset{Header: []string{"variety", "yield", "note"}, Rows: [][]string{
		{"A", "10", ""},
		{"A", "12", ""},
		{"B", "NA", ""},
		{"B", "11", ""},
		{"B", "10", ""},
	}}
	got := Summarize(ds)
	require.Len(t, got, 3)

	variety := got[0]
	assert.Equal(t, "variety", variety.Column)
	assert.Equal(t, models.ColumnText, variety.Kind)
	assert.Equal(t, 0, variety.Missing)
	assert.Equal(t, "B", variety.TopClass)
	assert.InDelta(t, 60, variety.TopClassPct.Float(), 1e-12)
	assert.Equal(t, 2, variety.Unique)
	assert.Equal(t, []string{"A", "B"}, variety.UniqueValues)

	yield := got[1]
	assert.Equal(t, models.ColumnNumeric, yield.Kind)
	assert.Equal(t, 1, yield.Missing)
	assert.InDelta(t, 20, yield.MissingPct, 1e-12)
	assert.Equal(t, "10", yield.TopClass)
	assert.Equal(t, 3, yield.Unique)

	note := got[2]
	assert.Equal(t, 5, note.Missing)
	assert.Equal(t, "...", note.TopClass)
	assert.True(t, note.TopClassPct.IsNaN())
	assert.Equal(t, 0, note.Unique)
}

func TestSummarize_ManyValuesNotListed(t *testing.T) {
	ds := &models.Dataset{Header: []string{"id"}}
	for i := 0; i < 12; i++ {
		ds.Rows = append(ds.Rows, []string{fmt.Sprint(i)})
	}
	got := Summarize(ds)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Unique)
	assert.Nil(t, got[0].UniqueValues)
	assert.Equal(t, "0", got[0].TopClass, "ties keep the first value")
}

func TestSummarize_MixedColumnIsText(t *testing.T) {
	ds := &models.Dataset{Header: []string{"dose"}, Rows: [][]string{{"1"}, {"2,5"}, {"high"}}}
	assert.Equal(t, models.ColumnText, Summarize(ds)[0].Kind)
}

func TestSummarize_Nil(t *testing.T) {
	assert.Nil(t, Summarize(nil))
}
