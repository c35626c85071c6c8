package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/expdes/pkg/models"
)

func TestNewDesign_Formulas(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Design, error)
		want  string
		terms []string
	}{
		{
			"crd",
			func() (*Design, error) { return NewCRD("y", "t") },
			"y ~ C(t)",
			[]string{"C(t)"},
		},
		{
			"rcbd",
			func() (*Design, error) { return NewRCBD("y", "t", "b") },
			"y ~ C(t) + C(b)",
			[]string{"C(t)", "C(b)"},
		},
		{
			"lsd",
			func() (*Design, error) { return NewLSD("y", "t", "r", "c") },
			"y ~ C(t) + C(r) + C(c)",
			[]string{"C(t)", "C(r)", "C(c)"},
		},
		{
			"factorial crd",
			func() (*Design, error) { return NewFactorialCRD("y", []string{"a", "b", "c"}, 0) },
			"y ~ C(a)*C(b)*C(c)",
			[]string{"C(a)", "C(b)", "C(c)", "C(a):C(b)", "C(a):C(c)", "C(b):C(c)", "C(a):C(b):C(c)"},
		},
		{
			"factorial crd two-way",
			func() (*Design, error) { return NewFactorialCRD("y", []string{"a", "b", "c"}, 2) },
			"y ~ C(a) + C(b) + C(c) + C(a):C(b) + C(a):C(c) + C(b):C(c)",
			[]string{"C(a)", "C(b)", "C(c)", "C(a):C(b)", "C(a):C(c)", "C(b):C(c)"},
		},
		{
			"factorial rcbd",
			func() (*Design, error) { return NewFactorialRCBD("y", []string{"a", "b"}, "blk", 0) },
			"y ~ C(blk) + C(a)*C(b)",
			[]string{"C(blk)", "C(a)", "C(b)", "C(a):C(b)"},
		},
		{
			"split-plot crd",
			func() (*Design, error) { return NewSplitPlotCRD("y", "m", "s", "") },
			"y ~ C(m)*C(s)",
			[]string{"C(m)", "C(s)", "C(m):C(s)"},
		},
		{
			"split-plot rcbd",
			func() (*Design, error) { return NewSplitPlotRCBD("y", "m", "s", "b") },
			"y ~ C(b) + C(m) + C(b):C(m) + C(s) + C(m):C(s)",
			[]string{"C(b)", "C(m)", "C(b):C(m)", "C(s)", "C(m):C(s)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Formula())
			assert.Equal(t, tt.terms, d.Terms())
		})
	}
}

func TestNewDesign_TreatmentFactors(t *testing.T) {
	d, err := NewSplitPlotRCBD("y", "m", "s", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "s"}, d.TreatmentFactors())
	assert.Equal(t, models.DesignSplitPlotRCBD, d.Kind())

	d, err = NewRCBD("y", "t", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, d.TreatmentFactors())
}

func TestNewDesign_Validation(t *testing.T) {
	tests := []struct {
		name string
		spec models.DesignSpec
		want []string
	}{
		{"unknown kind", models.DesignSpec{Kind: "strip", Response: "y"}, []string{`unknown design "strip"`}},
		{"missing response", models.DesignSpec{Kind: models.DesignCRD, Treatment: "t"}, []string{"response is required"}},
		{"rcbd without block", models.DesignSpec{Kind: models.DesignRCBD, Response: "y", Treatment: "t"}, []string{"block is required"}},
		{"lsd without row and column", models.DesignSpec{Kind: models.DesignLSD, Response: "y", Treatment: "t"}, []string{"row is required", "column is required"}},
		{"factorial with one factor", models.DesignSpec{Kind: models.DesignFactorialCRD, Response: "y", Factors: []string{"a"}}, []string{"at least two factors"}},
		{"factorial duplicate", models.DesignSpec{Kind: models.DesignFactorialCRD, Response: "y", Factors: []string{"a", "a"}}, []string{`factor "a" is listed twice`}},
		{"negative interaction", models.DesignSpec{Kind: models.DesignFactorialCRD, Response: "y", Factors: []string{"a", "b"}, MaxInteraction: -1}, []string{"max_interaction"}},
		{"split-plot without sub", models.DesignSpec{Kind: models.DesignSplitPlotCRD, Response: "y", MainPlot: "m"}, []string{"sub_plot is required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDesign(tt.spec)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "invalid design:"))
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}}, combinations(3, 2))
	assert.Len(t, combinations(5, 3), 10)
}

func TestFitModel_DropsIncompleteRows(t *testing.T) {
	ds := &models.Dataset{Name: "gaps", Header: []string{"g", "y"}, Rows: [][]string{
		{"a", "1"}, {"a", "2"}, {"a", "NA"},
		{"b", "5"}, {"b", "6,5"}, {"", "100"},
		{"c", "9"}, {"c", "10"}, {"n/a", "4"},
	}}
	fit := mustFit(t, models.DesignSpec{Kind: models.DesignCRD, Response: "y", Treatment: "g"}, ds)

	assert.Equal(t, 6, fit.N())
	assert.Equal(t, []string{"a", "b", "c"}, fit.Levels("g"))
	assert.Equal(t, 3.0, fit.DFResid())
	assert.InDelta(t, (1+2+5+6.5+9+10)/6.0, fit.GrandMean(), 1e-12)
	assert.Equal(t, "gaps", fit.Dataset())
	assert.Nil(t, fit.Levels("nope"))

	_, err := fit.Labels("nope")
	assert.Error(t, err)
}

func TestFitModel_Errors(t *testing.T) {
	crd, err := NewCRD("y", "g")
	require.NoError(t, err)

	tests := []struct {
		name string
		ds   *models.Dataset
		is   error
	}{
		{"empty", &models.Dataset{Header: []string{"g", "y"}}, ErrInsufficientData},
		{"no response column", &models.Dataset{Header: []string{"g", "z"}, Rows: [][]string{{"a", "1"}}}, nil},
		{"no factor column", &models.Dataset{Header: []string{"h", "y"}, Rows: [][]string{{"a", "1"}}}, nil},
		{"text response", &models.Dataset{Header: []string{"g", "y"}, Rows: [][]string{{"a", "high"}}}, nil},
		{"single level", &models.Dataset{Header: []string{"g", "y"}, Rows: [][]string{{"a", "1"}, {"a", "2"}}}, ErrInsufficientData},
		{"saturated", &models.Dataset{Header: []string{"g", "y"}, Rows: [][]string{{"a", "1"}, {"b", "2"}}}, ErrInsufficientData},
		{"all missing", &models.Dataset{Header: []string{"g", "y"}, Rows: [][]string{{"a", ""}, {"b", "NA"}}}, ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitModel(crd, tt.ds)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}

	_, err = FitModel(nil, &models.Dataset{})
	assert.Error(t, err)
}

func TestFit_ResidualsSumToZero(t *testing.T) {
	fit := mustFit(t, models.DesignSpec{
		Kind: models.DesignLSD, Response: "resposta", Treatment: "tratamento", Row: "linha", Column: "coluna",
	}, mustDataset(t, "dql_cana"))

	var sum float64
	for _, e := range fit.Residuals() {
		sum += e
	}
	assert.InDelta(t, 0, sum, 1e-8)
	assert.Equal(t, 13, fit.Rank())
	assert.Equal(t, 12.0, fit.DFResid())

	fitted, y := fit.Fitted(), fit.Response()
	res := fit.Residuals()
	for i := range y {
		assert.InDelta(t, y[i], fitted[i]+res[i], 1e-9)
	}
}
