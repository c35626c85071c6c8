package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/pkg/models"
)

func mustDataset(t *testing.T, name string) *models.Dataset {
	t.Helper()
	ds, err := datasets.Load(name)
	require.NoError(t, err)
	return ds
}

func mustFit(t *testing.T, spec models.DesignSpec, ds *models.Dataset) *Fit {
	t.Helper()
	d, err := NewDesign(spec)
	require.NoError(t, err)
	fit, err := FitModel(d, ds)
	require.NoError(t, err)
	return fit
}

func mustAnova(t *testing.T, spec models.DesignSpec, name string) *models.AnovaTable {
	t.Helper()
	table, err := RunAnova(mustFit(t, spec, mustDataset(t, name)))
	require.NoError(t, err)
	return table
}

func TestRunAnova_CRD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{Kind: models.DesignCRD, Response: "produtividade", Treatment: "variedade"}, "dic_milho")

	assert.Equal(t, "produtividade ~ C(variedade)", table.Formula)
	row := table.Row("C(variedade)")
	require.NotNil(t, row)
	assert.Equal(t, 3.0, row.DF)
	assert.InDelta(t, 163.75, row.SumSq, 1e-8)
	assert.InDelta(t, 7.79, row.F.Float(), 0.01)
	assert.Equal(t, "**", row.Signif)

	res := table.Row(ResidualTerm)
	require.NotNil(t, res)
	assert.Equal(t, 16.0, res.DF)
	assert.InDelta(t, 112.0, res.SumSq, 1e-8)
	assert.InDelta(t, 7.0, res.MeanSq, 1e-8)
	assert.True(t, res.F.IsNaN())
	assert.Equal(t, "", res.Signif)

	assert.InDelta(t, 26.75, table.GrandMean, 1e-9)
	assert.InDelta(t, 100*math.Sqrt(7)/26.75, table.CV.Float(), 1e-9)
	assert.Equal(t, 20, table.N)
}

func TestRunAnova_RCBD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignRCBD, Response: "ppm_micronutriente", Treatment: "produto", Block: "bloco",
	}, "dbc_caprinos")

	assert.Equal(t, "ppm_micronutriente ~ C(produto) + C(bloco)", table.Formula)
	assert.InDelta(t, 33.58, table.Row("C(produto)").F.Float(), 0.1)
	assert.Equal(t, 4.0, table.Row("C(produto)").DF)
	assert.Equal(t, 2.0, table.Row("C(bloco)").DF)
	assert.Equal(t, 8.0, table.Row(ResidualTerm).DF)
	assert.Equal(t, "***", table.Row("C(produto)").Signif)
}

func TestRunAnova_LSD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignLSD, Response: "resposta", Treatment: "tratamento", Row: "linha", Column: "coluna",
	}, "dql_cana")

	assert.InDelta(t, 12.09, table.Row("C(tratamento)").F.Float(), 0.1)
	assert.Equal(t, 12.0, table.Row(ResidualTerm).DF)
	assert.Len(t, table.Rows, 4)
}

func TestRunAnova_FactorialCRD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignFactorialCRD, Response: "produtividade", Factors: []string{"f1", "f2"},
	}, "fatorial_dic_irrigacao")

	assert.Equal(t, "produtividade ~ C(f1)*C(f2)", table.Formula)
	tests := []struct {
		term string
		ss   float64
		f    float64
	}{
		{"C(f1)", 1200, 88.8889},
		{"C(f2)", 588, 43.5556},
		{"C(f1):C(f2)", 300, 22.2222},
	}
	for _, tt := range tests {
		row := table.Row(tt.term)
		require.NotNil(t, row, tt.term)
		assert.InDelta(t, tt.ss, row.SumSq, 1e-6, tt.term)
		assert.InDelta(t, tt.f, row.F.Float(), 1e-3, tt.term)
		assert.Equal(t, 1.0, row.DF, tt.term)
	}
	assert.Equal(t, 8.0, table.Row(ResidualTerm).DF)
}

func TestRunAnova_FactorialMaxInteraction(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignFactorialCRD, Response: "produtividade", Factors: []string{"f1", "f2"}, MaxInteraction: 1,
	}, "fatorial_dic_irrigacao")

	assert.Equal(t, "produtividade ~ C(f1) + C(f2)", table.Formula)
	assert.Nil(t, table.Row("C(f1):C(f2)"))
	assert.Equal(t, 9.0, table.Row(ResidualTerm).DF)
}

func TestRunAnova_FactorialRCBD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignFactorialRCBD, Response: "produtividade", Factors: []string{"N", "P"}, Block: "block",
	}, "fatorial_dbc_np")

	assert.Equal(t, "produtividade ~ C(block) + C(N)*C(P)", table.Formula)
	assert.Equal(t, 4.0, table.Row("C(block)").DF)
	assert.Equal(t, 12.0, table.Row(ResidualTerm).DF)
	assert.InDelta(t, 16.3805, table.Row("C(N)").SumSq, 1e-6)
}

func TestRunAnova_SplitPlotRCBD(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignSplitPlotRCBD, Response: "produtividade", MainPlot: "cultivar", SubPlot: "adubo", Block: "block",
	}, "splitplot_dbc")

	wholePlot := "C(block):C(cultivar)"
	assert.Equal(t, "produtividade ~ C(block) + C(cultivar) + C(block):C(cultivar) + C(adubo) + C(cultivar):C(adubo)", table.Formula)

	tests := []struct {
		term      string
		df        float64
		errorTerm string
	}{
		{"C(block)", 2, wholePlot},
		{"C(cultivar)", 1, wholePlot},
		{wholePlot, 2, ""},
		{"C(adubo)", 2, ""},
		{"C(cultivar):C(adubo)", 2, ""},
		{ResidualTerm, 8, ""},
	}
	for _, tt := range tests {
		row := table.Row(tt.term)
		require.NotNil(t, row, tt.term)
		assert.Equal(t, tt.df, row.DF, tt.term)
		assert.Equal(t, tt.errorTerm, row.ErrorTerm, tt.term)
	}
	assert.True(t, table.Row(wholePlot).Residual)
	assert.True(t, table.Row(wholePlot).F.IsNaN())

	main := table.Row("C(cultivar)")
	errA := table.Row(wholePlot)
	if errA.MeanSq > 0 {
		assert.InDelta(t, main.MeanSq/errA.MeanSq, main.F.Float(), 1e-9)
	}
}

func TestRunAnova_SplitPlotCRDWithReplicate(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignSplitPlotCRD, Response: "produtividade", MainPlot: "cultivar", SubPlot: "adubo", Replicate: "rep",
	}, "splitplot_dic")

	wholePlot := "C(cultivar):C(rep)"
	assert.Equal(t, 4.0, table.Row(wholePlot).DF)
	assert.Equal(t, 8.0, table.Row(ResidualTerm).DF)
	assert.Equal(t, wholePlot, table.Row("C(cultivar)").ErrorTerm)
	assert.Equal(t, "", table.Row("C(adubo)").ErrorTerm)
}

func TestRunAnova_SplitPlotCRDWithoutReplicate(t *testing.T) {
	table := mustAnova(t, models.DesignSpec{
		Kind: models.DesignSplitPlotCRD, Response: "produtividade", MainPlot: "cultivar", SubPlot: "adubo",
	}, "splitplot_dic")

	assert.Equal(t, "produtividade ~ C(cultivar)*C(adubo)", table.Formula)
	for _, row := range table.Rows {
		assert.Equal(t, "", row.ErrorTerm, row.Term)
	}
	assert.Equal(t, 12.0, table.Row(ResidualTerm).DF)
}

func TestRunAnova_PerfectSeparation(t *testing.T) {
	ds := &models.Dataset{Name: "sep", Header: []string{"g", "y"}}
	for i := 0; i < 5; i++ {
		ds.Rows = append(ds.Rows, []string{"a", "1"}, []string{"b", "10"})
	}
	ds.Rows[0][1] = "1.1"
	fit := mustFit(t, models.DesignSpec{Kind: models.DesignCRD, Response: "y", Treatment: "g"}, ds)
	sep, err := RunAnova(fit)
	require.NoError(t, err)
	row := sep.Row("C(g)")
	assert.Less(t, row.PValue.Float(), 0.001)
	assert.Equal(t, "***", row.Signif)
}

func TestRunAnova_ZeroResidual(t *testing.T) {
	ds := &models.Dataset{Name: "exact", Header: []string{"g", "y"}, Rows: [][]string{
		{"a", "1"}, {"a", "1"}, {"b", "5"}, {"b", "5"},
	}}
	fit := mustFit(t, models.DesignSpec{Kind: models.DesignCRD, Response: "y", Treatment: "g"}, ds)
	table, err := RunAnova(fit)
	require.NoError(t, err)
	row := table.Row("C(g)")
	assert.True(t, math.IsInf(row.F.Float(), 1))
	assert.Equal(t, 0.0, row.PValue.Float())
}

func TestRunAnova_NilFit(t *testing.T) {
	_, err := RunAnova(nil)
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestSignifMarker(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.0001, "***"},
		{0.001, "**"},
		{0.005, "**"},
		{0.01, "*"},
		{0.049, "*"},
		{0.05, "ns"},
		{0.9, "ns"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		if got := SignifMarker(tt.p); got != tt.want {
			t.Errorf("SignifMarker(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
