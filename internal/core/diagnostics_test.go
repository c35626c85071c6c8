package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/expdes/pkg/models"
)

func TestDiagnose_Milho(t *testing.T) {
	fit := mustFit(t, models.DesignSpec{Kind: models.DesignCRD, Response: "produtividade", Treatment: "variedade"}, mustDataset(t, "dic_milho"))

	for _, h := range fit.Leverage() {
		assert.InDelta(t, 0.2, h, 1e-12)
	}
	assert.Equal(t, 4, fit.Rank())

	d, err := Diagnose(fit, 0.05)
	require.NoError(t, err)
	require.Len(t, d.StandardizedResidual, 20)

	r := 2 / math.Sqrt(7*0.8)
	assert.InDelta(t, r, d.StandardizedResidual[0].Float(), 1e-9)
	assert.InDelta(t, r*r/4*0.25, d.CooksDistance[0].Float(), 1e-9)

	assert.InDelta(t, 0.9396, d.Shapiro.Statistic.Float(), 1e-3)
	assert.False(t, d.Shapiro.Rejected)

	assert.GreaterOrEqual(t, d.BreuschPagan.LMPValue.Float(), 0.0)
	assert.LessOrEqual(t, d.BreuschPagan.LMPValue.Float(), 1.0)
	assert.False(t, d.DurbinWatson.IsNaN())
}

func TestDiagnose_NilFit(t *testing.T) {
	_, err := Diagnose(nil, 0.05)
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestDurbinWatson(t *testing.T) {
	tests := []struct {
		name string
		e    []float64
		want float64
	}{
		{"alternating", []float64{1, -1, 1, -1}, 12.0 / 4},
		{"constant", []float64{1, 1, 1, 1}, 0},
		{"ramp", []float64{-1, 0, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, durbinWatson(tt.e), 1e-12)
		})
	}
	assert.True(t, math.IsNaN(durbinWatson([]float64{0, 0, 0})))
}

func TestBreuschPagan_RoundOffInConstantSquares(t *testing.T) {
	one := math.Nextafter(1, 2)
	e := []float64{1, -one, -1, one, 1, -1}
	x := withIntercept(len(e), [][]float64{{1, 1, 1, 0, 0, 0}})

	bp := breuschPagan(e, x)
	assert.True(t, bp.LM.IsNaN())
	assert.True(t, bp.LMPValue.IsNaN())
	assert.True(t, bp.F.IsNaN())
}

func TestBreuschPagan_ConstantSquaresIsNaN(t *testing.T) {
	fit := mustFit(t, models.DesignSpec{Kind: models.DesignCRD, Response: "y", Treatment: "g"}, &models.Dataset{
		Name: "pm", Header: []string{"g", "y"}, Rows: [][]string{
			{"a", "1"}, {"a", "3"}, {"b", "4"}, {"b", "6"},
		},
	})
	bp := breuschPagan(fit.Residuals(), modelMatrix(fit.frame, fit.design.terms))
	assert.True(t, bp.LM.IsNaN())
	assert.True(t, bp.F.IsNaN())
}
