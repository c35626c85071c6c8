package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQtukey_KnownQuantiles(t *testing.T) {
	tests := []struct {
		p, nmeans, df float64
		want          float64
	}{
		{0.95, 3, 10, 3.877},
		{0.95, 4, 16, 4.046},
		{0.95, 2, 1000, 2.775},
	}
	for _, tt := range tests {
		got := Qtukey(tt.p, tt.nmeans, tt.df)
		assert.InDelta(t, tt.want, got, 2e-3, "Qtukey(%v, %v, %v)", tt.p, tt.nmeans, tt.df)
	}
}

func TestPtukey_InvertsQtukey(t *testing.T) {
	for _, k := range []float64{2, 3, 5, 8} {
		for _, df := range []float64{5, 12, 60, 200} {
			q := Qtukey(0.95, k, df)
			assert.InDelta(t, 0.95, Ptukey(q, k, df), 1e-4, "k=%v df=%v", k, df)
		}
	}
}

func TestPtukey_TwoMeansMatchesNormalRange(t *testing.T) {
	// With two means and huge df the range of two standard normals is
	// |Z1 - Z2|, so P(range < q) = 2*Phi(q/sqrt2) - 1.
	q := 2.5
	want := 2*pnorm(q/math.Sqrt2) - 1
	assert.InDelta(t, want, Ptukey(q, 2, 30000), 1e-6)
}

func TestPtukey_Edges(t *testing.T) {
	assert.Equal(t, 0.0, Ptukey(0, 3, 10))
	assert.Equal(t, 0.0, Ptukey(-1, 3, 10))
	assert.Equal(t, 1.0, Ptukey(math.Inf(1), 3, 10))
	assert.True(t, math.IsNaN(Ptukey(2, 1, 10)))
	assert.True(t, math.IsNaN(Ptukey(2, 3, 1)))
	assert.Equal(t, 0.0, Qtukey(0, 3, 10))
	assert.True(t, math.IsInf(Qtukey(1, 3, 10), 1))
	assert.True(t, math.IsNaN(Qtukey(1.5, 3, 10)))
}
