package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// PolynomialFit draws the observations and the fitted polynomial curve over
// the range of x.
func PolynomialFit(x, y []float64, fit models.PolynomialFit, opts Options) (*plot.Plot, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("polynomial plot: %d x values for %d responses", len(x), len(y))
	}
	if len(fit.Coefficients) == 0 {
		return nil, fmt.Errorf("polynomial plot: no coefficients")
	}
	pts := make(plotter.XYs, 0, len(x))
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i := range x {
		if isNaNOrInf(x[i]) || isNaNOrInf(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		xmin, xmax = math.Min(xmin, x[i]), math.Max(xmax, x[i])
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("polynomial plot: no finite observations")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Polynomial fit (degree %d), R² = %.4f", fit.Degree, fit.R2)
	p.X.Label.Text = fit.Predictor
	p.Y.Label.Text = fit.Response
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("polynomial plot: %w", err)
	}
	sc.GlyphStyle.Color = opts.PointsColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	coef := fit.Coefficients
	curve := plotter.NewFunction(func(v float64) float64 {
		var out float64
		for i := len(coef) - 1; i >= 0; i-- {
			out = out*v + coef[i]
		}
		return out
	})
	curve.XMin, curve.XMax = xmin, xmax
	curve.Samples = 200
	curve.Color = plotutil.Color(1)
	curve.Width = vg.Points(1.5)
	p.Add(curve)
	p.Legend.Add("observed", sc)
	p.Legend.Add("fitted", curve)
	p.Legend.Top = true
	return p, nil
}
