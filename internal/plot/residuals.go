package plot

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var dashed = []vg.Length{vg.Points(5), vg.Points(3)}

// ResidualsVsFitted scatters residuals against fitted values with a dashed
// zero line.
func ResidualsVsFitted(fitted, residuals []float64, opts Options) (*plot.Plot, error) {
	if len(fitted) != len(residuals) {
		return nil, fmt.Errorf("residual plot: %d fitted values for %d residuals", len(fitted), len(residuals))
	}
	pts := make(plotter.XYs, 0, len(fitted))
	for i := range fitted {
		if isNaNOrInf(fitted[i]) || isNaNOrInf(residuals[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: fitted[i], Y: residuals[i]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("residual plot: no finite residuals")
	}

	p := plot.New()
	p.Title.Text = "Residuals vs fitted"
	p.X.Label.Text = "Fitted values"
	p.Y.Label.Text = "Residuals"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("residual plot: %w", err)
	}
	sc.GlyphStyle.Color = opts.PointsColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	xmin, xmax := pts[0].X, pts[0].X
	for _, pt := range pts {
		xmin, xmax = math.Min(xmin, pt.X), math.Max(xmax, pt.X)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: 0}, {X: xmax, Y: 0}})
	if err != nil {
		return nil, fmt.Errorf("residual plot: %w", err)
	}
	zero.LineStyle.Dashes = dashed
	zero.LineStyle.Color = plotutil.Color(2)
	p.Add(zero)
	return p, nil
}

// QQ plots the ordered standardized residuals against normal quantiles at
// plotting positions i/(n+1), with the y = x reference line.
func QQ(standardized []float64, opts Options) (*plot.Plot, error) {
	vs := finite(standardized)
	if len(vs) < 2 {
		return nil, fmt.Errorf("qq plot: need at least two residuals, got %d", len(vs))
	}
	sort.Float64s(vs)
	n := float64(len(vs))
	pts := make(plotter.XYs, len(vs))
	for i, v := range vs {
		pts[i] = plotter.XY{X: distuv.UnitNormal.Quantile(float64(i+1) / (n + 1)), Y: v}
	}

	p := plot.New()
	p.Title.Text = "Normal Q-Q"
	p.X.Label.Text = "Theoretical quantiles"
	p.Y.Label.Text = "Standardized residuals"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("qq plot: %w", err)
	}
	sc.GlyphStyle.Color = opts.PointsColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	lo := math.Min(pts[0].X, pts[0].Y)
	hi := math.Max(pts[len(pts)-1].X, pts[len(pts)-1].Y)
	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, fmt.Errorf("qq plot: %w", err)
	}
	ref.LineStyle.Color = plotutil.Color(1)
	p.Add(ref)
	return p, nil
}

// ResidualHistogram draws a density-normalised histogram of residuals with
// the matching normal curve. Bins default to Sturges' rule.
func ResidualHistogram(residuals []float64, bins int, opts Options) (*plot.Plot, error) {
	vs := finite(residuals)
	if len(vs) < 2 {
		return nil, fmt.Errorf("histogram: need at least two residuals, got %d", len(vs))
	}
	if bins <= 0 {
		bins = int(math.Ceil(math.Log2(float64(len(vs))))) + 1
	}

	p := plot.New()
	p.Title.Text = "Residual distribution"
	p.X.Label.Text = "Residuals"
	p.Y.Label.Text = "Density"

	h, err := plotter.NewHist(plotter.Values(vs), bins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	h.Normalize(1)
	h.FillColor = plotutil.Color(0)
	p.Add(h)

	mu, sd := stat.MeanStdDev(vs, nil)
	if sd > 0 {
		curve := plotter.NewFunction(distuv.Normal{Mu: mu, Sigma: sd}.Prob)
		curve.XMin, curve.XMax = mu-4*sd, mu+4*sd
		curve.Samples = 100
		curve.Color = opts.PointsColor
		p.Add(curve)
	}
	return p, nil
}

// CooksDistance draws one stem per observation with the 4/n guide line.
func CooksDistance(cooks []float64, opts Options) (*plot.Plot, error) {
	if len(cooks) == 0 {
		return nil, fmt.Errorf("cook's distance plot: no observations")
	}
	vals := make(plotter.Values, len(cooks))
	for i, d := range cooks {
		if isNaNOrInf(d) {
			d = 0
		}
		vals[i] = d
	}

	p := plot.New()
	p.Title.Text = "Cook's distance"
	p.X.Label.Text = "Observation"
	p.Y.Label.Text = "Distance"

	bars, err := plotter.NewBarChart(vals, vg.Points(1.5))
	if err != nil {
		return nil, fmt.Errorf("cook's distance plot: %w", err)
	}
	bars.Color = opts.PointsColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	tops := make(plotter.XYs, len(vals))
	for i, v := range vals {
		tops[i] = plotter.XY{X: float64(i), Y: v}
	}
	sc, err := plotter.NewScatter(tops)
	if err != nil {
		return nil, fmt.Errorf("cook's distance plot: %w", err)
	}
	sc.GlyphStyle.Color = opts.PointsColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	cut := 4 / float64(len(vals))
	guide, err := plotter.NewLine(plotter.XYs{{X: 0, Y: cut}, {X: float64(len(vals) - 1), Y: cut}})
	if err != nil {
		return nil, fmt.Errorf("cook's distance plot: %w", err)
	}
	guide.LineStyle.Dashes = dashed
	guide.LineStyle.Color = plotutil.Color(2)
	p.Add(guide)
	return p, nil
}
