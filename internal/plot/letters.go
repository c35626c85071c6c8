package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// LettersTitle is the title of CompactLetters figures.
const LettersTitle = "Treatment means with significance letters"

// CompactLetters draws one boxplot per group of result, in the result's
// group order, with the observations jittered over each box and the group
// letters printed above its maximum. labels and values are the raw
// observations the post-hoc test was run on.
func CompactLetters(labels []string, values []float64, result *models.PostHocResult, opts Options) (*plot.Plot, error) {
	if result == nil || len(result.Groups) == 0 {
		return nil, fmt.Errorf("letter plot: no groups to draw")
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("letter plot: %d labels for %d values", len(labels), len(values))
	}
	byGroup := make(map[string][]float64)
	for i, l := range labels {
		if !isNaNOrInf(values[i]) {
			byGroup[l] = append(byGroup[l], values[i])
		}
	}

	p := plot.New()
	p.Title.Text = LettersTitle
	p.X.Label.Text = result.Factor
	p.Y.Label.Text = "Response"
	p.Add(plotter.NewGrid())

	names := make([]string, len(result.Groups))
	letterXYs := make(plotter.XYs, len(result.Groups))
	letters := make([]string, len(result.Groups))
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i, g := range result.Groups {
		names[i] = g.Group
		vs := byGroup[g.Group]
		if len(vs) == 0 {
			return nil, fmt.Errorf("letter plot: no observations for group %q", g.Group)
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(vs))
		if err != nil {
			return nil, fmt.Errorf("letter plot: boxplot for %q: %w", g.Group, err)
		}
		box.GlyphStyle.Radius = 0
		p.Add(box)

		pts := make(plotter.XYs, len(vs))
		for j, v := range vs {
			pts[j] = plotter.XY{X: float64(i) + jitter(j), Y: v}
			ymin, ymax = math.Min(ymin, v), math.Max(ymax, v)
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("letter plot: points for %q: %w", g.Group, err)
		}
		sc.GlyphStyle.Color = opts.PointsColor
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)

		top := g.Max
		if isNaNOrInf(top) {
			top = maxOf(vs)
		}
		letterXYs[i] = plotter.XY{X: float64(i), Y: top}
		letters[i] = g.Letters
	}

	pad := 0.05 * (ymax - ymin)
	if pad == 0 {
		pad = 0.05 * math.Max(math.Abs(ymax), 1)
	}
	for i := range letterXYs {
		letterXYs[i].Y += pad
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: letterXYs, Labels: letters})
	if err != nil {
		return nil, fmt.Errorf("letter plot: labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = draw.XCenter
		lbl.TextStyle[i].Font.Size = vg.Points(12)
	}
	p.Add(lbl)

	p.NominalX(names...)
	p.Y.Max = math.Max(p.Y.Max, ymax+3*pad)
	return p, nil
}

// jitter spreads the j-th point of a group horizontally. The offsets are
// fixed so repeated renders are identical.
func jitter(j int) float64 {
	const spread = 0.15
	frac := math.Mod(float64(j)*0.618033988749895, 1)
	return (frac - 0.5) * 2 * spread
}

func maxOf(vs []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vs {
		m = math.Max(m, v)
	}
	return m
}

func isNaNOrInf(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
