package plot

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// FileRenderer writes figures under a directory as <name>_<kind>.<format>.
type FileRenderer struct {
	dir    string
	format string
	opts   Options
}

// NewFileRenderer creates a renderer for dir. An empty format means png.
func NewFileRenderer(dir, format string, opts Options) (*FileRenderer, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		format = "png"
	}
	if !formats[format] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &FileRenderer{dir: dir, format: format, opts: opts}, nil
}

// Path returns the file a figure of kind for name is written to.
func (r *FileRenderer) Path(name, kind string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.%s", sanitize(name), kind, r.format))
}

func (r *FileRenderer) save(p *plot.Plot, name, kind string) (string, error) {
	path := r.Path(name, kind)
	if err := Save(p, path, r.opts); err != nil {
		return "", err
	}
	return path, nil
}

// LetterPlot writes the compact-letter boxplot of one post-hoc result.
func (r *FileRenderer) LetterPlot(name string, labels []string, values []float64, result *models.PostHocResult) (string, error) {
	p, err := CompactLetters(labels, values, result, r.opts)
	if err != nil {
		return "", err
	}
	return r.save(p, name, "letters")
}

// ResidualPlots writes the residuals-vs-fitted, Q-Q, histogram and Cook's
// distance figures. Without diagnostics the Q-Q plot uses residuals scaled
// by their standard deviation and Cook's distance is skipped.
func (r *FileRenderer) ResidualPlots(name string, fitted, residuals []float64, diag *models.RegressionDiagnostics) ([]string, error) {
	var paths []string
	add := func(p *plot.Plot, err error, kind string) error {
		if err != nil {
			return err
		}
		path, err := r.save(p, name, kind)
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	rvf, err := ResidualsVsFitted(fitted, residuals, r.opts)
	if err := add(rvf, err, "residuals"); err != nil {
		return nil, err
	}

	standardized := scaled(residuals)
	if diag != nil && len(diag.StandardizedResidual) > 0 {
		standardized = statFloats(diag.StandardizedResidual)
	}
	qq, err := QQ(standardized, r.opts)
	if err := add(qq, err, "qq"); err != nil {
		return nil, err
	}

	hist, err := ResidualHistogram(residuals, 0, r.opts)
	if err := add(hist, err, "histogram"); err != nil {
		return nil, err
	}

	if diag != nil && len(diag.CooksDistance) > 0 {
		cooks, err := CooksDistance(statFloats(diag.CooksDistance), r.opts)
		if err := add(cooks, err, "cooks"); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// PolynomialPlot writes the fitted-curve figure of a regression.
func (r *FileRenderer) PolynomialPlot(name string, x, y []float64, fit models.PolynomialFit) (string, error) {
	p, err := PolynomialFit(x, y, fit, r.opts)
	if err != nil {
		return "", err
	}
	return r.save(p, name, fmt.Sprintf("poly%d", fit.Degree))
}

func statFloats(ss []models.Stat) []float64 {
	out := make([]float64, len(ss))
	for i, s := range ss {
		out[i] = s.Float()
	}
	return out
}

// scaled divides residuals by their root mean square.
func scaled(residuals []float64) []float64 {
	vs := finite(residuals)
	var ss float64
	for _, v := range vs {
		ss += v * v
	}
	out := make([]float64, len(residuals))
	if len(vs) == 0 || ss == 0 {
		return out
	}
	rms := math.Sqrt(ss / float64(len(vs)))
	for i, v := range residuals {
		out[i] = v / rms
	}
	return out
}

// sanitize keeps figure names usable as file names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
