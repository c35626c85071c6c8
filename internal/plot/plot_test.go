package plot

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/valter-silva-au/expdes/pkg/models"
)

func milho() ([]string, []float64, *models.PostHocResult) {
	labels := []string{"A", "A", "A", "A", "A", "B", "B", "B", "B", "B", "C", "C", "C", "C", "C", "D", "D", "D", "D", "D"}
	values := []float64{25, 26, 20, 23, 21, 31, 25, 28, 27, 24, 22, 26, 28, 25, 29, 33, 29, 31, 34, 28}
	result := &models.PostHocResult{
		Method: models.PostHocTukey,
		Factor: "variedade",
		Alpha:  0.05,
		Groups: []models.GroupMean{
			{Group: "D", Mean: 31, N: 5, Max: 34, Letters: "a"},
			{Group: "B", Mean: 27, N: 5, Max: 31, Letters: "ab"},
			{Group: "C", Mean: 26, N: 5, Max: 29, Letters: "b"},
			{Group: "A", Mean: 23, N: 5, Max: 26, Letters: "b"},
		},
	}
	return labels, values, result
}

func TestNewOptions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    float64
		colour  string
		want    Options
		wantErr bool
	}{
		{"defaults", 0, 0, "", DefaultOptions(), false},
		{"custom", 6, 4, "steelblue", Options{Width: 6 * vg.Inch, Height: 4 * vg.Inch, PointsColor: colornames.Steelblue}, false},
		{"negative size", -1, 4, "", Options{}, true},
		{"bad colour", 6, 4, "not-a-colour", Options{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewOptions(tt.w, tt.h, tt.colour)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.Color
		wantErr bool
	}{
		{"red", colornames.Red, false},
		{" Red ", colornames.Red, false},
		{"#c0392b", color.RGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}, false},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{"#12345", nil, true},
		{"#gggggg", nil, true},
		{"c0392b", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out/fig.png", "png", false},
		{"fig.SVG", "svg", false},
		{"fig.pdf", "pdf", false},
		{"fig.jpg", "", true},
		{"fig", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrUnsupportedFormat), tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}
}

func TestCompactLetters_Write(t *testing.T) {
	labels, values, result := milho()
	p, err := CompactLetters(labels, values, result, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, LettersTitle, p.Title.Text)
	assert.Equal(t, "variedade", p.X.Label.Text)
	assert.GreaterOrEqual(t, p.Y.Max, 34.0)

	tests := []struct {
		format string
		magic  string
	}{
		{"png", "\x89PNG"},
		{"svg", "<svg"},
		{"pdf", "%PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(p, &buf, tt.format, DefaultOptions()))
			assert.True(t, strings.Contains(buf.String()[:min(buf.Len(), 512)], tt.magic), "missing %q header", tt.magic)
		})
	}

	var buf bytes.Buffer
	assert.True(t, errors.Is(Write(p, &buf, "gif", DefaultOptions()), ErrUnsupportedFormat))
}

func TestCompactLetters_SVGContainsLetters(t *testing.T) {
	labels, values, result := milho()
	p, err := CompactLetters(labels, values, result, DefaultOptions())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(p, &buf, "svg", DefaultOptions()))
	svg := buf.String()
	for _, want := range []string{">ab<", ">D<", LettersTitle} {
		assert.Contains(t, svg, want)
	}
}

func TestCompactLetters_Errors(t *testing.T) {
	labels, values, result := milho()
	tests := []struct {
		name   string
		labels []string
		values []float64
		result *models.PostHocResult
	}{
		{"nil result", labels, values, nil},
		{"no groups", labels, values, &models.PostHocResult{}},
		{"length mismatch", labels[:3], values, result},
		{"missing group", labels[:5], values[:5], result},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompactLetters(tt.labels, tt.values, tt.result, DefaultOptions())
			assert.Error(t, err)
		})
	}
}

func TestJitterIsDeterministicAndBounded(t *testing.T) {
	for j := 0; j < 50; j++ {
		assert.Equal(t, jitter(j), jitter(j))
		assert.LessOrEqual(t, jitter(j), 0.15)
		assert.GreaterOrEqual(t, jitter(j), -0.15)
	}
}

func TestResidualFigures(t *testing.T) {
	fitted := []float64{23, 23, 27, 27, 26, 26, 31, 31}
	residuals := []float64{2, -3, 4, -2, -4, 3, 2, -2}

	rvf, err := ResidualsVsFitted(fitted, residuals, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Residuals vs fitted", rvf.Title.Text)

	qq, err := QQ(residuals, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Normal Q-Q", qq.Title.Text)

	hist, err := ResidualHistogram(residuals, 0, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Residual distribution", hist.Title.Text)

	cooks, err := CooksDistance([]float64{0.1, 0.5, 0.02, 0.9}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Cook's distance", cooks.Title.Text)

	for _, p := range []*plot.Plot{rvf, qq, hist, cooks} {
		var buf bytes.Buffer
		require.NoError(t, Write(p, &buf, "png", DefaultOptions()))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	}
}

func TestResidualFigures_Errors(t *testing.T) {
	_, err := ResidualsVsFitted([]float64{1, 2}, []float64{1}, DefaultOptions())
	assert.Error(t, err)
	_, err = QQ([]float64{1}, DefaultOptions())
	assert.Error(t, err)
	_, err = ResidualHistogram(nil, 0, DefaultOptions())
	assert.Error(t, err)
	_, err = CooksDistance(nil, DefaultOptions())
	assert.Error(t, err)
}

func TestPolynomialFit(t *testing.T) {
	x := []float64{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}
	y := []float64{2.6, 2.4, 3.2, 2.8, 3.5, 3.6, 3.9, 4.05, 4.45, 4.5}
	fit := models.PolynomialFit{Predictor: "dose", Response: "resposta", Degree: 1, Coefficients: []float64{2.0225, 0.4925}, R2: 0.9751}

	p, err := PolynomialFit(x, y, fit, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Polynomial fit (degree 1), R² = 0.9751", p.Title.Text)
	assert.Equal(t, "dose", p.X.Label.Text)

	_, err = PolynomialFit(x, y[:3], fit, DefaultOptions())
	assert.Error(t, err)
	_, err = PolynomialFit(x, y, models.PolynomialFit{}, DefaultOptions())
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	labels, values, result := milho()
	p, err := CompactLetters(labels, values, result, DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "milho.pdf")
	require.NoError(t, Save(p, path, DefaultOptions()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	err = Save(p, filepath.Join(t.TempDir(), "milho.bmp"), DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
