// Package plot draws analysis figures with gonum/plot: boxplots annotated
// with compact letters, residual diagnostics and fitted polynomials.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Supported output formats.
var formats = map[string]bool{"png": true, "svg": true, "pdf": true}

// ErrUnsupportedFormat is returned for an output format other than png, svg
// or pdf.
var ErrUnsupportedFormat = errors.New("unsupported plot format")

// Options control the size and colours of rendered figures.
type Options struct {
	Width       vg.Length
	Height      vg.Length
	PointsColor color.Color
}

// DefaultOptions is an 8x5 inch figure with red points.
func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 5 * vg.Inch, PointsColor: colornames.Red}
}

// NewOptions builds Options from sizes in inches and a colour name. Zero
// sizes and an empty colour keep the defaults.
func NewOptions(widthIn, heightIn float64, pointsColor string) (Options, error) {
	opts := DefaultOptions()
	if widthIn < 0 || heightIn < 0 {
		return opts, fmt.Errorf("plot size %gx%g must be positive", widthIn, heightIn)
	}
	if widthIn > 0 {
		opts.Width = vg.Length(widthIn) * vg.Inch
	}
	if heightIn > 0 {
		opts.Height = vg.Length(heightIn) * vg.Inch
	}
	if pointsColor != "" {
		c, err := ParseColor(pointsColor)
		if err != nil {
			return opts, err
		}
		opts.PointsColor = c
	}
	return opts, nil
}

// ParseColor accepts an SVG colour name ("red", "steelblue") or a hex
// triplet ("#c0392b", "#fff").
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(name, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown colour %q", s)
}

// FormatOf returns the output format implied by the extension of path.
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return "", fmt.Errorf("%w: %q (use .png, .svg or .pdf)", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return ext, nil
}

// Save writes p to path in the format given by its extension.
func Save(p *plot.Plot, path string, opts Options) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating plot directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(p, f, format, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// Write renders p to w as format (png, svg or pdf).
func Write(p *plot.Plot, w io.Writer, format string, opts Options) error {
	format = strings.ToLower(format)
	if !formats[format] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	return nil
}

func finite(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !isNaNOrInf(v) {
			out = append(out, v)
		}
	}
	return out
}
