// Package render formats analysis results as terminal tables. Numbers are
// localised with golang.org/x/text and tables drawn with lipgloss.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/valter-silva-au/expdes/pkg/models"
)

var supportedTags = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
}

var matcher = language.NewMatcher(supportedTags)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	rejectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	acceptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// Renderer formats results for one locale.
type Renderer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Renderer for locale ("en", "pt-BR", ...). Unsupported
// locales fall back to the closest supported one; an unparsable locale is an
// error.
func New(locale string) (*Renderer, error) {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
		}
		_, idx, _ := matcher.Match(parsed)
		tag = supportedTags[idx]
	}
	return &Renderer{tag: tag, printer: message.NewPrinter(tag)}, nil
}

// Locale returns the tag numbers are formatted for.
func (r *Renderer) Locale() language.Tag { return r.tag }

// Number formats v with exactly prec decimals.
func (r *Renderer) Number(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return r.printer.Sprint(number.Decimal(v, number.Scale(prec)))
}

// Stat formats an optional statistic.
func (r *Renderer) Stat(s models.Stat, prec int) string { return r.Number(s.Float(), prec) }

// PValue formats a p-value with four decimals, flooring tiny values.
func (r *Renderer) PValue(p models.Stat) string {
	if !p.IsNaN() && p.Float() < 0.0001 {
		return "<" + r.Number(0.0001, 4)
	}
	return r.Stat(p, 4)
}

// Integer formats n with locale grouping.
func (r *Renderer) Integer(n int) string {
	return r.printer.Sprint(number.Decimal(n))
}

func title(s string) string { return titleStyle.Render(s) }

func note(s string) string { return noteStyle.Render(s) }

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func section(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n") + "\n"
}
