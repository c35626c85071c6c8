package core

import (
	"strings"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Summarize describes every column of ds: kind, missing cells, most frequent
// value and distinct values (listed when fewer than ten).
func Summarize(ds *models.Dataset) []models.ColumnSummary {
	if ds == nil {
		return nil
	}
	total := len(ds.Rows)
	out := make([]models.ColumnSummary, 0, len(ds.Header))
	for c, name := range ds.Header {
		s := models.ColumnSummary{Column: name, Kind: models.ColumnNumeric}
		counts := make(map[string]int)
		var order []string
		numeric := false
		for _, row := range ds.Rows {
			if c >= len(row) || isMissing(row[c]) {
				s.Missing++
				continue
			}
			v := strings.TrimSpace(row[c])
			if _, ok := counts[v]; !ok {
				order = append(order, v)
			}
			counts[v]++
			if _, err := parseNumber(v); err != nil {
				s.Kind = models.ColumnText
			} else {
				numeric = true
			}
		}
		if !numeric {
			s.Kind = models.ColumnText
		}
		if total > 0 {
			s.MissingPct = float64(s.Missing) / float64(total) * 100
		}

		s.Unique = len(order)
		if len(order) == 0 {
			s.TopClass = "..."
			s.TopClassPct = models.NaN()
		} else {
			top := order[0]
			for _, v := range order[1:] {
				if counts[v] > counts[top] {
					top = v
				}
			}
			s.TopClass = top
			s.TopClassPct = models.Stat(float64(counts[top]) / float64(total) * 100)
		}
		if s.Unique < 10 {
			s.UniqueValues = order
		}
		out = append(out, s)
	}
	return out
}
