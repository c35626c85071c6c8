package core

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// missingTokens are cell values treated as absent.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"n/a":  true,
	"null": true,
}

func isMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// thousandsGrouped matches values such as "1,000" whose comma may be a
// thousands separator rather than a decimal comma.
var thousandsGrouped = regexp.MustCompile(`^[+-]?[1-9][0-9]{0,2},[0-9]{3}$`)

// parseNumber parses a cell as float64, accepting a decimal comma. Values
// that read equally well with a thousands separator are rejected.
func parseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if thousandsGrouped.MatchString(s) {
			return 0, fmt.Errorf("ambiguous number %q: the comma may separate thousands", s)
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// factor is a categorical column coded by level index.
type factor struct {
	name   string
	levels []string
	codes  []int
}

func newFactor(name string, values []string) *factor {
	f := &factor{name: name, codes: make([]int, len(values))}
	index := make(map[string]int)
	for i, v := range values {
		v = strings.TrimSpace(v)
		code, ok := index[v]
		if !ok {
			code = len(f.levels)
			index[v] = code
			f.levels = append(f.levels, v)
		}
		f.codes[i] = code
	}
	return f
}

// label returns the level of observation i.
func (f *factor) label(i int) string { return f.levels[f.codes[i]] }

// frame is the complete-case subset of a dataset restricted to the columns a
// design uses, with the response parsed and every other column coded.
type frame struct {
	response string
	y        []float64
	factors  map[string]*factor
}

func (fr *frame) n() int { return len(fr.y) }

// buildFrame extracts response and factor columns, dropping rows where any
// of them is missing.
func buildFrame(ds *models.Dataset, response string, factorCols []string) (*frame, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return nil, fmt.Errorf("building frame: %w: dataset is empty", ErrInsufficientData)
	}

	respIdx := ds.ColumnIndex(response)
	if respIdx < 0 {
		return nil, fmt.Errorf("building frame: response column %q not found", response)
	}
	idx := make([]int, len(factorCols))
	for i, c := range factorCols {
		idx[i] = ds.ColumnIndex(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("building frame: factor column %q not found", c)
		}
	}

	var y []float64
	cols := make([][]string, len(factorCols))
	for r, row := range ds.Rows {
		if respIdx >= len(row) || isMissing(row[respIdx]) {
			continue
		}
		skip := false
		for _, j := range idx {
			if j >= len(row) || isMissing(row[j]) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		v, err := parseNumber(row[respIdx])
		if err != nil {
			return nil, fmt.Errorf("building frame: row %d: response %q is not numeric: %w", r+1, row[respIdx], err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		y = append(y, v)
		for i, j := range idx {
			cols[i] = append(cols[i], row[j])
		}
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("building frame: %w: no complete rows", ErrInsufficientData)
	}

	fr := &frame{response: response, y: y, factors: make(map[string]*factor, len(factorCols))}
	for i, c := range factorCols {
		if _, dup := fr.factors[c]; dup {
			continue
		}
		f := newFactor(c, cols[i])
		if len(f.levels) < 2 {
			return nil, fmt.Errorf("building frame: %w: factor %q has a single level", ErrInsufficientData, c)
		}
		fr.factors[c] = f
	}
	return fr, nil
}

// cellLabels joins the levels of several factors per observation, producing
// the labels of their crossed combinations.
func (fr *frame) cellLabels(names []string) []string {
	out := make([]string, fr.n())
	for i := range out {
		parts := make([]string, len(names))
		for j, name := range names {
			parts[j] = fr.factors[name].label(i)
		}
		out[i] = strings.Join(parts, ":")
	}
	return out
}

// groupStat summarises the observations of one group.
type groupStat struct {
	label  string
	values []float64
	n      int
	mean   float64
	vari   float64
	max    float64
}

// groupValues partitions values by label. Groups are returned sorted by label.
func groupValues(labels []string, values []float64) []groupStat {
	byLabel := make(map[string][]float64)
	var order []string
	for i, l := range labels {
		if _, ok := byLabel[l]; !ok {
			order = append(order, l)
		}
		byLabel[l] = append(byLabel[l], values[i])
	}
	sortLabels(order)

	out := make([]groupStat, len(order))
	for i, l := range order {
		out[i] = newGroupStat(l, byLabel[l])
	}
	return out
}

// newGroupStat summarises a non-empty group. A single observation has zero
// variance.
func newGroupStat(label string, vs []float64) groupStat {
	g := groupStat{label: label, values: vs, n: len(vs), max: floats.Max(vs)}
	g.mean, g.vari = stat.MeanVariance(vs, nil)
	if g.n < 2 {
		g.vari = 0
	}
	return g
}

// sortLabels orders labels numerically when every label parses as a number,
// lexically otherwise.
func sortLabels(labels []string) {
	numeric := true
	nums := make(map[string]float64, len(labels))
	for _, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[l] = v
	}
	if numeric {
		sort.SliceStable(labels, func(i, j int) bool { return nums[labels[i]] < nums[labels[j]] })
		return
	}
	sort.Strings(labels)
}
