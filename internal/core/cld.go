package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Letter orders accepted by AssignLetters.
const (
	OrderDescending   = "descending"
	OrderAscending    = "ascending"
	OrderAlphabetical = "alphabetical"
)

// CLDOptions control how groups are ordered before letters are assigned.
type CLDOptions struct {
	Alpha float64
	// Order is descending, ascending or alphabetical (the default).
	Order string
	// Levels, when set, is the explicit order and overrides Order.
	Levels []string
	// Median ranks groups by median instead of mean.
	Median bool
	// Data supplies group values for descending and ascending orders.
	Data *Samples
}

// ValidLetterOrder reports whether order names a supported ordering.
func ValidLetterOrder(order string) bool {
	switch order {
	case "", OrderDescending, OrderAscending, OrderAlphabetical:
		return true
	}
	return false
}

// AssignLetters builds a compact letter display from pairwise comparisons:
// groups sharing a letter are not significantly different at opts.Alpha.
func AssignLetters(cmp []models.Comparison, opts CLDOptions) (map[string]string, error) {
	alpha := opts.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}

	significant := make(map[[2]string]bool, len(cmp))
	for _, c := range cmp {
		if c.PValue.IsNaN() || c.PValue.Float() >= alpha {
			continue
		}
		significant[[2]string{c.Group1, c.Group2}] = true
		significant[[2]string{c.Group2, c.Group1}] = true
	}

	order, err := letterOrder(cmp, opts)
	if err != nil {
		return nil, err
	}

	var sets [][]string
	for _, l1 := range order {
		draft := []string{l1}
		for _, l2 := range order {
			if l2 == l1 || significant[[2]string{l1, l2}] {
				continue
			}
			ok := true
			for _, member := range draft {
				if significant[[2]string{member, l2}] {
					ok = false
					break
				}
			}
			if ok {
				draft = append(draft, l2)
			}
		}
		if !containsSet(sets, draft) {
			sets = append(sets, draft)
		}
	}
	sets = dropSubsets(sets)

	letters := make(map[string]string, len(order))
	for _, g := range order {
		var b strings.Builder
		for i, s := range sets {
			if inSet(s, g) {
				b.WriteString(letterFor(i))
			}
		}
		letters[g] = b.String()
	}
	return letters, nil
}

func letterOrder(cmp []models.Comparison, opts CLDOptions) ([]string, error) {
	if len(opts.Levels) > 0 {
		return append([]string(nil), opts.Levels...), nil
	}
	switch opts.Order {
	case "", OrderAlphabetical:
		seen := make(map[string]bool)
		var out []string
		add := func(g string) {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
		for _, c := range cmp {
			add(c.Group1)
			add(c.Group2)
		}
		if opts.Data != nil {
			for _, l := range opts.Data.Labels {
				add(l)
			}
		}
		sort.Strings(out)
		return out, nil
	case OrderDescending, OrderAscending:
		if opts.Data == nil || len(opts.Data.Values) == 0 {
			return nil, fmt.Errorf("ordering groups %s requires the group data", opts.Order)
		}
		var labels []string
		var values []float64
		for i, v := range opts.Data.Values {
			if i < len(opts.Data.Labels) && !math.IsNaN(v) {
				labels = append(labels, opts.Data.Labels[i])
				values = append(values, v)
			}
		}
		groups := groupValues(labels, values)
		key := make(map[string]float64, len(groups))
		out := make([]string, len(groups))
		for i, g := range groups {
			out[i] = g.label
			if opts.Median {
				key[g.label] = median(g.values)
			} else {
				key[g.label] = g.mean
			}
		}
		asc := opts.Order == OrderAscending
		sort.SliceStable(out, func(i, j int) bool {
			if asc {
				return key[out[i]] < key[out[j]]
			}
			return key[out[i]] > key[out[j]]
		})
		return out, nil
	}
	return nil, fmt.Errorf("unknown letter order %q", opts.Order)
}

// letterFor returns a, b, ..., z, aa, ab, ...
func letterFor(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('a'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

func inSet(set []string, g string) bool {
	for _, m := range set {
		if m == g {
			return true
		}
	}
	return false
}

func isSubset(a, b []string) bool {
	for _, m := range a {
		if !inSet(b, m) {
			return false
		}
	}
	return true
}

func containsSet(sets [][]string, s []string) bool {
	for _, other := range sets {
		if len(other) == len(s) && isSubset(s, other) {
			return true
		}
	}
	return false
}

// dropSubsets removes sets strictly contained in another set.
func dropSubsets(sets [][]string) [][]string {
	var out [][]string
	for i, s := range sets {
		redundant := false
		for j, other := range sets {
			if i != j && len(s) < len(other) && isSubset(s, other) {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, s)
		}
	}
	return out
}
