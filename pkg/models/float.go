package models

import (
	"encoding/json"
	"math"
)

// Stat is a float64 statistic that may legitimately be undefined (NaN), such
// as the F value of a residual row. It marshals NaN and ±Inf to JSON null.
type Stat float64

// NaN returns an undefined statistic.
func NaN() Stat { return Stat(math.NaN()) }

// IsNaN reports whether the statistic is undefined.
func (s Stat) IsNaN() bool { return math.IsNaN(float64(s)) }

// Float returns the statistic as a float64.
func (s Stat) Float() float64 { return float64(s) }

func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}
