package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSince turns a window such as "7d" or "24h" into the instant that long
// before now. An empty window means seven days.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}
	unit := s[len(s)-1]
	if len(s) < 2 || (unit != 'd' && unit != 'h') {
		return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
	}
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q (use e.g. 7d, 30d, 24h)", s)
	}
	if unit == 'd' {
		return now.AddDate(0, 0, -num), nil
	}
	return now.Add(-time.Duration(num) * time.Hour), nil
}
