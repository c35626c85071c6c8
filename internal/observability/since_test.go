package observability

import (
	"strings"
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"7d", now.AddDate(0, 0, -7), false},
		{"30d", now.AddDate(0, 0, -30), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{" 1h ", now.Add(-time.Hour), false},
		{"", now.AddDate(0, 0, -7), false},
		{"x", time.Time{}, true},
		{"7x", time.Time{}, true},
		{"xd", time.Time{}, true},
		{"-3d", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSince(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSince_ErrorKinds(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  string
	}{
		{"abc", "unsupported duration format"},
		{"2w", "unsupported duration format"},
		{"x", "unsupported duration format"},
		{"xd", "invalid duration"},
		{"-3h", "invalid duration"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseSince(tt.input, now)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseSince(%q) error = %v, want it to contain %q", tt.input, err, tt.want)
			}
		})
	}
}
