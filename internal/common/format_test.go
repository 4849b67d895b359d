package common

import (
	"math"
	"strings"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.235, 1.24},
		{-1.235, -1.24},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedPct(t *testing.T) {
	if got := FormatSignedPct(1.256); got != "+1.26%" {
		t.Errorf("FormatSignedPct(1.256) = %q", got)
	}
	if got := FormatSignedPct(-0.5); got != "-0.50%" {
		t.Errorf("FormatSignedPct(-0.5) = %q", got)
	}
}

func TestFormatLargeNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{523456789012, "5234.57 亿"},
		{123456, "12.35 万"},
		{9999, "9999"},
	}
	for _, tt := range tests {
		if got := FormatLargeNumber(tt.in); got != tt.want {
			t.Errorf("FormatLargeNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCNY(t *testing.T) {
	got := FormatCNY(1649.77)
	if !strings.Contains(got, "1,649.77") {
		t.Errorf("FormatCNY(1649.77) = %q, want thousands separator and 2 decimals", got)
	}
}
