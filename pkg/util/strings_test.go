package util

import (
	"math"
	"testing"
)

func TestParseFloat(t *testing.T) {
	if v := ParseFloat("1,234.5"); v != 1234.5 {
		t.Fatalf("unexpected %v", v)
	}
	if v := ParseFloat("2.35%"); v != 2.35 {
		t.Fatalf("unexpected %v", v)
	}
	for _, s := range []string{"", "-", "--", "abc"} {
		if v := ParseFloat(s); !math.IsNaN(v) {
			t.Fatalf("expected NaN for %q, got %v", s, v)
		}
	}
}

func TestParseFloatDefault(t *testing.T) {
	if v := ParseFloatDefault("--", 1.7); v != 1.7 {
		t.Fatalf("expected fallback, got %v", v)
	}
}

func TestRoundAndClip(t *testing.T) {
	if v := Round(2.345678, 2); v != 2.35 {
		t.Fatalf("unexpected %v", v)
	}
	if v := Clip(3, -1, 1); v != 1 {
		t.Fatalf("unexpected %v", v)
	}
	if !math.IsNaN(Round(math.NaN(), 1)) {
		t.Fatalf("expected NaN to pass through")
	}
}
