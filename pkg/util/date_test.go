package util

import (
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-10-10", "20241010", "2024/10/10", "2024-10-10 15:00:00", "2024-10-10T00:00:00"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("unexpected day %v for %q", got, s)
		}
	}
}

func TestParseDateUnixMillis(t *testing.T) {
	ms := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).UnixMilli()
	got, ok := ParseDate(formatInt(ms))
	if !ok {
		t.Fatalf("expected ok")
	}
	if DateKey(got) != "2024-10-10" {
		t.Fatalf("unexpected day %v", got)
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("--", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestWindowFrom(t *testing.T) {
	now := time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)
	if got := DateKey(WindowFrom(now, 0)); got != "2024-03-01" {
		t.Fatalf("unexpected window start %s", got)
	}
}
