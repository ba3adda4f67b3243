package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloat reads a provider cell. Placeholders such as "-" or "--" give NaN;
// thousands separators and a trailing percent sign are stripped.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	switch s {
	case "", "-", "--", "---", "null", "None", "nan", "NaN":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseFloatDefault is ParseFloat with a fallback for missing cells.
func ParseFloatDefault(s string, def float64) float64 {
	if v := ParseFloat(s); !math.IsNaN(v) {
		return v
	}
	return def
}

// Round rounds v to n decimals. NaN passes through.
func Round(v float64, n int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
