package utils

import (
	"math"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("Truncate zero = %q", got)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// 4 bytes lands mid-rune; the cut must back off to a boundary.
	got := Truncate("日本語", 4)
	if got != "日..." {
		t.Errorf("Truncate multi-byte = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", sum)
	}

	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
