package testutil

import (
	"math"
	"testing"
)

func TestRequireSliceNearlyEqual(t *testing.T) {
	RequireSliceNearlyEqual(t, []float64{1, 2}, []float64{1 + 1e-12, 2}, 1e-9)
}

func TestRequireFinite(t *testing.T) {
	RequireFinite(t, []float64{0, -1, 1e300})
}

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float64{1, 2, 3}, []float64{1, 2.5, 2})
	if err != nil {
		t.Fatalf("MaxAbsDiff() error = %v", err)
	}
	if d != 1 {
		t.Fatalf("MaxAbsDiff() = %v, want 1", d)
	}
	if _, err := MaxAbsDiff([]float64{1}, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestLagResolution(t *testing.T) {
	got := LagResolution(44100, 441)
	want := 44100.0/440 - 100
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("LagResolution() = %v, want %v", got, want)
	}
	if !math.IsInf(LagResolution(44100, 1), 1) {
		t.Fatal("expected +Inf for lag 1")
	}
}

func TestBinResolution(t *testing.T) {
	if got := BinResolution(48000, 2048); math.Abs(got-23.4375) > 1e-12 {
		t.Fatalf("BinResolution() = %v, want 23.4375", got)
	}
}
