package model

import (
	"math"
	"testing"
)

func TestRidge_FitLinear(t *testing.T) {
	// y = 3 + 2*x1 - x2, no noise.
	var X [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		x1 := float64(i)
		x2 := float64(i%7) * 3
		X = append(X, []float64{x1, x2})
		y = append(y, 3+2*x1-x2)
	}

	est := &ridge{Lambda: 0.001}
	if err := est.fit(X, y); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for i, x := range X {
		got := est.predict(x)
		if math.Abs(got-y[i]) > 0.1 {
			t.Errorf("Expected prediction near %v, got %v", y[i], got)
		}
	}
}

func TestRidge_ConstantColumn(t *testing.T) {
	// A zero-variance feature must not blow up standardization.
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	y := []float64{2, 4, 6, 8}

	est := &ridge{Lambda: 0.001}
	if err := est.fit(X, y); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	got := est.predict([]float64{2.5, 5})
	if math.Abs(got-5) > 0.2 {
		t.Errorf("Expected prediction near 5, got %v", got)
	}
	if math.IsNaN(got) {
		t.Error("Expected finite prediction with constant column")
	}
}

func TestRSquared_PerfectFit(t *testing.T) {
	vals := []float64{1, 2, 3, 4}
	if got := rSquared(vals, vals); math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected R2 of 1 for perfect fit, got %v", got)
	}
}
