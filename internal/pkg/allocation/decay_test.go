package allocation

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDecayFactor_Boundaries(t *testing.T) {
	for _, halfLife := range []float64{7, 15, 21, 90} {
		if got := DecayFactor(0, halfLife); got != 1.0 {
			t.Errorf("DecayFactor(0, %v) = %v, want exactly 1", halfLife, got)
		}
		if got := DecayFactor(halfLife, halfLife); got != 0.5 {
			t.Errorf("DecayFactor(H, H) with H=%v = %v, want exactly 0.5", halfLife, got)
		}
	}
}

func TestDecayFactor_InUnitInterval(t *testing.T) {
	for _, days := range []float64{0, 1, 15, 90, 365, 10000} {
		got := DecayFactor(days, 15)
		if got <= 0 || got > 1 {
			t.Errorf("DecayFactor(%v, 15) = %v, want in (0, 1]", days, got)
		}
	}
}

func TestCarryover_QuarterScenario(t *testing.T) {
	// 1000 allocated, 800 used, a full quarter elapsed with a 15-day
	// half-life: almost all past usage is forgiven.
	d := Carryover(1000, 800, 90, 15)
	if !almostEqual(d.DecayFactor, 0.015625, 1e-9) {
		t.Errorf("decay factor = %v, want 2^-6", d.DecayFactor)
	}
	if !almostEqual(d.EffectiveUsage, 12.5, 1e-9) {
		t.Errorf("effective usage = %v, want 12.5", d.EffectiveUsage)
	}
	if !almostEqual(d.UnusedAllocation, 987.5, 1e-9) {
		t.Errorf("unused = %v, want 987.5", d.UnusedAllocation)
	}
	if !almostEqual(d.NewTotalAllocation, 1987.5, 1e-9) {
		t.Errorf("new total = %v, want 1987.5", d.NewTotalAllocation)
	}
	if got := Fairshare(d.NewTotalAllocation); got != 662 {
		t.Errorf("fairshare = %v, want 662", got)
	}
}

func TestCarryover_OveruseFloorsAtZero(t *testing.T) {
	for _, prevUsage := range []float64{0, 1000, 1e6, 1e12} {
		for _, base := range []float64{0, 100, 1000} {
			d := Carryover(base, prevUsage, 10, 15)
			if d.UnusedAllocation < 0 {
				t.Errorf("unused = %v for base=%v usage=%v, want >= 0", d.UnusedAllocation, base, prevUsage)
			}
			if d.NewTotalAllocation < base {
				t.Errorf("new total = %v for base=%v usage=%v, want >= base", d.NewTotalAllocation, base, prevUsage)
			}
		}
	}
}

func TestCarryover_NoUsageDoublesBase(t *testing.T) {
	d := Carryover(500, 0, 90, 15)
	if d.NewTotalAllocation != 1000 {
		t.Errorf("new total = %v, want 1000", d.NewTotalAllocation)
	}
}

func TestFairshare_Floor(t *testing.T) {
	cases := []struct {
		total float64
		want  int64
	}{
		{0, 1},
		{1, 1},
		{2.9, 1},
		{3, 1},
		{6, 2},
		{1987.5, 662},
	}
	for _, tc := range cases {
		if got := Fairshare(tc.total); got != tc.want {
			t.Errorf("Fairshare(%v) = %v, want %v", tc.total, got, tc.want)
		}
	}
}
