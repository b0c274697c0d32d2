package allocation

import "testing"

var names = QoSNames{Normal: "hpc-normal", Slowdown: "hpc-slow", Blocked: "hpc-blocked"}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		usage float64
		want  Level
	}{
		{0, LevelNormal},
		{99.9, LevelNormal},
		{100, LevelSlowdown},
		{119.9, LevelSlowdown},
		{120, LevelBlocked},
		{1e9, LevelBlocked},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.usage, 100, 120); got != tc.want {
			t.Errorf("LevelFor(%v, 100, 120) = %v, want %v", tc.usage, got, tc.want)
		}
	}
}

func TestLevelFor_MonotoneInUsage(t *testing.T) {
	rank := map[Level]int{LevelNormal: 0, LevelSlowdown: 1, LevelBlocked: 2}
	prev := -1
	for usage := 0.0; usage <= 200; usage += 0.5 {
		r := rank[LevelFor(usage, 100, 120)]
		if r < prev {
			t.Fatalf("level degraded backwards at usage=%v", usage)
		}
		prev = r
	}
}

func TestEvaluate(t *testing.T) {
	tr := Evaluate(LevelNormal, 50, 100, 120, names)
	if tr.Changed || tr.Level != LevelNormal || tr.QoSName != "" {
		t.Errorf("no-change evaluation wrong: %+v", tr)
	}

	tr = Evaluate(LevelNormal, 105, 100, 120, names)
	if !tr.Changed || tr.Level != LevelSlowdown || tr.QoSName != "hpc-slow" {
		t.Errorf("slowdown transition wrong: %+v", tr)
	}

	tr = Evaluate(LevelSlowdown, 500, 100, 120, names)
	if !tr.Changed || tr.QoSName != "hpc-blocked" {
		t.Errorf("blocked transition wrong: %+v", tr)
	}

	// Recovery back to normal is also a change that must be pushed.
	tr = Evaluate(LevelBlocked, 10, 100, 120, names)
	if !tr.Changed || tr.QoSName != "hpc-normal" {
		t.Errorf("recovery transition wrong: %+v", tr)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel(""); err != nil || lvl != LevelNormal {
		t.Errorf("empty level should default to normal, got %v %v", lvl, err)
	}
	if _, err := ParseLevel("frozen"); err == nil {
		t.Error("expected error for unknown level")
	}
	for _, s := range []string{"normal", "slowdown", "blocked"} {
		if lvl, err := ParseLevel(s); err != nil || string(lvl) != s {
			t.Errorf("ParseLevel(%q) = %v, %v", s, lvl, err)
		}
	}
}
