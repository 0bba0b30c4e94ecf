package dice

import "testing"

func fixedRoll(n int) Roller {
	return func() int { return n }
}

func TestResolve_Deterministic(t *testing.T) {
	tests := []struct {
		name       string
		stat       Stat
		difficulty Difficulty
		statValue  int
		roll       int
		wantDiff   int
		wantTotal  int
		wantOK     bool
	}{
		{
			name:       "medium check passes",
			stat:       StatDexterity,
			difficulty: DifficultyMedium,
			statValue:  5,
			roll:       7,
			wantDiff:   8,
			wantTotal:  12,
			wantOK:     true,
		},
		{
			name:       "easy check",
			stat:       StatStrength,
			difficulty: DifficultyEasy,
			statValue:  1,
			roll:       4,
			wantDiff:   5,
			wantTotal:  5,
			wantOK:     true,
		},
		{
			name:       "extremely hard check fails",
			stat:       StatLuck,
			difficulty: DifficultyExtremelyHard,
			statValue:  1,
			roll:       12,
			wantDiff:   14,
			wantTotal:  13,
			wantOK:     false,
		},
		{
			name:       "very hard check barely passes",
			stat:       StatIntelligence,
			difficulty: DifficultyVeryHard,
			statValue:  3,
			roll:       9,
			wantDiff:   12,
			wantTotal:  12,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Resolve(tt.stat, tt.difficulty, tt.statValue, fixedRoll(tt.roll))

			if !result.Performed {
				t.Error("Expected result to be marked performed")
			}
			if result.Difficulty != tt.wantDiff {
				t.Errorf("Difficulty = %d, want %d", result.Difficulty, tt.wantDiff)
			}
			if result.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", result.Total, tt.wantTotal)
			}
			if result.Success != tt.wantOK {
				t.Errorf("Success = %v, want %v", result.Success, tt.wantOK)
			}
			if result.Degree != result.Total-result.Difficulty {
				t.Errorf("Degree = %d, want total-difficulty = %d", result.Degree, result.Total-result.Difficulty)
			}
		})
	}
}

func TestResolve_SameInputsSameResult(t *testing.T) {
	a := Resolve(StatLuck, DifficultyHard, 4, fixedRoll(6))
	b := Resolve(StatLuck, DifficultyHard, 4, fixedRoll(6))
	if a != b {
		t.Errorf("Resolve is not deterministic for fixed roll: %+v vs %+v", a, b)
	}
}

// Every category must leave both outcomes reachable for a normal stat value:
// no category is unwinnable or unlosable.
func TestResolve_BothOutcomesReachable(t *testing.T) {
	const statValue = 2
	for _, d := range Difficulties {
		var successes, failures int
		for roll := 1; roll <= 12; roll++ {
			result := Resolve(StatDexterity, d, statValue, fixedRoll(roll))
			if result.Success {
				successes++
			} else {
				failures++
			}
		}
		if successes == 0 {
			t.Errorf("Category %q is unwinnable at stat value %d", d, statValue)
		}
		if failures == 0 {
			t.Errorf("Category %q is unlosable at stat value %d", d, statValue)
		}
	}
}

func TestD12_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		r := D12()
		if r < 1 || r > 12 {
			t.Fatalf("D12() = %d, want value in [1,12]", r)
		}
	}
}

func TestDifficultyValues(t *testing.T) {
	want := map[Difficulty]int{
		DifficultyEasy:          5,
		DifficultySomewhatEasy:  7,
		DifficultyMedium:        8,
		DifficultyHard:          10,
		DifficultyVeryHard:      12,
		DifficultyExtremelyHard: 14,
	}
	for d, v := range want {
		if got := DifficultyValue(d); got != v {
			t.Errorf("DifficultyValue(%q) = %d, want %d", d, got, v)
		}
	}
}

func TestCheckRequest_Resolvable(t *testing.T) {
	tests := []struct {
		name string
		req  CheckRequest
		want bool
	}{
		{"complete request", CheckRequest{Required: true, Stat: StatLuck, Difficulty: DifficultyMedium}, true},
		{"not required", CheckRequest{Required: false, Stat: StatLuck, Difficulty: DifficultyMedium}, false},
		{"missing stat", CheckRequest{Required: true, Difficulty: DifficultyMedium}, false},
		{"missing difficulty", CheckRequest{Required: true, Stat: StatLuck}, false},
		{"unknown stat", CheckRequest{Required: true, Stat: "charisma", Difficulty: DifficultyMedium}, false},
		{"unknown difficulty", CheckRequest{Required: true, Stat: StatLuck, Difficulty: "impossible"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Resolvable(); got != tt.want {
				t.Errorf("Resolvable() = %v, want %v", got, tt.want)
			}
		})
	}
}
