// Package dice implements the d12 skill-check mechanic.
package dice

import "math/rand/v2"

// Stat is a player attribute eligible for skill checks.
type Stat string

const (
	StatStrength     Stat = "strength"
	StatDexterity    Stat = "dexterity"
	StatIntelligence Stat = "intelligence"
	StatLuck         Stat = "luck"
)

// CheckStats lists the stats a check can be rolled against, in prompt order.
var CheckStats = []Stat{StatStrength, StatDexterity, StatIntelligence, StatLuck}

// Difficulty is a named difficulty category.
type Difficulty string

const (
	DifficultyEasy          Difficulty = "easy"
	DifficultySomewhatEasy  Difficulty = "somewhat easy"
	DifficultyMedium        Difficulty = "medium"
	DifficultyHard          Difficulty = "hard"
	DifficultyVeryHard      Difficulty = "very hard"
	DifficultyExtremelyHard Difficulty = "extremely hard"
)

// Difficulties lists all categories, easiest first.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultySomewhatEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyVeryHard,
	DifficultyExtremelyHard,
}

const baseDifficulty = 8

var difficultyOffsets = map[Difficulty]int{
	DifficultyEasy:          -3,
	DifficultySomewhatEasy:  -1,
	DifficultyMedium:        0,
	DifficultyHard:          2,
	DifficultyVeryHard:      4,
	DifficultyExtremelyHard: 6,
}

// ValidStat reports whether s is a stat checks can target.
func ValidStat(s Stat) bool {
	switch s {
	case StatStrength, StatDexterity, StatIntelligence, StatLuck:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a known category.
func ValidDifficulty(d Difficulty) bool {
	_, ok := difficultyOffsets[d]
	return ok
}

// DifficultyValue returns the target number for a category. Unknown
// categories resolve at the medium baseline.
func DifficultyValue(d Difficulty) int {
	return baseDifficulty + difficultyOffsets[d]
}

// CheckRequest is the planner's verdict on whether an action needs a roll.
type CheckRequest struct {
	Required   bool       `json:"required"`
	Stat       Stat       `json:"stat,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Resolvable reports whether the request carries everything a roll needs.
// A required check missing its stat or difficulty is treated as no check.
func (r CheckRequest) Resolvable() bool {
	return r.Required && ValidStat(r.Stat) && ValidDifficulty(r.Difficulty)
}

// CheckResult is the outcome of a resolved skill check.
type CheckResult struct {
	Performed  bool       `json:"performed"`
	Stat       Stat       `json:"stat,omitempty"`
	Roll       int        `json:"roll,omitempty"` // 1-12
	StatValue  int        `json:"stat_value,omitempty"`
	Difficulty int        `json:"difficulty,omitempty"`
	Total      int        `json:"total,omitempty"`
	Success    bool       `json:"success"`
	Degree     int        `json:"degree"` // total - difficulty, signed
	Reason     string     `json:"reason,omitempty"`
}

// Roller produces a d12 roll in [1, 12].
type Roller func() int

// D12 is the default roller. Gameplay randomness only.
func D12() int {
	return rand.IntN(12) + 1
}

// Resolve rolls a skill check. Pure given the roller: the same roll, stat
// value and difficulty always produce the same result.
func Resolve(stat Stat, difficulty Difficulty, statValue int, roll Roller) CheckResult {
	if roll == nil {
		roll = D12
	}
	r := roll()
	target := DifficultyValue(difficulty)
	total := statValue + r
	return CheckResult{
		Performed:  true,
		Stat:       stat,
		Roll:       r,
		StatValue:  statValue,
		Difficulty: target,
		Total:      total,
		Success:    total >= target,
		Degree:     total - target,
	}
}
