package game

import "fmt"

// CivilStatus is an empire's morale. The ladder runs from ecstatic (best)
// to revolting (worst).
type CivilStatus string

const (
	CivilEcstatic  CivilStatus = "ecstatic"
	CivilHappy     CivilStatus = "happy"
	CivilContent   CivilStatus = "content"
	CivilNeutral   CivilStatus = "neutral"
	CivilUnhappy   CivilStatus = "unhappy"
	CivilAngry     CivilStatus = "angry"
	CivilRioting   CivilStatus = "rioting"
	CivilRevolting CivilStatus = "revolting"
)

// civilLadder orders the levels best first; the index is the level.
var civilLadder = []CivilStatus{
	CivilEcstatic, CivilHappy, CivilContent, CivilNeutral,
	CivilUnhappy, CivilAngry, CivilRioting, CivilRevolting,
}

// Income multipliers per level, strictly decreasing down the ladder.
var civilMultipliers = []float64{2.5, 2.0, 1.5, 1.0, 0.85, 0.7, 0.6, 0.5}

// CivilLevels returns the number of levels on the ladder.
func CivilLevels() int { return len(civilLadder) }

// Level returns the ladder index, 0 for ecstatic through 7 for revolting.
func (c CivilStatus) Level() int {
	for i, s := range civilLadder {
		if s == c {
			return i
		}
	}
	return 3 // unknown values count as neutral
}

// Multiplier returns the income multiplier for the level.
func (c CivilStatus) Multiplier() float64 {
	return civilMultipliers[c.Level()]
}

// CivilAtLevel returns the status at index i, clamped to the ladder.
func CivilAtLevel(i int) CivilStatus {
	if i < 0 {
		i = 0
	}
	if i >= len(civilLadder) {
		i = len(civilLadder) - 1
	}
	return civilLadder[i]
}

// ParseCivilStatus validates a stored status name.
func ParseCivilStatus(s string) (CivilStatus, error) {
	for _, c := range civilLadder {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown civil status %q", s)
}
