// Package civil moves each empire along the civil status ladder based on
// its economy and the shocks it suffered.
package civil

import "github.com/talgya/star-dominion/internal/game"

const (
	SevereCasualtyRatio = 0.30 // Combat losses at or above this ratio shock morale
	DeficitStreakLimit  = 2    // Consecutive losing turns before a downgrade
	SurplusStreakLimit  = 5    // Consecutive profitable turns before an upgrade
)

// Reasons recorded in the civil status history.
const (
	ReasonStarvation = "starvation"
	ReasonCasualties = "combat_casualties"
	ReasonDeficit    = "sustained_deficit"
	ReasonSurplus    = "sustained_surplus"
)

// Change is one step along the ladder.
type Change struct {
	From   game.CivilStatus `json:"from"`
	To     game.CivilStatus `json:"to"`
	Reason string           `json:"reason"`
}

// Transition updates the empire's streaks from this turn's net credits and
// moves its status at most one level. Downgrades are evaluated first; an
// upgrade is only considered when no downgrade happened. The combat
// casualty ratio is consumed by this call.
func Transition(e *game.Empire) (Change, bool) {
	switch {
	case e.LastNetCredits > 0:
		e.SurplusStreak++
		e.DeficitStreak = 0
	case e.LastNetCredits < 0:
		e.DeficitStreak++
		e.SurplusStreak = 0
	default:
		e.SurplusStreak = 0
		e.DeficitStreak = 0
	}

	casualties := e.LastCasualtyRatio
	e.LastCasualtyRatio = 0

	from := e.CivilStatus
	level := from.Level()

	var reason string
	switch {
	case e.PopulationStatus == game.PopulationStarvation:
		reason = ReasonStarvation
	case casualties >= SevereCasualtyRatio:
		reason = ReasonCasualties
	case e.DeficitStreak >= DeficitStreakLimit:
		reason = ReasonDeficit
	}
	if reason != "" {
		e.DeficitStreak = 0
		return move(e, from, level+1, reason)
	}

	if e.SurplusStreak >= SurplusStreakLimit {
		e.SurplusStreak = 0
		return move(e, from, level-1, ReasonSurplus)
	}
	return Change{}, false
}

func move(e *game.Empire, from game.CivilStatus, level int, reason string) (Change, bool) {
	to := game.CivilAtLevel(level)
	if to == from {
		return Change{}, false
	}
	e.CivilStatus = to
	return Change{From: from, To: to, Reason: reason}, true
}
