// Package revolt escalates the consequences of a revolting population:
// lost production, deserting units, and finally civil war.
package revolt

import (
	"math"

	"github.com/talgya/star-dominion/internal/game"
)

const (
	FirstTurnPenalty  = 0.10
	SecondTurnPenalty = 0.25
	DesertionRate     = 0.10 // Share of every unit type lost on the second turn
	CivilWarTurns     = 3
)

// Outcome is the revolt consequence applied to one empire this turn.
type Outcome struct {
	Streak   int           `json:"streak"`
	Penalty  float64       `json:"penalty"`
	Losses   game.Military `json:"losses"`
	Defeated bool          `json:"defeated"`
	Calmed   bool          `json:"calmed"` // Unrest ended this turn
}

// Apply advances or clears the empire's unrest streak. It reports false when
// the empire was calm both before and after.
func Apply(e *game.Empire) (Outcome, bool) {
	if e.CivilStatus != game.CivilRevolting {
		if e.UnrestTurns == 0 && e.RevoltPenalty == 0 {
			return Outcome{}, false
		}
		e.UnrestTurns = 0
		e.RevoltPenalty = 0
		return Outcome{Calmed: true}, true
	}

	e.UnrestTurns++
	out := Outcome{Streak: e.UnrestTurns}
	switch {
	case e.UnrestTurns == 1:
		out.Penalty = FirstTurnPenalty
	case e.UnrestTurns == 2:
		out.Penalty = SecondTurnPenalty
		out.Losses = e.Military.Map(func(_ game.UnitKind, n int64) int64 {
			return int64(math.Floor(float64(n) * DesertionRate))
		})
		e.Military = e.Military.Map(func(k game.UnitKind, n int64) int64 { return n - out.Losses.Count(k) })
	default:
		out.Penalty = 1.0
		out.Defeated = true
		e.Defeat(game.DefeatCivilWar)
	}
	e.RevoltPenalty = out.Penalty
	return out, true
}
