// Package victory scores empires, applies defeats, and decides when a game
// is won.
package victory

import "github.com/talgya/star-dominion/internal/game"

const (
	NetworthPerSector     = 500
	NetworthPopDivisor    = 10
	NetworthCreditDivisor = 100
)

var unitNetworth = map[game.UnitKind]int64{
	game.UnitSoldier:      1,
	game.UnitFighter:      5,
	game.UnitStation:      20,
	game.UnitLightCruiser: 15,
	game.UnitHeavyCruiser: 30,
	game.UnitCarrier:      50,
	game.UnitCovertAgent:  10,
}

// Networth scores an empire's overall strength.
func Networth(e *game.Empire) int64 {
	nw := int64(e.Territory())*NetworthPerSector +
		e.Population/NetworthPopDivisor +
		e.Resources.Credits/NetworthCreditDivisor
	for _, k := range game.UnitKinds {
		nw += e.Military.Count(k) * unitNetworth[k]
	}
	return nw
}

// EvaluateDefeat knocks out a live empire with no territory or with an empty
// treasury that is still losing credits.
func EvaluateDefeat(e *game.Empire) (game.DefeatType, bool) {
	if !e.Alive() {
		return "", false
	}
	switch {
	case e.Territory() == 0:
		e.Defeat(game.DefeatElimination)
	case e.Resources.Credits <= 0 && e.LastNetCredits < 0:
		e.Defeat(game.DefeatBankruptcy)
	default:
		return "", false
	}
	return e.DefeatType, true
}
