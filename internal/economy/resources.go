// Package economy provides per-turn resource production and maintenance,
// the unit build queue, and research progression.
package economy

import (
	"math"

	"github.com/talgya/star-dominion/internal/game"
)

// sectorYields is the base output of one sector per turn.
var sectorYields = map[game.SectorType]game.Resources{
	game.SectorFood:       {Food: 160},
	game.SectorOre:        {Ore: 112},
	game.SectorPetroleum:  {Petroleum: 92},
	game.SectorCommerce:   {Credits: 8_000},
	game.SectorUrban:      {Credits: 1_000},
	game.SectorResearch:   {ResearchPoints: 100},
	game.SectorIndustrial: {Ore: 60, Credits: 2_000},
}

// SectorUpkeep is the credit cost of holding one sector per turn.
const SectorUpkeep = 50

// unitUpkeep is the per-unit maintenance per turn.
var unitUpkeep = map[game.UnitKind]game.Resources{
	game.UnitSoldier:      {Credits: 1},
	game.UnitFighter:      {Credits: 3, Petroleum: 1},
	game.UnitStation:      {Credits: 10},
	game.UnitLightCruiser: {Credits: 8, Petroleum: 2},
	game.UnitHeavyCruiser: {Credits: 15, Petroleum: 3},
	game.UnitCarrier:      {Credits: 25, Petroleum: 4},
	game.UnitCovertAgent:  {Credits: 5},
}

// Ledger is one empire's resource accounting for a turn.
// Production - Maintenance == Delta for every resource.
type Ledger struct {
	Production  game.Resources `json:"production"`
	Maintenance game.Resources `json:"maintenance"`
	Delta       game.Resources `json:"delta"`
}

// Production returns the empire's output this turn: base sector yields
// scaled by the civil status multiplier and the revolt penalty, rounded
// down per resource.
func Production(e *game.Empire) game.Resources {
	var base game.Resources
	for _, t := range game.SectorTypes {
		n := int64(*e.Sectors.Ptr(t))
		y := sectorYields[t]
		base = base.Add(game.Resources{
			Credits:        y.Credits * n,
			Food:           y.Food * n,
			Ore:            y.Ore * n,
			Petroleum:      y.Petroleum * n,
			ResearchPoints: y.ResearchPoints * n,
		})
	}

	penalty := math.Min(math.Max(e.RevoltPenalty, 0), 1)
	factor := e.CivilStatus.Multiplier() * (1 - penalty)
	scale := func(v int64) int64 { return int64(math.Floor(float64(v) * factor)) }
	return game.Resources{
		Credits:        scale(base.Credits),
		Food:           scale(base.Food),
		Ore:            scale(base.Ore),
		Petroleum:      scale(base.Petroleum),
		ResearchPoints: scale(base.ResearchPoints),
	}
}

// Maintenance returns the upkeep of the empire's sectors and units. It does
// not depend on civil status.
func Maintenance(e *game.Empire) game.Resources {
	m := game.Resources{Credits: int64(e.Territory()) * SectorUpkeep}
	for _, k := range game.UnitKinds {
		n := e.Military.Count(k)
		u := unitUpkeep[k]
		m.Credits += u.Credits * n
		m.Petroleum += u.Petroleum * n
	}
	return m
}

// Settle applies one turn of production and maintenance to the empire's
// stockpiles, clamping each at zero, and records the net credit change.
func Settle(e *game.Empire) Ledger {
	l := Ledger{Production: Production(e), Maintenance: Maintenance(e)}
	l.Delta = l.Production.Sub(l.Maintenance)
	e.Resources = e.Resources.Add(l.Delta).ClampZero()
	e.LastNetCredits = l.Delta.Credits
	return l
}
