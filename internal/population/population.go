// Package population grows or starves each empire's population against
// its food production.
package population

import (
	"fmt"
	"math"

	"github.com/talgya/star-dominion/internal/game"
)

const (
	ConsumptionRate  = 0.05 // Food eaten per person per turn
	GrowthRate       = 0.02
	StarvationRate   = 0.10 // Loss at a 100% deficit
	CapPerSector     = 2_500
	CapPerUrbanBonus = 7_500 // Extra capacity per urban sector
)

// Cap returns the population capacity for the given sectors.
func Cap(s game.Sectors) int64 {
	return int64(s.Total())*CapPerSector + int64(s.Urban)*CapPerUrbanBonus
}

// Outcome is one empire's population change for a turn.
type Outcome struct {
	Status   game.PopulationStatus `json:"status"`
	Before   int64                 `json:"before"`
	After    int64                 `json:"after"`
	Produced int64                 `json:"produced"`
	Consumed int64                 `json:"consumed"`
}

// Apply updates the empire's population against this turn's food production.
// Consumption is also taken from the food stockpile, which never goes
// below zero. A negative resulting population is an invariant violation.
func Apply(e *game.Empire, produced int64) (Outcome, error) {
	e.PopulationCap = Cap(e.Sectors)
	pop := e.Population
	consumed := int64(math.Floor(float64(pop) * ConsumptionRate))

	out := Outcome{Before: pop, Produced: produced, Consumed: consumed}
	switch {
	case produced > consumed:
		out.Status = game.PopulationGrowth
		pop += int64(math.Floor(float64(pop) * GrowthRate))
	case produced == consumed:
		out.Status = game.PopulationStable
	default:
		out.Status = game.PopulationStarvation
		ratio := float64(consumed-produced) / float64(consumed)
		pop -= int64(math.Floor(float64(pop) * StarvationRate * ratio))
	}
	if pop > e.PopulationCap {
		pop = e.PopulationCap
	}
	if pop < 0 {
		return out, fmt.Errorf("empire %s population would become %d", e.ID, pop)
	}

	out.After = pop
	e.Population = pop
	e.PopulationStatus = out.Status
	e.Resources.Food = max(e.Resources.Food-consumed, 0)
	return out, nil
}
