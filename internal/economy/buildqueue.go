package economy

import (
	"errors"
	"fmt"

	"github.com/talgya/star-dominion/internal/game"
)

var (
	ErrUnknownUnit           = errors.New("unknown unit kind")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInsufficientResources = errors.New("insufficient resources")
)

// UnitSpec is the price and build time of one unit.
type UnitSpec struct {
	Cost       game.Resources
	BuildTurns int
}

var unitSpecs = map[game.UnitKind]UnitSpec{
	game.UnitSoldier:      {Cost: game.Resources{Credits: 50}, BuildTurns: 1},
	game.UnitFighter:      {Cost: game.Resources{Credits: 250, Ore: 20}, BuildTurns: 2},
	game.UnitStation:      {Cost: game.Resources{Credits: 2_500, Ore: 200}, BuildTurns: 3},
	game.UnitLightCruiser: {Cost: game.Resources{Credits: 1_000, Ore: 100}, BuildTurns: 2},
	game.UnitHeavyCruiser: {Cost: game.Resources{Credits: 2_500, Ore: 250}, BuildTurns: 3},
	game.UnitCarrier:      {Cost: game.Resources{Credits: 5_000, Ore: 500}, BuildTurns: 4},
	game.UnitCovertAgent:  {Cost: game.Resources{Credits: 500}, BuildTurns: 1},
}

// Spec returns the build spec for a unit kind.
func Spec(kind game.UnitKind) (UnitSpec, error) {
	s, ok := unitSpecs[kind]
	if !ok {
		return UnitSpec{}, fmt.Errorf("%w: %q", ErrUnknownUnit, kind)
	}
	return s, nil
}

// Enqueue charges the empire for quantity units and appends a queue item.
func Enqueue(st *game.State, empireID string, kind game.UnitKind, quantity int64, turn int, id string) (game.BuildQueueItem, error) {
	if quantity <= 0 {
		return game.BuildQueueItem{}, ErrInvalidQuantity
	}
	spec, err := Spec(kind)
	if err != nil {
		return game.BuildQueueItem{}, err
	}
	e, ok := st.Empire(empireID)
	if !ok {
		return game.BuildQueueItem{}, fmt.Errorf("empire %s not found", empireID)
	}
	if !e.Alive() {
		return game.BuildQueueItem{}, fmt.Errorf("empire %s has been defeated", empireID)
	}

	cost := game.Resources{
		Credits: spec.Cost.Credits * quantity,
		Ore:     spec.Cost.Ore * quantity,
	}
	if !e.Resources.Covers(cost) {
		return game.BuildQueueItem{}, fmt.Errorf("%d %s cost %d credits and %d ore: %w",
			quantity, kind, cost.Credits, cost.Ore, ErrInsufficientResources)
	}
	e.Resources = e.Resources.Sub(cost)

	item := game.BuildQueueItem{
		ID:             id,
		GameID:         st.Game.ID,
		EmpireID:       empireID,
		Unit:           kind,
		Quantity:       quantity,
		TurnsRemaining: spec.BuildTurns,
		QueuedAtTurn:   turn,
	}
	st.BuildQueue = append(st.BuildQueue, item)
	return item, nil
}

// AdvanceQueue moves every queue item one turn closer to delivery and hands
// finished units to their empire. Items owned by defeated empires are dropped.
func AdvanceQueue(st *game.State) []game.BuildQueueItem {
	var delivered []game.BuildQueueItem
	kept := st.BuildQueue[:0]
	for _, item := range st.BuildQueue {
		e, ok := st.Empire(item.EmpireID)
		if !ok || !e.Alive() {
			continue
		}
		item.TurnsRemaining--
		if item.TurnsRemaining > 0 {
			kept = append(kept, item)
			continue
		}
		*e.Military.Ptr(item.Unit) += item.Quantity
		delivered = append(delivered, item)
	}
	st.BuildQueue = kept
	return delivered
}
