package wormhole

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

const (
	StabilizeCost            = 25_000 // Credits
	StabilizeResearchLevel   = 3
	ConstructBaseCredits     = 20_000
	ConstructCreditsPerLY    = 200 // Per unit of distance between endpoints
	ConstructOre             = 2_000
	ConstructBaseTurns       = 3
	ConstructDistancePerTurn = 40
)

var (
	ErrNotWormhole           = errors.New("connection is not a wormhole")
	ErrWrongStatus           = errors.New("wormhole is not in the required state")
	ErrNotDiscoverer         = errors.New("only the discovering empire may stabilize this wormhole")
	ErrResearchTooLow        = errors.New("research level too low")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrNotAtEndpoint         = errors.New("empire is not positioned at either end of the wormhole")
)

func lookup(st *game.State, g *galaxy.Graph, empireID string, connID int64) (*game.Empire, *galaxy.Connection, error) {
	e, ok := st.Empire(empireID)
	if !ok {
		return nil, nil, fmt.Errorf("empire %s not found", empireID)
	}
	if !e.Alive() {
		return nil, nil, fmt.Errorf("empire %s has been defeated", empireID)
	}
	c, ok := g.Connection(connID)
	if !ok {
		return nil, nil, fmt.Errorf("connection %d not found", connID)
	}
	if !c.IsWormhole() {
		return nil, nil, ErrNotWormhole
	}
	return e, c, nil
}

// Stabilize permanently removes the collapse risk of a discovered wormhole.
// Only its discoverer may do so.
func Stabilize(st *game.State, g *galaxy.Graph, empireID string, connID int64) error {
	e, c, err := lookup(st, g, empireID, connID)
	if err != nil {
		return err
	}
	if c.WormholeStatus != galaxy.WormholeDiscovered {
		return fmt.Errorf("stabilize wormhole %d (%s): %w", connID, c.WormholeStatus, ErrWrongStatus)
	}
	if c.DiscoveredByEmpireID == nil || *c.DiscoveredByEmpireID != empireID {
		return ErrNotDiscoverer
	}
	if e.ResearchLevel < StabilizeResearchLevel {
		return fmt.Errorf("stabilize needs research level %d, have %d: %w", StabilizeResearchLevel, e.ResearchLevel, ErrResearchTooLow)
	}
	if e.Resources.Credits < StabilizeCost {
		return fmt.Errorf("stabilize costs %d credits: %w", StabilizeCost, ErrInsufficientResources)
	}

	e.Resources.Credits -= StabilizeCost
	c.WormholeStatus = galaxy.WormholeStabilized
	c.CollapseChance = 0
	return nil
}

// ConstructionCost returns the price and build time to rebuild a collapsed
// wormhole spanning the given distance.
func ConstructionCost(distance float64) (game.Resources, int) {
	cost := game.Resources{
		Credits: ConstructBaseCredits + int64(math.Floor(ConstructCreditsPerLY*distance)),
		Ore:     ConstructOre,
	}
	turns := ConstructBaseTurns + int(math.Floor(distance/ConstructDistancePerTurn))
	return cost, turns
}

// Construct starts rebuilding a collapsed wormhole. The completion turn is
// stored on the connection and is the only value Process consults.
func Construct(st *game.State, g *galaxy.Graph, empireID string, connID int64, turn int) (int, error) {
	e, c, err := lookup(st, g, empireID, connID)
	if err != nil {
		return 0, err
	}
	if c.WormholeStatus != galaxy.WormholeCollapsed {
		return 0, fmt.Errorf("construct wormhole %d (%s): %w", connID, c.WormholeStatus, ErrWrongStatus)
	}
	inf, ok := st.InfluenceOf(empireID)
	if !ok || !c.Touches(inf.PrimaryRegionID) {
		return 0, ErrNotAtEndpoint
	}

	dist, err := g.Distance(c.FromRegionID, c.ToRegionID)
	if err != nil {
		return 0, err
	}
	cost, buildTurns := ConstructionCost(dist)
	if !e.Resources.Covers(cost) {
		return 0, fmt.Errorf("construct costs %d credits and %d ore: %w", cost.Credits, cost.Ore, ErrInsufficientResources)
	}

	e.Resources = e.Resources.Sub(cost)
	complete := turn + buildTurns
	c.WormholeStatus = galaxy.WormholeConstructing
	c.ConstructionCompleteTurn = intPtr(complete)
	c.ConstructedByEmpireID = strPtr(empireID)
	return complete, nil
}
