// Package wormhole runs the per-turn wormhole lifecycle (discovery, collapse,
// reopening, auto-stabilization and construction completion), announces
// border openings, and implements the stabilize and construct actions.
package wormhole

import (
	"fmt"
	"math"

	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

const (
	BaseDiscoveryChance   = 0.02
	AgentDiscoveryBonus   = 0.01 // Per covert agent, up to MaxDiscoveryAgents
	MaxDiscoveryAgents    = 5
	ResearchDiscoveryRate = 0.005 // Per research level
	MaxDiscoveryChance    = 0.15
	MaxCollapseChance     = 0.25
	AutoStabilizeAge      = 20
	ReopenChance          = 0.01
)

// DiscoveryChance is the per-turn chance that an empire finds a nearby
// undiscovered wormhole.
func DiscoveryChance(agents int64, researchLevel int) float64 {
	a := min(agents, MaxDiscoveryAgents)
	if a < 0 {
		a = 0
	}
	p := BaseDiscoveryChance + float64(a)*AgentDiscoveryBonus + float64(researchLevel)*ResearchDiscoveryRate
	return math.Min(p, MaxDiscoveryChance)
}

// CollapseProbability is the chance an open wormhole collapses this turn.
// It grows with age up to MaxCollapseChance and is zero once stabilized.
func CollapseProbability(c galaxy.Connection, turn int) float64 {
	if c.WormholeStatus == galaxy.WormholeStabilized || c.CollapseChance <= 0 {
		return 0
	}
	age := float64(c.WormholeAge(turn))
	return math.Min(c.CollapseChance*(1+age/10), MaxCollapseChance)
}

// Process advances every wormhole one turn and reports border openings.
// Connections are visited in ID order and every roll comes from src.
func Process(st *game.State, g *galaxy.Graph, turn int, src entropy.Source) []game.Event {
	var events []game.Event
	emit := func(empireID, category, format string, args ...any) {
		events = append(events, game.Event{
			Turn:        turn,
			EmpireID:    empireID,
			Category:    category,
			Description: fmt.Sprintf(format, args...),
		})
	}

	for _, c := range g.Connections() {
		if !c.IsWormhole() {
			if c.DiscoveredAtTurn != nil && *c.DiscoveredAtTurn == turn {
				emit("", game.CategoryBorder, "%s border between %s and %s has opened",
					c.Type, regionName(g, c.FromRegionID), regionName(g, c.ToRegionID))
			}
			continue
		}

		switch c.WormholeStatus {
		case galaxy.WormholeConstructing:
			if c.ConstructionCompleteTurn == nil || turn < *c.ConstructionCompleteTurn {
				continue
			}
			c.WormholeStatus = galaxy.WormholeDiscovered
			c.DiscoveredByEmpireID = c.ConstructedByEmpireID
			c.DiscoveredAtTurn = intPtr(turn)
			c.ConstructionCompleteTurn = nil
			emit(deref(c.ConstructedByEmpireID), game.CategoryWormhole, "wormhole %d between %s and %s rebuilt",
				c.ID, regionName(g, c.FromRegionID), regionName(g, c.ToRegionID))

		case galaxy.WormholeUndiscovered:
			for _, e := range attempters(st, g, c, turn) {
				if src.Float64() >= DiscoveryChance(e.Military.CovertAgents, e.ResearchLevel) {
					continue
				}
				c.WormholeStatus = galaxy.WormholeDiscovered
				c.DiscoveredByEmpireID = strPtr(e.ID)
				c.DiscoveredAtTurn = intPtr(turn)
				emit(e.ID, game.CategoryWormhole, "%s discovered a wormhole between %s and %s",
					e.Name, regionName(g, c.FromRegionID), regionName(g, c.ToRegionID))
				break
			}

		case galaxy.WormholeDiscovered:
			if c.WormholeAge(turn) >= AutoStabilizeAge {
				c.WormholeStatus = galaxy.WormholeStabilized
				c.CollapseChance = 0
				emit(deref(c.DiscoveredByEmpireID), game.CategoryWormhole, "wormhole %d has stabilized", c.ID)
				continue
			}
			if src.Float64() < CollapseProbability(*c, turn) {
				c.WormholeStatus = galaxy.WormholeCollapsed
				emit(deref(c.DiscoveredByEmpireID), game.CategoryWormhole, "wormhole %d between %s and %s collapsed",
					c.ID, regionName(g, c.FromRegionID), regionName(g, c.ToRegionID))
			}

		case galaxy.WormholeCollapsed:
			if src.Float64() < ReopenChance {
				c.WormholeStatus = galaxy.WormholeDiscovered
				c.DiscoveredAtTurn = intPtr(turn)
				emit(deref(c.DiscoveredByEmpireID), game.CategoryWormhole, "wormhole %d has reopened", c.ID)
			}
		}
	}
	return events
}

// attempters returns live empires positioned to find wormhole c: their
// primary region is an endpoint or one open ordinary edge away from one.
func attempters(st *game.State, g *galaxy.Graph, c *galaxy.Connection, turn int) []*game.Empire {
	near := map[int64]bool{c.FromRegionID: true, c.ToRegionID: true}
	for _, end := range []int64{c.FromRegionID, c.ToRegionID} {
		for _, link := range g.Links(end) {
			if link.IsWormhole() || !link.IsOpen(turn) {
				continue
			}
			if other, ok := link.Other(end); ok {
				near[other] = true
			} else {
				near[link.FromRegionID] = true
			}
		}
	}

	var out []*game.Empire
	for _, e := range st.LiveEmpires() {
		inf, ok := st.InfluenceOf(e.ID)
		if ok && near[inf.PrimaryRegionID] {
			out = append(out, e)
		}
	}
	return out
}

func regionName(g *galaxy.Graph, id int64) string {
	if r, ok := g.Region(id); ok {
		return r.Name
	}
	return fmt.Sprintf("region %d", id)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
