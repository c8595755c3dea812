// Package influence computes each empire's sphere of influence: which other
// empires it can reach this turn, at what force cost, and whether a queued
// attack against them is legal.
package influence

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

const (
	BaseRadius         = 3
	MaxRadius          = 8
	MaxExtended        = 3   // Extended slots beyond the direct radius
	ExtendedMultiplier = 1.5 // Force divisor for extended targets
	territoryFreeTier  = 6   // Sectors before territory starts widening the radius
	territoryPerStep   = 5
	researchPerStep    = 5
)

// Tier is how reachable a target is.
type Tier string

const (
	TierDirect      Tier = "direct"
	TierExtended    Tier = "extended"
	TierUnreachable Tier = "unreachable"
)

// ErrNoAnchor is returned when an empire has no galaxy position.
var ErrNoAnchor = errors.New("empire has no influence anchor")

// Radius returns the number of direct slots for an empire. It never
// decreases as territory grows.
func Radius(territory, researchLevel int) int {
	r := BaseRadius
	if territory > territoryFreeTier {
		r += (territory - territoryFreeTier) / territoryPerStep
	}
	if researchLevel > 0 {
		r += researchLevel / researchPerStep
	}
	return min(r, MaxRadius)
}

// Neighbor is another live empire as seen from the sphere's owner.
type Neighbor struct {
	EmpireID     string  `json:"empire_id"`
	Tier         Tier    `json:"tier"`
	Multiplier   float64 `json:"multiplier"`              // Force divisor; 0 when unreachable
	Connected    bool    `json:"connected"`               // Same region or an open attack route
	ConnectionID int64   `json:"connection_id,omitempty"` // Route used when connected via an edge
	Distance     float64 `json:"distance"`
}

// Sphere partitions every other live empire into direct, extended and
// unreachable.
type Sphere struct {
	EmpireID    string     `json:"empire_id"`
	Turn        int        `json:"turn"`
	Radius      int        `json:"radius"`
	Direct      []Neighbor `json:"direct"`
	Extended    []Neighbor `json:"extended"`
	Unreachable []Neighbor `json:"unreachable"`
}

// Lookup returns the entry for target.
func (s Sphere) Lookup(target string) (Neighbor, bool) {
	for _, group := range [][]Neighbor{s.Direct, s.Extended, s.Unreachable} {
		for _, n := range group {
			if n.EmpireID == target {
				return n, true
			}
		}
	}
	return Neighbor{}, false
}

// Compute derives the sphere for empireID from the current galaxy and
// territory. Nothing cached on the state is consulted.
func Compute(st *game.State, g *galaxy.Graph, empireID string, turn int) (Sphere, error) {
	owner, ok := st.Empire(empireID)
	if !ok {
		return Sphere{}, fmt.Errorf("compute sphere: empire %s not found", empireID)
	}
	anchor, ok := st.InfluenceOf(empireID)
	if !ok {
		return Sphere{}, fmt.Errorf("compute sphere for %s: %w", empireID, ErrNoAnchor)
	}

	var candidates []Neighbor
	for _, other := range st.LiveEmpires() {
		if other.ID == empireID {
			continue
		}
		oa, ok := st.InfluenceOf(other.ID)
		if !ok {
			return Sphere{}, fmt.Errorf("compute sphere for %s: %s: %w", empireID, other.ID, ErrNoAnchor)
		}
		dist, err := g.Distance(anchor.PrimaryRegionID, oa.PrimaryRegionID)
		if err != nil {
			return Sphere{}, fmt.Errorf("compute sphere for %s: %w", empireID, err)
		}
		n := Neighbor{EmpireID: other.ID, Distance: dist, Multiplier: 1.0}
		if anchor.PrimaryRegionID == oa.PrimaryRegionID {
			n.Connected = true
		} else if route, ok := g.AttackRoute(anchor.PrimaryRegionID, oa.PrimaryRegionID, turn); ok {
			n.Connected = true
			n.ConnectionID = route.ID
			n.Multiplier = route.ForceMultiplier
		}
		candidates = append(candidates, n)
	}

	// Rank by distance alone; a connection only changes the multiplier.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.EmpireID < b.EmpireID
	})

	sphere := Sphere{
		EmpireID: empireID,
		Turn:     turn,
		Radius:   Radius(owner.Territory(), owner.ResearchLevel),
	}
	for i, n := range candidates {
		switch {
		case i < sphere.Radius:
			n.Tier = TierDirect
			sphere.Direct = append(sphere.Direct, n)
		case i < sphere.Radius+MaxExtended:
			n.Tier = TierExtended
			n.Multiplier = ExtendedMultiplier
			sphere.Extended = append(sphere.Extended, n)
		default:
			n.Tier = TierUnreachable
			n.Multiplier = 0
			sphere.Unreachable = append(sphere.Unreachable, n)
		}
	}
	return sphere, nil
}

// RefreshCache rewrites the neighbour lists on every influence row. The
// lists are informational; Compute never reads them.
func RefreshCache(st *game.State, g *galaxy.Graph, turn int) error {
	for i := range st.Influence {
		inf := &st.Influence[i]
		e, ok := st.Empire(inf.EmpireID)
		if !ok || !e.Alive() {
			inf.DirectNeighborIDs = nil
			inf.ExtendedNeighborIDs = nil
			inf.ComputedAtTurn = turn
			continue
		}
		sphere, err := Compute(st, g, inf.EmpireID, turn)
		if err != nil {
			return err
		}
		inf.DirectNeighborIDs = ids(sphere.Direct)
		inf.ExtendedNeighborIDs = ids(sphere.Extended)
		inf.ComputedAtTurn = turn
	}
	return nil
}

func ids(ns []Neighbor) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.EmpireID)
	}
	return out
}
