// Package galaxy provides the region graph: regions, the connections between
// them, wormhole state, and seeded generation of a new galaxy.
package galaxy

import "math"

// RegionType classifies a region by its distance from the galactic core.
type RegionType string

const (
	RegionCore  RegionType = "core"  // Richest, never a starting region
	RegionInner RegionType = "inner"
	RegionMid   RegionType = "mid"
	RegionOuter RegionType = "outer"
	RegionRim   RegionType = "rim"
	RegionVoid  RegionType = "void" // Sparse and dangerous
)

// Region is a node of the galaxy graph. Immutable after generation.
type Region struct {
	ID             int64      `json:"id" db:"id"`
	GameID         string     `json:"game_id" db:"game_id"`
	Name           string     `json:"name" db:"name"`
	Type           RegionType `json:"type" db:"type"`
	X              float64    `json:"x" db:"x"`
	Y              float64    `json:"y" db:"y"`
	WealthModifier float64    `json:"wealth_modifier" db:"wealth_modifier"`
	DangerLevel    float64    `json:"danger_level" db:"danger_level"` // 0.0–1.0
	MaxEmpires     int        `json:"max_empires" db:"max_empires"`
}

// DistanceTo returns the straight-line distance between two regions.
func (r Region) DistanceTo(o Region) float64 {
	dx := r.X - o.X
	dy := r.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// ConnectionType describes how two regions are linked.
type ConnectionType string

const (
	ConnAdjacent   ConnectionType = "adjacent"
	ConnHazardous  ConnectionType = "hazardous"
	ConnContested  ConnectionType = "contested"
	ConnWormhole   ConnectionType = "wormhole"
	ConnTradeRoute ConnectionType = "trade_route" // Economic only, never an attack route
)

// WormholeStatus is the lifecycle state of a wormhole edge.
type WormholeStatus string

const (
	WormholeUndiscovered WormholeStatus = "undiscovered"
	WormholeDiscovered   WormholeStatus = "discovered"
	WormholeConstructing WormholeStatus = "constructing"
	WormholeStabilized   WormholeStatus = "stabilized"
	WormholeCollapsed    WormholeStatus = "collapsed"
)

// DefaultForceMultiplier returns the attack cost divisor for an edge type.
func DefaultForceMultiplier(t ConnectionType) float64 {
	switch t {
	case ConnHazardous:
		return 1.25
	case ConnContested:
		return 1.5
	default:
		return 1.0
	}
}

// Connection is an edge of the galaxy graph. Connections are never deleted.
type Connection struct {
	ID              int64          `json:"id" db:"id"`
	GameID          string         `json:"game_id" db:"game_id"`
	FromRegionID    int64          `json:"from_region_id" db:"from_region_id"`
	ToRegionID      int64          `json:"to_region_id" db:"to_region_id"`
	Type            ConnectionType `json:"type" db:"type"`
	IsBidirectional bool           `json:"is_bidirectional" db:"is_bidirectional"`
	ForceMultiplier float64        `json:"force_multiplier" db:"force_multiplier"`

	// Wormhole state. WormholeStatus is empty for every other type.
	WormholeStatus       WormholeStatus `json:"wormhole_status,omitempty" db:"wormhole_status"`
	DiscoveredByEmpireID *string        `json:"discovered_by_empire_id,omitempty" db:"discovered_by_empire_id"`
	CollapseChance       float64        `json:"collapse_chance" db:"collapse_chance"`

	// For wormholes: turn of (re)discovery. For borders: unlock turn, nil when open from the start.
	DiscoveredAtTurn *int `json:"discovered_at_turn,omitempty" db:"discovered_at_turn"`

	// Rebuild of a collapsed wormhole. The completion turn is fixed when construction starts.
	ConstructionCompleteTurn *int    `json:"construction_complete_turn,omitempty" db:"construction_complete_turn"`
	ConstructedByEmpireID    *string `json:"constructed_by_empire_id,omitempty" db:"constructed_by_empire_id"`
}

// IsWormhole reports whether the edge is a wormhole.
func (c Connection) IsWormhole() bool {
	return c.Type == ConnWormhole
}

// Touches reports whether the edge has regionID as an endpoint.
func (c Connection) Touches(regionID int64) bool {
	return c.FromRegionID == regionID || c.ToRegionID == regionID
}

// Other returns the endpoint opposite regionID.
func (c Connection) Other(regionID int64) (int64, bool) {
	switch regionID {
	case c.FromRegionID:
		return c.ToRegionID, true
	case c.ToRegionID:
		if c.IsBidirectional {
			return c.FromRegionID, true
		}
	}
	return 0, false
}

// IsOpen reports whether the edge can be traversed on the given turn.
// Wormholes are open while discovered or stabilized; borders once their
// unlock turn has been reached.
func (c Connection) IsOpen(turn int) bool {
	if c.IsWormhole() {
		return c.WormholeStatus == WormholeDiscovered || c.WormholeStatus == WormholeStabilized
	}
	return c.DiscoveredAtTurn == nil || *c.DiscoveredAtTurn <= turn
}

// IsAttackRoute reports whether the edge can carry an attack on the given turn.
func (c Connection) IsAttackRoute(turn int) bool {
	return c.Type != ConnTradeRoute && c.IsOpen(turn)
}

// WormholeAge returns turns elapsed since (re)discovery, or 0 when unknown.
func (c Connection) WormholeAge(turn int) int {
	if c.DiscoveredAtTurn == nil || turn < *c.DiscoveredAtTurn {
		return 0
	}
	return turn - *c.DiscoveredAtTurn
}
