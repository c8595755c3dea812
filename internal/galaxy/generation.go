// Galaxy generation: region placement on concentric rings, noise-derived
// wealth and danger, a spanning-tree link layout, and distant wormholes.
package galaxy

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/star-dominion/internal/entropy"
)

// GenConfig holds galaxy generation parameters.
type GenConfig struct {
	EmpireCount            int
	MinRegions             int     // Lower bound on region count
	MaxRegions             int     // Upper bound on region count
	RingSpacing            float64 // Distance between rings
	BorderWindowStart      int     // First turn a gated border may open
	BorderWindow           int     // Turns across which gated borders open
	WormholeCollapseChance float64 // Base collapse chance stored on new wormholes
	VoidThreshold          int     // Region count at which one rim slot becomes void
}

// DefaultGenConfig returns the standard configuration for a game of n empires.
func DefaultGenConfig(empires int) GenConfig {
	return GenConfig{
		EmpireCount:            empires,
		MinRegions:             4,
		MaxRegions:             15,
		RingSpacing:            100,
		BorderWindowStart:      5,
		BorderWindow:           25,
		WormholeCollapseChance: 0.05,
		VoidThreshold:          10,
	}
}

// Layout is a generated galaxy, before it is bound to a game.
type Layout struct {
	Regions     []Region
	Connections []Connection
}

// RegionCount returns the number of regions for the configured empire count.
func (cfg GenConfig) RegionCount() int {
	n := cfg.EmpireCount/3 + 4
	if n < cfg.MinRegions {
		n = cfg.MinRegions
	}
	if n > cfg.MaxRegions {
		n = cfg.MaxRegions
	}
	return n
}

var regionNames = []string{
	"Meridian Core", "Aster Reach", "Halcyon Drift", "Korrin Expanse", "Vesper Belt",
	"Talos March", "Orison Deep", "Caldera Verge", "Nadir Shoals", "Ilium Span",
	"Serac Fringe", "Umbral Gate", "Pell Frontier", "Oort Hollow", "Null Meridian",
}

// typeWealth and typeDanger bias the noise fields by ring.
var typeWealth = map[RegionType]float64{
	RegionCore: 1.5, RegionInner: 1.3, RegionMid: 1.0, RegionOuter: 0.9, RegionRim: 0.8, RegionVoid: 0.6,
}

var typeDanger = map[RegionType]float64{
	RegionCore: 0.1, RegionInner: 0.2, RegionMid: 0.35, RegionOuter: 0.5, RegionRim: 0.65, RegionVoid: 0.9,
}

var ringTypes = []RegionType{RegionInner, RegionMid, RegionOuter, RegionRim}

// Generate creates a connected galaxy. Every draw comes from src.
func Generate(cfg GenConfig, src entropy.Source) Layout {
	n := cfg.RegionCount()

	// Two noise layers for wealth and danger, seeded from the source.
	wealthNoise := opensimplex.NewNormalized(int64(src.Intn(math.MaxInt32)))
	dangerNoise := opensimplex.NewNormalized(int64(src.Intn(math.MaxInt32)))

	capacity := 1
	if n > 1 {
		capacity = int(math.Ceil(float64(cfg.EmpireCount)/float64(n-1))) + 1
	}

	regions := make([]Region, 0, n)
	regions = append(regions, newRegion(1, RegionCore, 0, 0, capacity, wealthNoise, dangerNoise))

	// Count regions per ring so each ring can be spread evenly around the core.
	rings := make([]int, n)
	perRing := make([]int, len(ringTypes))
	for i := 1; i < n; i++ {
		ring := (i - 1) * len(ringTypes) / (n - 1)
		rings[i] = ring
		perRing[ring]++
	}

	slot := make([]int, len(ringTypes))
	offsets := make([]float64, len(ringTypes))
	for r := range offsets {
		offsets[r] = src.Float64() * 2 * math.Pi
	}

	for i := 1; i < n; i++ {
		ring := rings[i]
		typ := ringTypes[ring]
		radius := cfg.RingSpacing*float64(ring+1) + (src.Float64()-0.5)*0.3*cfg.RingSpacing
		if i == n-1 && n >= cfg.VoidThreshold {
			typ = RegionVoid
			radius += 0.4 * cfg.RingSpacing
		}
		angle := offsets[ring] + 2*math.Pi*float64(slot[ring])/float64(perRing[ring]) + (src.Float64()-0.5)*0.5
		slot[ring]++

		x := round2(radius * math.Cos(angle))
		y := round2(radius * math.Sin(angle))
		regions = append(regions, newRegion(int64(i+1), typ, x, y, capacity, wealthNoise, dangerNoise))
	}

	conns := linkRegions(regions)
	scheduleBorders(conns, cfg)
	conns = append(conns, placeWormholes(regions, conns, cfg)...)

	return Layout{Regions: regions, Connections: conns}
}

func newRegion(id int64, typ RegionType, x, y float64, capacity int, wealthNoise, dangerNoise opensimplex.Noise) Region {
	name := regionNames[(id-1)%int64(len(regionNames))]

	wealth := typeWealth[typ] + (wealthNoise.Eval2(x*0.01, y*0.01)-0.5)*0.4
	danger := typeDanger[typ] + (dangerNoise.Eval2(x*0.01, y*0.01)-0.5)*0.3

	return Region{
		ID:             id,
		Name:           name,
		Type:           typ,
		X:              x,
		Y:              y,
		WealthModifier: round2(clamp(wealth, 0.3, 2.0)),
		DangerLevel:    round2(clamp(danger, 0, 1)),
		MaxEmpires:     capacity,
	}
}

type regionPair struct{ a, b int64 }

func pairKey(a, b int64) regionPair {
	if a > b {
		a, b = b, a
	}
	return regionPair{a, b}
}

// linkRegions builds a spanning tree (each region joins its nearest earlier
// region) and then adds each region's second-nearest neighbour.
func linkRegions(regions []Region) []Connection {
	linked := make(map[regionPair]bool)
	var conns []Connection

	add := func(a, b Region) {
		key := pairKey(a.ID, b.ID)
		if linked[key] {
			return
		}
		linked[key] = true
		typ := classifyLink(a, b)
		conns = append(conns, Connection{
			ID:              int64(len(conns) + 1),
			FromRegionID:    key.a,
			ToRegionID:      key.b,
			Type:            typ,
			IsBidirectional: true,
			ForceMultiplier: DefaultForceMultiplier(typ),
		})
	}

	for i := 1; i < len(regions); i++ {
		nearest := 0
		for j := 1; j < i; j++ {
			if regions[i].DistanceTo(regions[j]) < regions[i].DistanceTo(regions[nearest]) {
				nearest = j
			}
		}
		add(regions[i], regions[nearest])
	}

	for i := range regions {
		order := byDistance(regions, i)
		if len(order) > 1 {
			add(regions[i], regions[order[1]])
		}
	}
	return conns
}

// byDistance returns indexes of all other regions sorted nearest first.
func byDistance(regions []Region, from int) []int {
	var idx []int
	for j := range regions {
		if j != from {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(x, y int) bool {
		dx := regions[from].DistanceTo(regions[idx[x]])
		dy := regions[from].DistanceTo(regions[idx[y]])
		if dx != dy {
			return dx < dy
		}
		return regions[idx[x]].ID < regions[idx[y]].ID
	})
	return idx
}

func classifyLink(a, b Region) ConnectionType {
	switch {
	case a.Type == RegionVoid || b.Type == RegionVoid:
		return ConnHazardous
	case a.DangerLevel+b.DangerLevel > 1.1:
		return ConnContested
	case a.WealthModifier >= 1.25 && b.WealthModifier >= 1.25:
		return ConnTradeRoute
	default:
		return ConnAdjacent
	}
}

// scheduleBorders gives every gated (non-adjacent) border an unlock turn,
// spread evenly across the configured window in connection order.
func scheduleBorders(conns []Connection, cfg GenConfig) {
	var gated []int
	for i := range conns {
		if conns[i].Type != ConnAdjacent {
			gated = append(gated, i)
		}
	}
	for k, i := range gated {
		turn := cfg.BorderWindowStart + k*cfg.BorderWindow/len(gated)
		conns[i].DiscoveredAtTurn = &turn
	}
}

// placeWormholes links the most distant unlinked pairs, at most one wormhole
// per region.
func placeWormholes(regions []Region, conns []Connection, cfg GenConfig) []Connection {
	linked := make(map[regionPair]bool, len(conns))
	for _, c := range conns {
		linked[pairKey(c.FromRegionID, c.ToRegionID)] = true
	}

	type candidate struct {
		pair regionPair
		dist float64
	}
	var candidates []candidate
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			key := pairKey(regions[i].ID, regions[j].ID)
			if linked[key] {
				continue
			}
			candidates = append(candidates, candidate{key, regions[i].DistanceTo(regions[j])})
		}
	}
	sort.SliceStable(candidates, func(x, y int) bool {
		if candidates[x].dist != candidates[y].dist {
			return candidates[x].dist > candidates[y].dist
		}
		if candidates[x].pair.a != candidates[y].pair.a {
			return candidates[x].pair.a < candidates[y].pair.a
		}
		return candidates[x].pair.b < candidates[y].pair.b
	})

	want := len(regions) / 4
	if want < 1 {
		want = 1
	}
	used := make(map[int64]bool)
	var out []Connection
	for _, c := range candidates {
		if len(out) >= want {
			break
		}
		if used[c.pair.a] || used[c.pair.b] {
			continue
		}
		used[c.pair.a] = true
		used[c.pair.b] = true
		out = append(out, Connection{
			ID:              int64(len(conns) + len(out) + 1),
			FromRegionID:    c.pair.a,
			ToRegionID:      c.pair.b,
			Type:            ConnWormhole,
			IsBidirectional: true,
			ForceMultiplier: DefaultForceMultiplier(ConnWormhole),
			WormholeStatus:  WormholeUndiscovered,
			CollapseChance:  cfg.WormholeCollapseChance,
		})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
