package galaxy

import (
	"fmt"
	"sort"
)

// Graph indexes regions and connections for adjacency queries. It holds
// pointers into the slices it was built from, so mutations made through the
// graph are visible to the owner of those slices.
type Graph struct {
	regions  map[int64]*Region
	conns    []*Connection
	byRegion map[int64][]*Connection
}

// NewGraph indexes the given regions and connections.
func NewGraph(regions []Region, conns []Connection) *Graph {
	g := &Graph{
		regions:  make(map[int64]*Region, len(regions)),
		conns:    make([]*Connection, 0, len(conns)),
		byRegion: make(map[int64][]*Connection),
	}
	for i := range regions {
		g.regions[regions[i].ID] = &regions[i]
	}
	for i := range conns {
		c := &conns[i]
		g.conns = append(g.conns, c)
		g.byRegion[c.FromRegionID] = append(g.byRegion[c.FromRegionID], c)
		if c.ToRegionID != c.FromRegionID {
			g.byRegion[c.ToRegionID] = append(g.byRegion[c.ToRegionID], c)
		}
	}
	return g
}

// Region returns the region with the given ID.
func (g *Graph) Region(id int64) (*Region, bool) {
	r, ok := g.regions[id]
	return r, ok
}

// RegionCount returns the number of regions.
func (g *Graph) RegionCount() int {
	return len(g.regions)
}

// Connections returns every edge in ID order.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, len(g.conns))
	copy(out, g.conns)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connection returns the edge with the given ID.
func (g *Graph) Connection(id int64) (*Connection, bool) {
	for _, c := range g.conns {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Links returns every edge touching regionID.
func (g *Graph) Links(regionID int64) []*Connection {
	return g.byRegion[regionID]
}

// Distance returns the straight-line distance between two regions.
func (g *Graph) Distance(a, b int64) (float64, error) {
	ra, ok := g.regions[a]
	if !ok {
		return 0, fmt.Errorf("region %d not found", a)
	}
	rb, ok := g.regions[b]
	if !ok {
		return 0, fmt.Errorf("region %d not found", b)
	}
	return ra.DistanceTo(*rb), nil
}

// AttackRoute returns the cheapest open attack edge from a to b on the given
// turn. The cheapest edge is the one with the lowest force multiplier.
func (g *Graph) AttackRoute(a, b int64, turn int) (*Connection, bool) {
	var best *Connection
	for _, c := range g.byRegion[a] {
		other, ok := c.Other(a)
		if !ok || other != b || !c.IsAttackRoute(turn) {
			continue
		}
		if best == nil || c.ForceMultiplier < best.ForceMultiplier ||
			(c.ForceMultiplier == best.ForceMultiplier && c.ID < best.ID) {
			best = c
		}
	}
	return best, best != nil
}

// Reachable returns every region reachable from start over any edge type,
// ignoring open state. Used to verify generated galaxies are connected.
func (g *Graph) Reachable(start int64) map[int64]bool {
	seen := map[int64]bool{start: true}
	queue := []int64{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.byRegion[cur] {
			next := c.ToRegionID
			if next == cur {
				next = c.FromRegionID
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
