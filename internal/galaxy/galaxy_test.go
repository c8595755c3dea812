package galaxy

import (
	"reflect"
	"testing"

	"github.com/talgya/star-dominion/internal/entropy"
)

func generate(t *testing.T, empires int, seed int64) Layout {
	t.Helper()
	return Generate(DefaultGenConfig(empires), entropy.Seeded(seed, 0, entropy.StreamGalaxy))
}

func TestRegionCountBounds(t *testing.T) {
	cases := []struct {
		empires int
		want    int
	}{
		{empires: 1, want: 4},
		{empires: 6, want: 6},
		{empires: 30, want: 14},
		{empires: 100, want: 15},
	}
	for _, tc := range cases {
		if got := DefaultGenConfig(tc.empires).RegionCount(); got != tc.want {
			t.Fatalf("empires=%d: region count = %d, want %d", tc.empires, got, tc.want)
		}
		layout := generate(t, tc.empires, 7)
		if len(layout.Regions) != tc.want {
			t.Fatalf("empires=%d: generated %d regions, want %d", tc.empires, len(layout.Regions), tc.want)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := generate(t, 25, 99)
	b := generate(t, 25, 99)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different galaxies")
	}
	c := generate(t, 25, 100)
	if reflect.DeepEqual(a.Regions, c.Regions) {
		t.Fatalf("different seeds produced identical regions")
	}
}

func TestGeneratedGalaxyIsConnected(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		layout := generate(t, 40, seed)
		g := NewGraph(layout.Regions, layout.Connections)
		if got := len(g.Reachable(1)); got != len(layout.Regions) {
			t.Fatalf("seed %d: reached %d of %d regions", seed, got, len(layout.Regions))
		}
	}
}

func TestRegionValuesInRange(t *testing.T) {
	layout := generate(t, 30, 3)
	if layout.Regions[0].Type != RegionCore || layout.Regions[0].X != 0 || layout.Regions[0].Y != 0 {
		t.Fatalf("first region should be the core at the origin: %+v", layout.Regions[0])
	}
	voids := 0
	for _, r := range layout.Regions {
		if r.DangerLevel < 0 || r.DangerLevel > 1 {
			t.Fatalf("region %d danger %.2f out of range", r.ID, r.DangerLevel)
		}
		if r.WealthModifier <= 0 {
			t.Fatalf("region %d wealth %.2f not positive", r.ID, r.WealthModifier)
		}
		if r.Type == RegionVoid {
			voids++
		}
	}
	if voids != 1 {
		t.Fatalf("expected one void region with 14 regions, got %d", voids)
	}

	small := generate(t, 6, 3)
	for _, r := range small.Regions {
		if r.Type == RegionVoid {
			t.Fatalf("small galaxy should not contain a void region")
		}
	}
}

func TestConnectionRules(t *testing.T) {
	layout := generate(t, 30, 11)
	g := NewGraph(layout.Regions, layout.Connections)
	perRegion := make(map[int64]int)
	wormholes := 0
	for _, c := range layout.Connections {
		a, _ := g.Region(c.FromRegionID)
		b, _ := g.Region(c.ToRegionID)
		switch c.Type {
		case ConnWormhole:
			wormholes++
			perRegion[c.FromRegionID]++
			perRegion[c.ToRegionID]++
			if c.WormholeStatus != WormholeUndiscovered || c.CollapseChance != 0.05 {
				t.Fatalf("new wormhole %d has status %q chance %.2f", c.ID, c.WormholeStatus, c.CollapseChance)
			}
			if c.IsOpen(1) {
				t.Fatalf("undiscovered wormhole %d should be closed", c.ID)
			}
		case ConnHazardous:
			if a.Type != RegionVoid && b.Type != RegionVoid {
				t.Fatalf("hazardous link %d does not touch the void", c.ID)
			}
		case ConnAdjacent:
			if c.DiscoveredAtTurn != nil {
				t.Fatalf("adjacent link %d should be open from the start", c.ID)
			}
		}
		if c.Type != ConnWormhole && c.Type != ConnAdjacent {
			if c.DiscoveredAtTurn == nil || *c.DiscoveredAtTurn < 5 || *c.DiscoveredAtTurn >= 30 {
				t.Fatalf("gated border %d unlock turn outside [5, 30): %v", c.ID, c.DiscoveredAtTurn)
			}
		}
		if c.ForceMultiplier != DefaultForceMultiplier(c.Type) {
			t.Fatalf("link %d multiplier %.2f, want %.2f", c.ID, c.ForceMultiplier, DefaultForceMultiplier(c.Type))
		}
	}
	if wormholes < 1 || wormholes > len(layout.Regions)/4 {
		t.Fatalf("wormhole count %d outside [1, %d]", wormholes, len(layout.Regions)/4)
	}
	for id, n := range perRegion {
		if n > 1 {
			t.Fatalf("region %d has %d wormholes", id, n)
		}
	}
}

func TestTradeRouteIsNotAttackRoute(t *testing.T) {
	turn := 1
	conns := []Connection{
		{ID: 1, FromRegionID: 1, ToRegionID: 2, Type: ConnTradeRoute, IsBidirectional: true, ForceMultiplier: 1},
		{ID: 2, FromRegionID: 2, ToRegionID: 3, Type: ConnContested, IsBidirectional: true, ForceMultiplier: 1.5, DiscoveredAtTurn: &turn},
	}
	regions := []Region{{ID: 1}, {ID: 2}, {ID: 3}}
	g := NewGraph(regions, conns)
	if _, ok := g.AttackRoute(1, 2, 10); ok {
		t.Fatalf("trade route must not carry attacks")
	}
	route, ok := g.AttackRoute(3, 2, 10)
	if !ok || route.ID != 2 {
		t.Fatalf("expected contested route, got %v %v", route, ok)
	}
}

func TestPlaceEmpiresNeverUsesCore(t *testing.T) {
	layout := generate(t, 30, 5)
	homes, err := PlaceEmpires(layout.Regions, 30, entropy.Seeded(5, 0, entropy.StreamPlacement))
	if err != nil {
		t.Fatalf("place empires: %v", err)
	}
	if len(homes) != 30 {
		t.Fatalf("got %d homes, want 30", len(homes))
	}
	g := NewGraph(layout.Regions, layout.Connections)
	counts := make(map[int64]int)
	for _, id := range homes {
		r, ok := g.Region(id)
		if !ok {
			t.Fatalf("home %d is not a region", id)
		}
		if r.Type == RegionCore {
			t.Fatalf("empire placed in the core")
		}
		counts[id]++
		if counts[id] > r.MaxEmpires {
			t.Fatalf("region %d holds %d empires, max %d", id, counts[id], r.MaxEmpires)
		}
	}
}

func TestPlaceEmpiresRejectsOverflow(t *testing.T) {
	regions := []Region{
		{ID: 1, Type: RegionCore, MaxEmpires: 5},
		{ID: 2, Type: RegionInner, MaxEmpires: 1},
	}
	if _, err := PlaceEmpires(regions, 2, &entropy.Fixed{}); err == nil {
		t.Fatalf("expected capacity error")
	}
}

func TestEmpireNamesAreDistinct(t *testing.T) {
	names := EmpireNames(&entropy.Fixed{Values: []float64{0.3}}, 5)
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate name %q", n)
		}
		seen[n] = true
	}
}

func TestWormholeOpenStates(t *testing.T) {
	c := Connection{Type: ConnWormhole, WormholeStatus: WormholeDiscovered}
	if !c.IsOpen(1) {
		t.Fatalf("discovered wormhole should be open")
	}
	for _, s := range []WormholeStatus{WormholeUndiscovered, WormholeConstructing, WormholeCollapsed} {
		c.WormholeStatus = s
		if c.IsOpen(1) {
			t.Fatalf("%s wormhole should be closed", s)
		}
	}
}
