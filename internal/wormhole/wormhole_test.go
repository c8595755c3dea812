package wormhole

import (
	"errors"
	"strings"
	"testing"

	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

func fixture() *game.State {
	unlock := 5
	st := &game.State{
		Game: game.Game{ID: "g"},
		Regions: []galaxy.Region{
			{ID: 1, Name: "Aster", X: 0}, {ID: 2, Name: "Bryn", X: 100}, {ID: 3, Name: "Cor", X: 400},
		},
		Connections: []galaxy.Connection{
			{ID: 1, FromRegionID: 1, ToRegionID: 2, Type: galaxy.ConnAdjacent, IsBidirectional: true, ForceMultiplier: 1},
			{ID: 2, FromRegionID: 1, ToRegionID: 3, Type: galaxy.ConnWormhole, IsBidirectional: true, ForceMultiplier: 1,
				WormholeStatus: galaxy.WormholeUndiscovered, CollapseChance: 0.05},
			{ID: 3, FromRegionID: 2, ToRegionID: 3, Type: galaxy.ConnContested, IsBidirectional: true, ForceMultiplier: 1.5,
				DiscoveredAtTurn: &unlock},
		},
		Empires: []game.Empire{
			{ID: "a", Name: "Alpha", Resources: game.Resources{Credits: 200_000, Ore: 5_000}, ResearchLevel: 3},
			{ID: "b", Name: "Beta", Resources: game.Resources{Credits: 1_000}},
		},
		Influence: []game.EmpireInfluence{
			{EmpireID: "a", HomeRegionID: 2, PrimaryRegionID: 2},
			{EmpireID: "b", HomeRegionID: 3, PrimaryRegionID: 3},
		},
	}
	return st
}

func wormhole(st *game.State) *galaxy.Connection {
	return &st.Connections[1]
}

func TestCollapseProbabilityGrowsWithAge(t *testing.T) {
	found := 1
	c := galaxy.Connection{Type: galaxy.ConnWormhole, WormholeStatus: galaxy.WormholeDiscovered, CollapseChance: 0.05, DiscoveredAtTurn: &found}
	prev := 0.0
	for turn := 1; turn < 100; turn++ {
		p := CollapseProbability(c, turn)
		if p < prev {
			t.Fatalf("collapse probability fell from %.4f to %.4f at turn %d", prev, p, turn)
		}
		if p > MaxCollapseChance {
			t.Fatalf("collapse probability %.4f above cap", p)
		}
		prev = p
	}
	c.WormholeStatus = galaxy.WormholeStabilized
	if CollapseProbability(c, 50) != 0 {
		t.Fatalf("stabilized wormhole must never collapse")
	}
}

func TestDiscoveryChance(t *testing.T) {
	if got := DiscoveryChance(0, 0); got != BaseDiscoveryChance {
		t.Fatalf("base chance = %.3f", got)
	}
	if got := DiscoveryChance(3, 2); got < 0.0599 || got > 0.0601 {
		t.Fatalf("chance with 3 agents, level 2 = %.4f, want 0.06", got)
	}
	if got := DiscoveryChance(50, 100); got != MaxDiscoveryChance {
		t.Fatalf("chance should cap at %.2f, got %.3f", MaxDiscoveryChance, got)
	}
}

func TestDiscoveryFirstAttempterWins(t *testing.T) {
	st := fixture()
	events := Process(st, st.Galaxy(), 3, &entropy.Fixed{Values: []float64{0}})
	w := wormhole(st)
	if w.WormholeStatus != galaxy.WormholeDiscovered {
		t.Fatalf("expected discovery, status %s", w.WormholeStatus)
	}
	if w.DiscoveredByEmpireID == nil || *w.DiscoveredByEmpireID != "a" {
		t.Fatalf("expected empire a (first in ID order) to discover")
	}
	if *w.DiscoveredAtTurn != 3 {
		t.Fatalf("discovered at %d, want 3", *w.DiscoveredAtTurn)
	}
	if len(events) != 1 || events[0].EmpireID != "a" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestFailedRollsLeaveWormholeHidden(t *testing.T) {
	st := fixture()
	Process(st, st.Galaxy(), 3, &entropy.Fixed{Values: []float64{0.99}})
	if wormhole(st).WormholeStatus != galaxy.WormholeUndiscovered {
		t.Fatalf("wormhole should stay undiscovered")
	}
}

func TestAutoStabilizeBeforeCollapseRoll(t *testing.T) {
	st := fixture()
	w := wormhole(st)
	found := 1
	w.WormholeStatus = galaxy.WormholeDiscovered
	w.DiscoveredAtTurn = &found

	// A roll of 0 would collapse any wormhole still at risk.
	Process(st, st.Galaxy(), 21, &entropy.Fixed{Values: []float64{0}})
	if w.WormholeStatus != galaxy.WormholeStabilized || w.CollapseChance != 0 {
		t.Fatalf("expected auto-stabilize at age 20, got %s", w.WormholeStatus)
	}
}

func TestCollapseAndReopen(t *testing.T) {
	st := fixture()
	w := wormhole(st)
	found := 1
	w.WormholeStatus = galaxy.WormholeDiscovered
	w.DiscoveredAtTurn = &found

	Process(st, st.Galaxy(), 4, &entropy.Fixed{Values: []float64{0.01}})
	if w.WormholeStatus != galaxy.WormholeCollapsed {
		t.Fatalf("expected collapse, got %s", w.WormholeStatus)
	}
	if w.IsOpen(4) {
		t.Fatalf("collapsed wormhole should be closed")
	}

	Process(st, st.Galaxy(), 5, &entropy.Fixed{Values: []float64{0.5}})
	if w.WormholeStatus != galaxy.WormholeCollapsed {
		t.Fatalf("roll above reopen chance should keep it collapsed")
	}

	Process(st, st.Galaxy(), 6, &entropy.Fixed{Values: []float64{0.005}})
	if w.WormholeStatus != galaxy.WormholeDiscovered || *w.DiscoveredAtTurn != 6 {
		t.Fatalf("expected reopen with age reset, got %s at %v", w.WormholeStatus, *w.DiscoveredAtTurn)
	}
}

func TestBorderOpeningAnnounced(t *testing.T) {
	st := fixture()
	events := Process(st, st.Galaxy(), 5, &entropy.Fixed{Values: []float64{0.99}})
	if len(events) != 1 || events[0].Category != game.CategoryBorder {
		t.Fatalf("expected one border event, got %+v", events)
	}
	if !strings.Contains(events[0].Description, "Bryn") {
		t.Fatalf("border event should name the regions: %q", events[0].Description)
	}
}

func TestStabilize(t *testing.T) {
	cases := []struct {
		name    string
		empire  string
		mutate  func(st *game.State)
		wantErr error
	}{
		{name: "discoverer", empire: "a"},
		{name: "not discoverer", empire: "b", wantErr: ErrNotDiscoverer},
		{
			name:    "research too low",
			empire:  "a",
			mutate:  func(st *game.State) { st.Empires[0].ResearchLevel = 2 },
			wantErr: ErrResearchTooLow,
		},
		{
			name:    "too poor",
			empire:  "a",
			mutate:  func(st *game.State) { st.Empires[0].Resources.Credits = 24_999 },
			wantErr: ErrInsufficientResources,
		},
		{
			name:    "undiscovered",
			empire:  "a",
			mutate:  func(st *game.State) { wormhole(st).WormholeStatus = galaxy.WormholeUndiscovered },
			wantErr: ErrWrongStatus,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := fixture()
			w := wormhole(st)
			found, by := 2, "a"
			w.WormholeStatus = galaxy.WormholeDiscovered
			w.DiscoveredAtTurn = &found
			w.DiscoveredByEmpireID = &by
			if tc.mutate != nil {
				tc.mutate(st)
			}
			before := st.Empires[0].Resources.Credits

			err := Stabilize(st, st.Galaxy(), tc.empire, 2)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("stabilize: %v", err)
			}
			if w.WormholeStatus != galaxy.WormholeStabilized || w.CollapseChance != 0 {
				t.Fatalf("wormhole not stabilized: %+v", w)
			}
			if st.Empires[0].Resources.Credits != before-StabilizeCost {
				t.Fatalf("credits not charged")
			}
		})
	}
}

func TestStabilizeRejectsOrdinaryEdge(t *testing.T) {
	st := fixture()
	if err := Stabilize(st, st.Galaxy(), "a", 1); !errors.Is(err, ErrNotWormhole) {
		t.Fatalf("expected ErrNotWormhole, got %v", err)
	}
}

func TestConstructionUsesStoredCompletionTurn(t *testing.T) {
	st := fixture()
	w := wormhole(st)
	w.WormholeStatus = galaxy.WormholeCollapsed
	// Empire a must stand on an endpoint.
	st.Influence[0].PrimaryRegionID = 1

	cost, turns := ConstructionCost(400)
	if cost.Credits != 100_000 || cost.Ore != 2_000 || turns != 13 {
		t.Fatalf("unexpected cost %+v over %d turns", cost, turns)
	}

	complete, err := Construct(st, st.Galaxy(), "a", 2, 10)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if complete != 23 || *w.ConstructionCompleteTurn != 23 || w.WormholeStatus != galaxy.WormholeConstructing {
		t.Fatalf("unexpected construction state: complete=%d %+v", complete, w)
	}
	if st.Empires[0].Resources.Credits != 100_000 || st.Empires[0].Resources.Ore != 3_000 {
		t.Fatalf("resources not charged: %+v", st.Empires[0].Resources)
	}

	Process(st, st.Galaxy(), 22, &entropy.Fixed{Values: []float64{0.99}})
	if w.WormholeStatus != galaxy.WormholeConstructing {
		t.Fatalf("construction finished early")
	}
	Process(st, st.Galaxy(), 23, &entropy.Fixed{Values: []float64{0.99}})
	if w.WormholeStatus != galaxy.WormholeDiscovered || *w.DiscoveredByEmpireID != "a" || *w.DiscoveredAtTurn != 23 {
		t.Fatalf("construction did not complete: %+v", w)
	}
}

func TestConstructRequiresEndpoint(t *testing.T) {
	st := fixture()
	wormhole(st).WormholeStatus = galaxy.WormholeCollapsed
	if _, err := Construct(st, st.Galaxy(), "a", 2, 10); !errors.Is(err, ErrNotAtEndpoint) {
		t.Fatalf("expected ErrNotAtEndpoint, got %v", err)
	}
	if _, err := Construct(st, st.Galaxy(), "b", 2, 10); !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}
}
