package game

import (
	"sort"

	"github.com/talgya/star-dominion/internal/galaxy"
)

// State is everything a turn reads and writes for one game.
type State struct {
	Game        Game                `json:"game"`
	Empires     []Empire            `json:"empires"` // Sorted by ID
	Regions     []galaxy.Region     `json:"regions"`
	Connections []galaxy.Connection `json:"connections"`
	Influence   []EmpireInfluence   `json:"influence"`
	BuildQueue  []BuildQueueItem    `json:"build_queue"`
	Attacks     []AttackOrder       `json:"attacks"` // Pending orders
	Treaties    []Treaty            `json:"treaties"`
}

// Normalize sorts every collection into its canonical order so iteration is
// deterministic regardless of how the state was loaded.
func (s *State) Normalize() {
	sort.Slice(s.Empires, func(i, j int) bool { return s.Empires[i].ID < s.Empires[j].ID })
	sort.Slice(s.Regions, func(i, j int) bool { return s.Regions[i].ID < s.Regions[j].ID })
	sort.Slice(s.Connections, func(i, j int) bool { return s.Connections[i].ID < s.Connections[j].ID })
	sort.Slice(s.Influence, func(i, j int) bool { return s.Influence[i].EmpireID < s.Influence[j].EmpireID })
	sort.SliceStable(s.BuildQueue, func(i, j int) bool {
		a, b := s.BuildQueue[i], s.BuildQueue[j]
		if a.QueuedAtTurn != b.QueuedAtTurn {
			return a.QueuedAtTurn < b.QueuedAtTurn
		}
		return a.ID < b.ID
	})
	sort.SliceStable(s.Attacks, func(i, j int) bool {
		a, b := s.Attacks[i], s.Attacks[j]
		if a.Turn != b.Turn {
			return a.Turn < b.Turn
		}
		return a.ID < b.ID
	})
}

// Clone returns a deep copy. Phases run on a clone so a failed turn leaves
// the loaded state untouched.
func (s *State) Clone() *State {
	out := &State{
		Game:        s.Game,
		Empires:     append([]Empire(nil), s.Empires...),
		Regions:     append([]galaxy.Region(nil), s.Regions...),
		Connections: make([]galaxy.Connection, len(s.Connections)),
		Influence:   make([]EmpireInfluence, len(s.Influence)),
		BuildQueue:  append([]BuildQueueItem(nil), s.BuildQueue...),
		Attacks:     append([]AttackOrder(nil), s.Attacks...),
		Treaties:    append([]Treaty(nil), s.Treaties...),
	}
	out.Game.WinnerEmpireID = cloneString(s.Game.WinnerEmpireID)
	if s.Game.VictoryType != nil {
		v := *s.Game.VictoryType
		out.Game.VictoryType = &v
	}
	for i, c := range s.Connections {
		c.DiscoveredByEmpireID = cloneString(c.DiscoveredByEmpireID)
		c.DiscoveredAtTurn = cloneInt(c.DiscoveredAtTurn)
		c.ConstructionCompleteTurn = cloneInt(c.ConstructionCompleteTurn)
		c.ConstructedByEmpireID = cloneString(c.ConstructedByEmpireID)
		out.Connections[i] = c
	}
	for i, inf := range s.Influence {
		inf.DirectNeighborIDs = append([]string(nil), inf.DirectNeighborIDs...)
		inf.ExtendedNeighborIDs = append([]string(nil), inf.ExtendedNeighborIDs...)
		out.Influence[i] = inf
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Empire returns the empire with the given ID.
func (s *State) Empire(id string) (*Empire, bool) {
	for i := range s.Empires {
		if s.Empires[i].ID == id {
			return &s.Empires[i], true
		}
	}
	return nil, false
}

// LiveEmpires returns every empire not yet defeated, in ID order.
func (s *State) LiveEmpires() []*Empire {
	var out []*Empire
	for i := range s.Empires {
		if s.Empires[i].Alive() {
			out = append(out, &s.Empires[i])
		}
	}
	return out
}

// Player returns the human player's empire, if the game has one.
func (s *State) Player() (*Empire, bool) {
	for i := range s.Empires {
		if s.Empires[i].Type == EmpirePlayer {
			return &s.Empires[i], true
		}
	}
	return nil, false
}

// InfluenceOf returns the galaxy anchor for an empire.
func (s *State) InfluenceOf(empireID string) (*EmpireInfluence, bool) {
	for i := range s.Influence {
		if s.Influence[i].EmpireID == empireID {
			return &s.Influence[i], true
		}
	}
	return nil, false
}

// Galaxy indexes the state's regions and connections. Mutations through the
// returned graph land in the state.
func (s *State) Galaxy() *galaxy.Graph {
	return galaxy.NewGraph(s.Regions, s.Connections)
}

// ActiveTreaty reports whether an active treaty binds a and b.
func (s *State) ActiveTreaty(a, b string) bool {
	for _, t := range s.Treaties {
		if t.Binds(a, b) {
			return true
		}
	}
	return false
}

// TotalTerritory sums the territory of every empire. Defeated empires keep
// their sectors, so they count too.
func (s *State) TotalTerritory() int {
	total := 0
	for i := range s.Empires {
		total += s.Empires[i].Territory()
	}
	return total
}
