package victory

import (
	"fmt"

	"github.com/talgya/star-dominion/internal/game"
)

const (
	ConquestShare    = 0.60 // Share of all territory that wins outright
	EconomicMultiple = 1.5  // Networth over the field average that wins outright
)

// Outcome is a decided game.
type Outcome struct {
	Type           game.VictoryType `json:"type"`
	WinnerEmpireID string           `json:"winner_empire_id,omitempty"`
	WinnerName     string           `json:"winner_name,omitempty"`
	Announcement   string           `json:"announcement"`
}

// Evaluate decides whether the game ends after the given turn. Checks run
// in priority order: elimination, conquest, economic, player defeat, turn
// limit. Networth must be current before calling.
func Evaluate(st *game.State, turn int) (Outcome, bool) {
	live := st.LiveEmpires()

	switch len(live) {
	case 0:
		return Outcome{Type: game.VictoryElimination, Announcement: "No empire survived."}, true
	case 1:
		return won(game.VictoryElimination, live[0], "%s is the last empire standing."), true
	}

	if leader, share := territoryLeader(live, st.TotalTerritory()); share >= ConquestShare {
		return won(game.VictoryConquest, leader,
			fmt.Sprintf("%%s controls %.0f%%%% of the galaxy.", share*100)), true
	}

	if turn > st.Game.ProtectionTurns {
		top := networthLeader(live)
		var total int64
		for _, e := range live {
			total += e.Networth
		}
		avg := float64(total) / float64(len(live))
		if avg > 0 && float64(top.Networth) >= EconomicMultiple*avg {
			return won(game.VictoryEconomic, top, "%s dominates the galactic economy."), true
		}
	}

	if p, ok := st.Player(); ok && !p.Alive() {
		out := won(game.VictoryDefeat, networthLeader(live), "%s outlasted the player's empire.")
		out.Announcement = fmt.Sprintf("%s has fallen (%s). %s", p.Name, p.DefeatType, out.Announcement)
		return out, true
	}

	if turn >= st.Game.TurnLimit {
		return won(game.VictoryTurnLimit, networthLeader(live), "%s leads when the final turn ends."), true
	}
	return Outcome{}, false
}

// Apply ends the game with the given outcome.
func Apply(g *game.Game, out Outcome) {
	g.Status = game.StatusEnded
	vt := out.Type
	g.VictoryType = &vt
	if out.WinnerEmpireID != "" {
		id := out.WinnerEmpireID
		g.WinnerEmpireID = &id
	}
}

func won(t game.VictoryType, e *game.Empire, format string) Outcome {
	return Outcome{
		Type:           t,
		WinnerEmpireID: e.ID,
		WinnerName:     e.Name,
		Announcement:   fmt.Sprintf(format, e.Name),
	}
}

// territoryLeader returns the live empire holding the most territory and
// its share of total, which also counts sectors still held by defeated
// empires. Ties go to the lower ID.
func territoryLeader(live []*game.Empire, total int) (*game.Empire, float64) {
	var leader *game.Empire
	for _, e := range live {
		if leader == nil || e.Territory() > leader.Territory() {
			leader = e
		}
	}
	if total == 0 {
		return leader, 0
	}
	return leader, float64(leader.Territory()) / float64(total)
}

// networthLeader returns the richest empire, ties to the lower ID.
func networthLeader(live []*game.Empire) *game.Empire {
	var leader *game.Empire
	for _, e := range live {
		if leader == nil || e.Networth > leader.Networth {
			leader = e
		}
	}
	return leader
}
