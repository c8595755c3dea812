package engine

import (
	"github.com/talgya/star-dominion/internal/combat"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/victory"
)

// TurnResult is the outcome of one processed turn. It carries no wall-clock
// data, so replays from the same state and seed encode identically.
type TurnResult struct {
	GameID            string              `json:"game_id"`
	Turn              int                 `json:"turn"`
	NextTurn          int                 `json:"next_turn"`
	Empires           []EmpireTurnSummary `json:"empires"` // Ordered by empire ID
	Events            []game.Event        `json:"events"`  // Galaxy-wide events
	Combats           []combat.Result     `json:"combats"`
	EliminatedEmpires []string            `json:"eliminated_empires"`
	Victory           *victory.Outcome    `json:"victory,omitempty"`
	SnapshotError     string              `json:"snapshot_error,omitempty"`
}

// EmpireTurnSummary is one empire's slice of a turn.
type EmpireTurnSummary struct {
	EmpireID          string           `json:"empire_id"`
	Name              string           `json:"name"`
	ResourceDelta     game.Resources   `json:"resource_delta"`
	PopulationBefore  int64            `json:"population_before"`
	PopulationAfter   int64            `json:"population_after"`
	CivilStatusBefore game.CivilStatus `json:"civil_status_before"`
	CivilStatusAfter  game.CivilStatus `json:"civil_status_after"`
	Networth          int64            `json:"networth"`
	Events            []game.Event     `json:"events"` // In phase order
}

// Ended reports whether the turn decided the game.
func (r *TurnResult) Ended() bool {
	return r.Victory != nil
}
