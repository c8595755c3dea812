// Package game provides the domain model shared by every turn phase: games,
// empires, their queued orders, and the State aggregate a turn operates on.
package game

import "time"

// Status is the lifecycle state of a game.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// VictoryType names how a game ended.
type VictoryType string

const (
	VictoryElimination VictoryType = "elimination" // Last empire standing
	VictoryConquest    VictoryType = "conquest"    // Holds most of the galaxy's territory
	VictoryEconomic    VictoryType = "economic"    // Networth far above the field
	VictoryTurnLimit   VictoryType = "turn_limit"  // Highest networth when time runs out
	VictoryDefeat      VictoryType = "defeat"      // The human player was defeated
)

// Game is one galaxy and its empires.
type Game struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Seed            int64        `json:"seed" db:"seed"`
	CurrentTurn     int          `json:"current_turn" db:"current_turn"` // Next turn to process
	TurnLimit       int          `json:"turn_limit" db:"turn_limit"`
	Status          Status       `json:"status" db:"status"`
	ProtectionTurns int          `json:"protection_turns" db:"protection_turns"` // No attacks while turn <= this
	WinnerEmpireID  *string      `json:"winner_empire_id,omitempty" db:"winner_empire_id"`
	VictoryType     *VictoryType `json:"victory_type,omitempty" db:"victory_type"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// InProtection reports whether attacks are forbidden on the given turn.
func (g Game) InProtection(turn int) bool {
	return turn <= g.ProtectionTurns
}

// Event categories.
const (
	CategoryEconomy    = "economy"
	CategoryPopulation = "population"
	CategoryCivil      = "civil"
	CategoryBuild      = "build"
	CategoryResearch   = "research"
	CategoryWormhole   = "wormhole"
	CategoryBorder     = "border"
	CategoryCombat     = "combat"
	CategoryRevolt     = "revolt"
	CategoryDefeat     = "defeat"
	CategoryVictory    = "victory"
)

// Event is a notable occurrence during a turn.
type Event struct {
	Turn        int    `json:"turn"`
	EmpireID    string `json:"empire_id,omitempty"` // Empty for galaxy-wide events
	Category    string `json:"category"`
	Description string `json:"description"`
}
