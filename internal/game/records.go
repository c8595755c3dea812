package game

import "time"

// BuildQueueItem is a batch of units under construction.
type BuildQueueItem struct {
	ID             string   `json:"id" db:"id"`
	GameID         string   `json:"game_id" db:"game_id"`
	EmpireID       string   `json:"empire_id" db:"empire_id"`
	Unit           UnitKind `json:"unit" db:"unit"`
	Quantity       int64    `json:"quantity" db:"quantity"`
	TurnsRemaining int      `json:"turns_remaining" db:"turns_remaining"`
	QueuedAtTurn   int      `json:"queued_at_turn" db:"queued_at_turn"`
}

// AttackOrder is an attack queued for resolution in a given turn.
type AttackOrder struct {
	ID         string   `json:"id"`
	GameID     string   `json:"game_id"`
	AttackerID string   `json:"attacker_id"`
	DefenderID string   `json:"defender_id"`
	Turn       int      `json:"turn"`
	Forces     Military `json:"forces"`
}

// TreatyType is the kind of diplomatic agreement between two empires.
type TreatyType string

const (
	TreatyNonAggression TreatyType = "non_aggression"
	TreatyAlliance      TreatyType = "alliance"
)

// Treaty forbids attacks between its parties while active.
type Treaty struct {
	GameID  string     `json:"game_id" db:"game_id"`
	EmpireA string     `json:"empire_a" db:"empire_a"`
	EmpireB string     `json:"empire_b" db:"empire_b"`
	Type    TreatyType `json:"type" db:"type"`
	Active  bool       `json:"active" db:"active"`
}

// Binds reports whether the treaty is active between a and b.
func (t Treaty) Binds(a, b string) bool {
	if !t.Active {
		return false
	}
	return (t.EmpireA == a && t.EmpireB == b) || (t.EmpireA == b && t.EmpireB == a)
}

// CivilStatusHistory is one append-only civil status change.
type CivilStatusHistory struct {
	GameID   string      `json:"game_id" db:"game_id"`
	EmpireID string      `json:"empire_id" db:"empire_id"`
	Turn     int         `json:"turn" db:"turn"`
	From     CivilStatus `json:"from" db:"from_status"`
	To       CivilStatus `json:"to" db:"to_status"`
	Reason   string      `json:"reason" db:"reason"`
}

// EmpireInfluence anchors an empire in the galaxy. The neighbour lists are a
// per-turn cache and are never read back as authority.
type EmpireInfluence struct {
	EmpireID            string   `json:"empire_id"`
	GameID              string   `json:"game_id"`
	HomeRegionID        int64    `json:"home_region_id"`
	PrimaryRegionID     int64    `json:"primary_region_id"`
	DirectNeighborIDs   []string `json:"direct_neighbor_ids"`
	ExtendedNeighborIDs []string `json:"extended_neighbor_ids"`
	ComputedAtTurn      int      `json:"computed_at_turn"`
}

// GameSave is the single ironman save row for a game.
type GameSave struct {
	GameID  string    `json:"game_id" db:"game_id"`
	Version string    `json:"version" db:"version"`
	Turn    int       `json:"turn" db:"turn"`
	Payload []byte    `json:"-" db:"payload"`
	SavedAt time.Time `json:"saved_at" db:"saved_at"`
}
