package persistence

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/talgya/star-dominion/internal/game"
)

// empireRow is the flat form of game.Empire; nested structs go to *_json
// columns.
type empireRow struct {
	ID                string                `db:"id"`
	GameID            string                `db:"game_id"`
	Name              string                `db:"name"`
	Type              game.EmpireType       `db:"type"`
	Population        int64                 `db:"population"`
	PopulationCap     int64                 `db:"population_cap"`
	CivilStatus       game.CivilStatus      `db:"civil_status"`
	SurplusStreak     int                   `db:"surplus_streak"`
	DeficitStreak     int                   `db:"deficit_streak"`
	PopulationStatus  game.PopulationStatus `db:"population_status"`
	UnrestTurns       int                   `db:"unrest_turns"`
	RevoltPenalty     float64               `db:"revolt_penalty"`
	LastCasualtyRatio float64               `db:"last_casualty_ratio"`
	ResearchLevel     int                   `db:"research_level"`
	Networth          int64                 `db:"networth"`
	IsEliminated      bool                  `db:"is_eliminated"`
	DefeatType        game.DefeatType       `db:"defeat_type"`
	LastNetCredits    int64                 `db:"last_net_credits"`
	ResourcesJSON     string                `db:"resources_json"`
	SectorsJSON       string                `db:"sectors_json"`
	MilitaryJSON      string                `db:"military_json"`
}

func toEmpireRow(e game.Empire) (empireRow, error) {
	resources, err := json.Marshal(e.Resources)
	if err != nil {
		return empireRow{}, fmt.Errorf("marshal resources: %w", err)
	}
	sectors, err := json.Marshal(e.Sectors)
	if err != nil {
		return empireRow{}, fmt.Errorf("marshal sectors: %w", err)
	}
	military, err := json.Marshal(e.Military)
	if err != nil {
		return empireRow{}, fmt.Errorf("marshal military: %w", err)
	}
	return empireRow{
		ID:                e.ID,
		GameID:            e.GameID,
		Name:              e.Name,
		Type:              e.Type,
		Population:        e.Population,
		PopulationCap:     e.PopulationCap,
		CivilStatus:       e.CivilStatus,
		SurplusStreak:     e.SurplusStreak,
		DeficitStreak:     e.DeficitStreak,
		PopulationStatus:  e.PopulationStatus,
		UnrestTurns:       e.UnrestTurns,
		RevoltPenalty:     e.RevoltPenalty,
		LastCasualtyRatio: e.LastCasualtyRatio,
		ResearchLevel:     e.ResearchLevel,
		Networth:          e.Networth,
		IsEliminated:      e.IsEliminated,
		DefeatType:        e.DefeatType,
		LastNetCredits:    e.LastNetCredits,
		ResourcesJSON:     string(resources),
		SectorsJSON:       string(sectors),
		MilitaryJSON:      string(military),
	}, nil
}

func (r empireRow) empire() (game.Empire, error) {
	e := game.Empire{
		ID:                r.ID,
		GameID:            r.GameID,
		Name:              r.Name,
		Type:              r.Type,
		Population:        r.Population,
		PopulationCap:     r.PopulationCap,
		CivilStatus:       r.CivilStatus,
		SurplusStreak:     r.SurplusStreak,
		DeficitStreak:     r.DeficitStreak,
		PopulationStatus:  r.PopulationStatus,
		UnrestTurns:       r.UnrestTurns,
		RevoltPenalty:     r.RevoltPenalty,
		LastCasualtyRatio: r.LastCasualtyRatio,
		ResearchLevel:     r.ResearchLevel,
		Networth:          r.Networth,
		IsEliminated:      r.IsEliminated,
		DefeatType:        r.DefeatType,
		LastNetCredits:    r.LastNetCredits,
	}
	if err := json.Unmarshal([]byte(r.ResourcesJSON), &e.Resources); err != nil {
		return e, fmt.Errorf("empire %s resources: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.SectorsJSON), &e.Sectors); err != nil {
		return e, fmt.Errorf("empire %s sectors: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.MilitaryJSON), &e.Military); err != nil {
		return e, fmt.Errorf("empire %s military: %w", r.ID, err)
	}
	return e, nil
}

type influenceRow struct {
	EmpireID              string `db:"empire_id"`
	GameID                string `db:"game_id"`
	HomeRegionID          int64  `db:"home_region_id"`
	PrimaryRegionID       int64  `db:"primary_region_id"`
	DirectNeighborsJSON   string `db:"direct_neighbors_json"`
	ExtendedNeighborsJSON string `db:"extended_neighbors_json"`
	ComputedAtTurn        int    `db:"computed_at_turn"`
}

func toInfluenceRow(inf game.EmpireInfluence) (influenceRow, error) {
	direct, err := json.Marshal(nonNil(inf.DirectNeighborIDs))
	if err != nil {
		return influenceRow{}, err
	}
	extended, err := json.Marshal(nonNil(inf.ExtendedNeighborIDs))
	if err != nil {
		return influenceRow{}, err
	}
	return influenceRow{
		EmpireID:              inf.EmpireID,
		GameID:                inf.GameID,
		HomeRegionID:          inf.HomeRegionID,
		PrimaryRegionID:       inf.PrimaryRegionID,
		DirectNeighborsJSON:   string(direct),
		ExtendedNeighborsJSON: string(extended),
		ComputedAtTurn:        inf.ComputedAtTurn,
	}, nil
}

func (r influenceRow) influence() (game.EmpireInfluence, error) {
	inf := game.EmpireInfluence{
		EmpireID:        r.EmpireID,
		GameID:          r.GameID,
		HomeRegionID:    r.HomeRegionID,
		PrimaryRegionID: r.PrimaryRegionID,
		ComputedAtTurn:  r.ComputedAtTurn,
	}
	if err := json.Unmarshal([]byte(r.DirectNeighborsJSON), &inf.DirectNeighborIDs); err != nil {
		return inf, fmt.Errorf("influence %s direct neighbours: %w", r.EmpireID, err)
	}
	if err := json.Unmarshal([]byte(r.ExtendedNeighborsJSON), &inf.ExtendedNeighborIDs); err != nil {
		return inf, fmt.Errorf("influence %s extended neighbours: %w", r.EmpireID, err)
	}
	return inf, nil
}

type attackRow struct {
	ID         string `db:"id"`
	GameID     string `db:"game_id"`
	AttackerID string `db:"attacker_id"`
	DefenderID string `db:"defender_id"`
	Turn       int    `db:"turn"`
	ForcesJSON string `db:"forces_json"`
}

func toAttackRow(a game.AttackOrder) (attackRow, error) {
	forces, err := json.Marshal(a.Forces)
	if err != nil {
		return attackRow{}, fmt.Errorf("marshal forces: %w", err)
	}
	return attackRow{
		ID:         a.ID,
		GameID:     a.GameID,
		AttackerID: a.AttackerID,
		DefenderID: a.DefenderID,
		Turn:       a.Turn,
		ForcesJSON: string(forces),
	}, nil
}

func (r attackRow) order() (game.AttackOrder, error) {
	a := game.AttackOrder{
		ID:         r.ID,
		GameID:     r.GameID,
		AttackerID: r.AttackerID,
		DefenderID: r.DefenderID,
		Turn:       r.Turn,
	}
	if err := json.Unmarshal([]byte(r.ForcesJSON), &a.Forces); err != nil {
		return a, fmt.Errorf("attack %s forces: %w", r.ID, err)
	}
	return a, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
