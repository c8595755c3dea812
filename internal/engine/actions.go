package engine

import (
	"context"
	"errors"

	"github.com/talgya/star-dominion/internal/economy"
	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
	"github.com/talgya/star-dominion/internal/influence"
	"github.com/talgya/star-dominion/internal/population"
	"github.com/talgya/star-dominion/internal/snapshot"
	"github.com/talgya/star-dominion/internal/victory"
	"github.com/talgya/star-dominion/internal/wormhole"
)

// Game creation limits.
const (
	MinEmpires             = 2
	MaxEmpires             = 100
	DefaultTurnLimit       = 200
	DefaultProtectionTurns = 20
)

// Starting position of every empire.
var (
	startingResources = game.Resources{Credits: 100_000, Food: 10_000, Ore: 5_000, Petroleum: 2_000}
	startingSectors   = game.Sectors{Food: 5, Ore: 3, Petroleum: 2, Commerce: 3, Urban: 2, Research: 1}
	startingMilitary  = game.Military{Soldiers: 500, Fighters: 50, Stations: 10, LightCruisers: 20, CovertAgents: 10}
)

const startingPopulation = 10_000

// NewGame describes a game to create. Zero values pick defaults: a fresh
// seed, 200 turns and 20 protected turns. A negative ProtectionTurns
// disables the protection period.
type NewGame struct {
	Name            string `json:"name"`
	Empires         int    `json:"empires"`
	TurnLimit       int    `json:"turn_limit"`
	ProtectionTurns int    `json:"protection_turns"`
	Seed            int64  `json:"seed"`
	PlayerName      string `json:"player_name"`
}

// CreateGame generates a galaxy, places every empire and stores the game
// together with its first snapshot.
func (s *Service) CreateGame(ctx context.Context, req NewGame) (*game.State, error) {
	if req.Empires < MinEmpires || req.Empires > MaxEmpires {
		return nil, gameerr.Validationf("empire count must be between %d and %d, got %d", MinEmpires, MaxEmpires, req.Empires)
	}
	if req.TurnLimit == 0 {
		req.TurnLimit = DefaultTurnLimit
	}
	if req.TurnLimit < 1 {
		return nil, gameerr.Validationf("turn limit must be positive, got %d", req.TurnLimit)
	}
	switch {
	case req.ProtectionTurns == 0:
		req.ProtectionTurns = min(DefaultProtectionTurns, req.TurnLimit-1)
	case req.ProtectionTurns < 0:
		req.ProtectionTurns = 0
	}
	if req.ProtectionTurns >= req.TurnLimit {
		return nil, gameerr.Validationf("protection turns must be in [0, %d), got %d", req.TurnLimit, req.ProtectionTurns)
	}
	if req.Name == "" {
		req.Name = "Star Dominion"
	}
	if req.Seed == 0 {
		seed, err := entropy.NewSeed()
		if err != nil {
			return nil, gameerr.WrapExternal("draw seed", err)
		}
		req.Seed = seed
	}

	st, err := s.buildGame(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGame(ctx, st); err != nil {
		return nil, wrapRepo("create game", err)
	}
	if _, err := s.snapshots.Save(ctx, st); err != nil {
		s.metrics.SnapshotFailed()
		s.logger.Warn("initial snapshot failed", "game_id", st.Game.ID, "error", err)
	}
	s.logger.Info("game created",
		"game_id", st.Game.ID,
		"seed", st.Game.Seed,
		"empires", len(st.Empires),
		"regions", len(st.Regions),
		"connections", len(st.Connections),
	)
	return st, nil
}

func (s *Service) buildGame(req NewGame) (*game.State, error) {
	gameID := s.newID()
	layout := galaxy.Generate(galaxy.DefaultGenConfig(req.Empires), s.entropy(req.Seed, 0, entropy.StreamGalaxy))
	for i := range layout.Regions {
		layout.Regions[i].GameID = gameID
	}
	for i := range layout.Connections {
		layout.Connections[i].GameID = gameID
	}

	placement := s.entropy(req.Seed, 0, entropy.StreamPlacement)
	homes, err := galaxy.PlaceEmpires(layout.Regions, req.Empires, placement)
	if err != nil {
		return nil, gameerr.WrapValidation("place empires", err)
	}
	names := galaxy.EmpireNames(placement, req.Empires)
	if req.PlayerName != "" {
		names[0] = req.PlayerName
	}

	st := &game.State{
		Game: game.Game{
			ID:              gameID,
			Name:            req.Name,
			Seed:            req.Seed,
			CurrentTurn:     1,
			TurnLimit:       req.TurnLimit,
			Status:          game.StatusActive,
			ProtectionTurns: req.ProtectionTurns,
			CreatedAt:       s.now().UTC(),
		},
		Regions:     layout.Regions,
		Connections: layout.Connections,
	}
	for i := range req.Empires {
		typ := game.EmpireBot
		if i == 0 {
			typ = game.EmpirePlayer
		}
		e := game.Empire{
			ID:               s.newID(),
			GameID:           gameID,
			Name:             names[i],
			Type:             typ,
			Resources:        startingResources,
			Population:       startingPopulation,
			PopulationCap:    population.Cap(startingSectors),
			Sectors:          startingSectors,
			Military:         startingMilitary,
			CivilStatus:      game.CivilContent,
			PopulationStatus: game.PopulationStable,
		}
		e.Networth = victory.Networth(&e)
		st.Empires = append(st.Empires, e)
		st.Influence = append(st.Influence, game.EmpireInfluence{
			EmpireID:        e.ID,
			GameID:          gameID,
			HomeRegionID:    homes[i],
			PrimaryRegionID: homes[i],
		})
	}
	st.Normalize()
	if err := influence.RefreshCache(st, st.Galaxy(), 0); err != nil {
		return nil, gameerr.Transform("create", err)
	}
	return st, nil
}

// act runs one between-turn action under the game lock and persists its
// effects atomically.
func (s *Service) act(ctx context.Context, gameID string, fn func(st *game.State) (ActionWrite, error)) error {
	release, err := s.acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	loaded, err := s.repo.LoadState(ctx, gameID)
	if err != nil {
		return wrapRepo("load state", err)
	}
	if loaded.Game.Status != game.StatusActive {
		return gameerr.Validationf("game %s has ended", gameID)
	}
	st := loaded.Clone()
	st.Normalize()

	aw, err := fn(st)
	if err != nil {
		return err
	}
	aw.GameID = gameID
	aw.ExpectedTurn = st.Game.CurrentTurn
	if err := s.repo.ApplyAction(ctx, aw); err != nil {
		return wrapRepo("apply action", err)
	}
	return nil
}

// liveEmpire returns the acting empire or a typed error.
func liveEmpire(st *game.State, empireID string) (*game.Empire, error) {
	e, ok := st.Empire(empireID)
	if !ok {
		return nil, gameerr.NotFoundf("empire %s not found in game %s", empireID, st.Game.ID)
	}
	if !e.Alive() {
		return nil, gameerr.Validationf("empire %s has been defeated", e.Name)
	}
	return e, nil
}

// QueueBuild pays for quantity units of kind and queues them for delivery.
func (s *Service) QueueBuild(ctx context.Context, gameID, empireID string, kind game.UnitKind, quantity int64) (game.BuildQueueItem, error) {
	var item game.BuildQueueItem
	err := s.act(ctx, gameID, func(st *game.State) (ActionWrite, error) {
		e, err := liveEmpire(st, empireID)
		if err != nil {
			return ActionWrite{}, err
		}
		item, err = economy.Enqueue(st, empireID, kind, quantity, st.Game.CurrentTurn, s.newID())
		if err != nil {
			return ActionWrite{}, gameerr.WrapValidation("queue build", err)
		}
		return ActionWrite{Empire: e, BuildItem: &item}, nil
	})
	return item, err
}

// QueueAttack records an attack order to resolve in the current turn. The
// order is checked now so obviously illegal attacks are refused early; it
// is checked again when the turn runs.
func (s *Service) QueueAttack(ctx context.Context, gameID, attackerID, defenderID string, forces game.Military) (game.AttackOrder, error) {
	var order game.AttackOrder
	err := s.act(ctx, gameID, func(st *game.State) (ActionWrite, error) {
		attacker, err := liveEmpire(st, attackerID)
		if err != nil {
			return ActionWrite{}, err
		}
		if _, ok := st.Empire(defenderID); !ok {
			return ActionWrite{}, gameerr.NotFoundf("empire %s not found in game %s", defenderID, gameID)
		}
		for _, k := range game.UnitKinds {
			if forces.Count(k) < 0 {
				return ActionWrite{}, gameerr.Validationf("negative %s count", k)
			}
		}
		if forces == (game.Military{}) {
			return ActionWrite{}, gameerr.Validationf("attack commits no forces")
		}
		if !attacker.Military.Covers(forces) {
			return ActionWrite{}, gameerr.Validationf("%s cannot commit more units than it has", attacker.Name)
		}

		turn := st.Game.CurrentTurn
		if _, err := influence.ValidateAttack(st, st.Galaxy(), attackerID, defenderID, turn); err != nil {
			if errors.Is(err, influence.ErrNoAnchor) {
				return ActionWrite{}, gameerr.WrapFatal("validate attack", err)
			}
			return ActionWrite{}, gameerr.WrapValidation("queue attack", err)
		}
		order = game.AttackOrder{
			ID:         s.newID(),
			GameID:     gameID,
			AttackerID: attackerID,
			DefenderID: defenderID,
			Turn:       turn,
			Forces:     forces,
		}
		return ActionWrite{Attack: &order}, nil
	})
	return order, err
}

// StabilizeWormhole removes the collapse risk of a wormhole the empire
// discovered.
func (s *Service) StabilizeWormhole(ctx context.Context, gameID, empireID string, connectionID int64) error {
	return s.act(ctx, gameID, func(st *game.State) (ActionWrite, error) {
		e, err := liveEmpire(st, empireID)
		if err != nil {
			return ActionWrite{}, err
		}
		g := st.Galaxy()
		if _, ok := g.Connection(connectionID); !ok {
			return ActionWrite{}, gameerr.NotFoundf("connection %d not found", connectionID)
		}
		if err := wormhole.Stabilize(st, g, empireID, connectionID); err != nil {
			return ActionWrite{}, gameerr.WrapValidation("stabilize wormhole", err)
		}
		c, _ := g.Connection(connectionID)
		return ActionWrite{Empire: e, Connection: c}, nil
	})
}

// ConstructWormhole starts rebuilding a collapsed wormhole and returns the
// turn on which it opens.
func (s *Service) ConstructWormhole(ctx context.Context, gameID, empireID string, connectionID int64) (int, error) {
	var complete int
	err := s.act(ctx, gameID, func(st *game.State) (ActionWrite, error) {
		e, err := liveEmpire(st, empireID)
		if err != nil {
			return ActionWrite{}, err
		}
		g := st.Galaxy()
		if _, ok := g.Connection(connectionID); !ok {
			return ActionWrite{}, gameerr.NotFoundf("connection %d not found", connectionID)
		}
		complete, err = wormhole.Construct(st, g, empireID, connectionID, st.Game.CurrentTurn)
		if err != nil {
			return ActionWrite{}, gameerr.WrapValidation("construct wormhole", err)
		}
		c, _ := g.Connection(connectionID)
		return ActionWrite{Empire: e, Connection: c}, nil
	})
	return complete, err
}

// RestoreSnapshot replaces the game's live state with its last save.
func (s *Service) RestoreSnapshot(ctx context.Context, gameID string) (snapshot.Snapshot, error) {
	release, err := s.acquire(ctx, gameID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer release()

	snap, err := s.snapshots.Restore(ctx, gameID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	s.logger.Info("snapshot restored", "game_id", gameID, "turn", snap.Turn)
	return snap, nil
}

// GetState returns the stored state of a game.
func (s *Service) GetState(ctx context.Context, gameID string) (*game.State, error) {
	st, err := s.repo.LoadState(ctx, gameID)
	if err != nil {
		return nil, wrapRepo("load state", err)
	}
	st.Normalize()
	return st, nil
}

// ListActiveGames returns every game still in progress.
func (s *Service) ListActiveGames(ctx context.Context) ([]game.Game, error) {
	games, err := s.repo.ListActiveGames(ctx)
	if err != nil {
		return nil, wrapRepo("list games", err)
	}
	return games, nil
}

// History returns the civil status changes of one empire, oldest first.
func (s *Service) History(ctx context.Context, gameID, empireID string) ([]game.CivilStatusHistory, error) {
	st, err := s.repo.LoadState(ctx, gameID)
	if err != nil {
		return nil, wrapRepo("load state", err)
	}
	if _, ok := st.Empire(empireID); !ok {
		return nil, gameerr.NotFoundf("empire %s not found", empireID)
	}
	out, err := s.repo.History(ctx, gameID, empireID)
	if err != nil {
		return nil, wrapRepo("load history", err)
	}
	if out == nil {
		out = []game.CivilStatusHistory{}
	}
	return out, nil
}
