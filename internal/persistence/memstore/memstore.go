// Package memstore is an in-memory engine.Repository for tests and
// single-process play without a database.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/talgya/star-dominion/internal/engine"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
)

// Store keeps every game in memory. Reads and writes copy, so callers
// never share state with the store.
type Store struct {
	mu      sync.RWMutex
	games   map[string]*game.State
	saves   map[string]game.GameSave
	history map[string][]game.CivilStatusHistory
	saveErr error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		games:   make(map[string]*game.State),
		saves:   make(map[string]game.GameSave),
		history: make(map[string][]game.CivilStatusHistory),
	}
}

var _ engine.Repository = (*Store)(nil)

// FailSaves makes every SaveGameSave return err until called with nil.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// LoadState returns a copy of the game's state.
func (s *Store) LoadState(_ context.Context, gameID string) (*game.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.games[gameID]
	if !ok {
		return nil, gameerr.NotFoundf("game %s not found", gameID)
	}
	return st.Clone(), nil
}

// CreateGame stores a new game.
func (s *Store) CreateGame(_ context.Context, st *game.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[st.Game.ID]; ok {
		return gameerr.Conflictf("game %s already exists", st.Game.ID)
	}
	s.games[st.Game.ID] = st.Clone()
	return nil
}

// ReplaceState overwrites a game's live state.
func (s *Store) ReplaceState(_ context.Context, st *game.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[st.Game.ID]; !ok {
		return gameerr.NotFoundf("game %s not found", st.Game.ID)
	}
	s.games[st.Game.ID] = st.Clone()
	return nil
}

// CommitTurn applies a turn's write set.
func (s *Store) CommitTurn(_ context.Context, ws engine.WriteSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[ws.Game.ID]
	if !ok {
		return gameerr.NotFoundf("game %s not found", ws.Game.ID)
	}
	if cur.Game.CurrentTurn != ws.ExpectedTurn {
		return gameerr.Conflictf("game %s is at turn %d, expected %d", ws.Game.ID, cur.Game.CurrentTurn, ws.ExpectedTurn)
	}

	next := &game.State{
		Game:        ws.Game,
		Empires:     ws.Empires,
		Regions:     cur.Regions,
		Connections: ws.Connections,
		Influence:   ws.Influence,
		BuildQueue:  ws.BuildQueue,
		Treaties:    cur.Treaties,
	}
	for _, a := range cur.Attacks {
		if !slices.Contains(ws.ConsumedAttackIDs, a.ID) {
			next.Attacks = append(next.Attacks, a)
		}
	}
	s.games[ws.Game.ID] = next.Clone()
	s.history[ws.Game.ID] = append(s.history[ws.Game.ID], ws.History...)
	return nil
}

// ApplyAction persists one between-turn action.
func (s *Store) ApplyAction(_ context.Context, aw engine.ActionWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[aw.GameID]
	if !ok {
		return gameerr.NotFoundf("game %s not found", aw.GameID)
	}
	if cur.Game.CurrentTurn != aw.ExpectedTurn {
		return gameerr.Conflictf("game %s is at turn %d, expected %d", aw.GameID, cur.Game.CurrentTurn, aw.ExpectedTurn)
	}

	next := cur.Clone()
	if aw.Empire != nil {
		e, ok := next.Empire(aw.Empire.ID)
		if !ok {
			return gameerr.NotFoundf("empire %s not found", aw.Empire.ID)
		}
		*e = *aw.Empire
	}
	if aw.Connection != nil {
		found := false
		for i := range next.Connections {
			if next.Connections[i].ID == aw.Connection.ID {
				next.Connections[i] = *aw.Connection
				found = true
			}
		}
		if !found {
			return gameerr.NotFoundf("connection %d not found", aw.Connection.ID)
		}
	}
	if aw.BuildItem != nil {
		next.BuildQueue = append(next.BuildQueue, *aw.BuildItem)
	}
	if aw.Attack != nil {
		next.Attacks = append(next.Attacks, *aw.Attack)
	}
	// Clone again so pointer fields from the action are not shared.
	s.games[aw.GameID] = next.Clone()
	return nil
}

// SaveGameSave overwrites the game's save row.
func (s *Store) SaveGameSave(_ context.Context, save game.GameSave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	save.Payload = slices.Clone(save.Payload)
	s.saves[save.GameID] = save
	return nil
}

// GetGameSave returns the game's save row.
func (s *Store) GetGameSave(_ context.Context, gameID string) (game.GameSave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	save, ok := s.saves[gameID]
	if !ok {
		return game.GameSave{}, gameerr.NotFoundf("no save for game %s", gameID)
	}
	save.Payload = slices.Clone(save.Payload)
	return save, nil
}

// ListActiveGames returns active games ordered by ID.
func (s *Store) ListActiveGames(_ context.Context) ([]game.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []game.Game
	for _, st := range s.games {
		if st.Game.Status == game.StatusActive {
			out = append(out, st.Game)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// History returns the civil status changes of one empire, oldest first.
func (s *Store) History(_ context.Context, gameID, empireID string) ([]game.CivilStatusHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []game.CivilStatusHistory
	for _, h := range s.history[gameID] {
		if h.EmpireID == empireID {
			out = append(out, h)
		}
	}
	return out, nil
}
