// Package snapshot implements the ironman save: one versioned, compressed
// image of a game's full state, overwritten after every committed turn.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
)

// Version is the only snapshot format this build reads or writes.
const Version = "dominion-snapshot/v1"

var (
	ErrVersionMismatch = errors.New("snapshot version mismatch")
	ErrGameMismatch    = errors.New("snapshot belongs to another game")
	ErrEmptyState      = errors.New("snapshot state has no empires or regions")
)

// Snapshot is the decoded save image.
type Snapshot struct {
	Version string      `json:"version"`
	GameID  string      `json:"game_id"`
	Turn    int         `json:"turn"`
	State   *game.State `json:"state"`
}

// Serialize captures the state. The state is not copied; callers pass a
// value they no longer mutate.
func Serialize(st *game.State) Snapshot {
	return Snapshot{
		Version: Version,
		GameID:  st.Game.ID,
		Turn:    st.Game.CurrentTurn,
		State:   st,
	}
}

// Encode renders a snapshot as compressed JSON.
func Encode(s Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return compress(raw)
}

// Decode parses a payload written by Encode and checks its version.
func Decode(payload []byte) (Snapshot, error) {
	raw, err := decompress(payload)
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if s.Version != Version {
		return Snapshot{}, fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, s.Version, Version)
	}
	if s.State == nil || len(s.State.Empires) == 0 || len(s.State.Regions) == 0 {
		return Snapshot{}, ErrEmptyState
	}
	return s, nil
}

// Repository is the storage the store needs.
type Repository interface {
	SaveGameSave(ctx context.Context, save game.GameSave) error
	GetGameSave(ctx context.Context, gameID string) (game.GameSave, error)
	ReplaceState(ctx context.Context, st *game.State) error
}

// Store reads and writes the single save row of each game.
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore creates a snapshot store over repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Save overwrites the game's save with the given state.
func (s *Store) Save(ctx context.Context, st *game.State) (game.GameSave, error) {
	snap := Serialize(st)
	payload, err := Encode(snap)
	if err != nil {
		return game.GameSave{}, gameerr.WrapFatal("encode snapshot", err)
	}
	save := game.GameSave{
		GameID:  snap.GameID,
		Version: snap.Version,
		Turn:    snap.Turn,
		Payload: payload,
		SavedAt: s.now().UTC(),
	}
	if err := s.repo.SaveGameSave(ctx, save); err != nil {
		return game.GameSave{}, gameerr.WrapExternal("save snapshot", err)
	}
	return save, nil
}

// Load returns the decoded save of a game without touching live state.
func (s *Store) Load(ctx context.Context, gameID string) (Snapshot, error) {
	save, err := s.repo.GetGameSave(ctx, gameID)
	if err != nil {
		if gameerr.KindOf(err) == gameerr.KindNotFound {
			return Snapshot{}, err
		}
		return Snapshot{}, gameerr.WrapExternal("load snapshot", err)
	}
	if save.Version != Version {
		return Snapshot{}, gameerr.WrapFatal("restore snapshot",
			fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, save.Version, Version))
	}
	snap, err := Decode(save.Payload)
	if err != nil {
		return Snapshot{}, gameerr.WrapFatal("restore snapshot", err)
	}
	if snap.GameID != gameID || snap.State.Game.ID != gameID {
		return Snapshot{}, gameerr.WrapFatal("restore snapshot", ErrGameMismatch)
	}
	snap.State.Normalize()
	return snap, nil
}

// Restore replaces the live state of a game with its save. Live state is
// untouched unless the save decodes and validates.
func (s *Store) Restore(ctx context.Context, gameID string) (Snapshot, error) {
	snap, err := s.Load(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.repo.ReplaceState(ctx, snap.State); err != nil {
		return Snapshot{}, gameerr.WrapExternal("replace state", err)
	}
	return snap, nil
}
