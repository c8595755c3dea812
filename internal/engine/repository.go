package engine

import (
	"context"

	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

// Repository is the persistence port of the engine. Every write method is
// atomic: either all of its rows land or none do.
type Repository interface {
	LoadState(ctx context.Context, gameID string) (*game.State, error)
	CommitTurn(ctx context.Context, ws WriteSet) error
	CreateGame(ctx context.Context, st *game.State) error
	ReplaceState(ctx context.Context, st *game.State) error
	ApplyAction(ctx context.Context, aw ActionWrite) error

	SaveGameSave(ctx context.Context, save game.GameSave) error
	GetGameSave(ctx context.Context, gameID string) (game.GameSave, error)

	ListActiveGames(ctx context.Context) ([]game.Game, error)
	History(ctx context.Context, gameID, empireID string) ([]game.CivilStatusHistory, error)
}

// WriteSet is everything a processed turn changes. ExpectedTurn is the
// stored CurrentTurn the turn was computed from; a mismatch means another
// writer got there first and the commit fails with a conflict.
type WriteSet struct {
	Game         game.Game
	ExpectedTurn int

	Empires     []game.Empire
	Connections []galaxy.Connection
	Influence   []game.EmpireInfluence

	// BuildQueue replaces the game's whole queue.
	BuildQueue []game.BuildQueueItem

	// ConsumedAttackIDs are deleted; pending orders for later turns stay.
	ConsumedAttackIDs []string

	// History rows are appended.
	History []game.CivilStatusHistory
}

// ActionWrite is the effect of one player or bot action taken between
// turns. Nil fields are left untouched.
type ActionWrite struct {
	GameID       string
	ExpectedTurn int

	Empire     *game.Empire
	Connection *galaxy.Connection
	BuildItem  *game.BuildQueueItem
	Attack     *game.AttackOrder
}
