package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
)

// SaveGameSave upserts the latest snapshot of a game. Only one save is kept
// per game.
func (db *DB) SaveGameSave(ctx context.Context, save game.GameSave) error {
	q := `INSERT INTO game_saves (game_id, version, turn, payload, saved_at)
		VALUES (:game_id, :version, :turn, :payload, :saved_at)
		ON CONFLICT (game_id) DO UPDATE SET
			version = excluded.version,
			turn = excluded.turn,
			payload = excluded.payload,
			saved_at = excluded.saved_at`
	if _, err := db.conn.NamedExecContext(ctx, q, save); err != nil {
		return fmt.Errorf("save snapshot %s: %w", save.GameID, err)
	}
	return nil
}

// GetGameSave returns the stored snapshot of a game.
func (db *DB) GetGameSave(ctx context.Context, gameID string) (game.GameSave, error) {
	var save game.GameSave
	q := db.conn.Rebind("SELECT game_id, version, turn, payload, saved_at FROM game_saves WHERE game_id = ?")
	err := db.conn.GetContext(ctx, &save, q, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return save, gameerr.NotFoundf("no snapshot for game %s", gameID)
	}
	if err != nil {
		return save, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	return save, nil
}
