package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/star-dominion/internal/engine"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
)

var _ engine.Repository = (*DB)(nil)

const (
	gameColumns = `id, name, seed, current_turn, turn_limit, status, protection_turns,
		winner_empire_id, victory_type, created_at`
	empireColumns = `id, game_id, name, type, population, population_cap, civil_status,
		surplus_streak, deficit_streak, population_status, unrest_turns, revolt_penalty,
		last_casualty_ratio, research_level, networth, is_eliminated, defeat_type,
		last_net_credits, resources_json, sectors_json, military_json`
	regionColumns     = `id, game_id, name, type, x, y, wealth_modifier, danger_level, max_empires`
	connectionColumns = `id, game_id, from_region_id, to_region_id, type, is_bidirectional,
		force_multiplier, wormhole_status, discovered_by_empire_id, collapse_chance,
		discovered_at_turn, construction_complete_turn, constructed_by_empire_id`
	influenceColumns = `empire_id, game_id, home_region_id, primary_region_id,
		direct_neighbors_json, extended_neighbors_json, computed_at_turn`
	buildColumns   = `id, game_id, empire_id, unit, quantity, turns_remaining, queued_at_turn`
	attackColumns  = `id, game_id, attacker_id, defender_id, turn, forces_json`
	treatyColumns  = `game_id, empire_a, empire_b, type, active`
	historyColumns = `game_id, empire_id, turn, from_status, to_status, reason`
)

// insert builds "INSERT INTO table (cols) VALUES (:col, ...)" for sqlx
// named execution.
func insert(table, columns string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, columns, namedValues(columns))
}

func namedValues(columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = ":" + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// LoadState reads every row of a game.
func (db *DB) LoadState(ctx context.Context, gameID string) (*game.State, error) {
	st := &game.State{}
	err := db.conn.GetContext(ctx, &st.Game, db.conn.Rebind("SELECT "+gameColumns+" FROM games WHERE id = ?"), gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gameerr.NotFoundf("game %s not found", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	var empires []empireRow
	if err := db.selectGame(ctx, &empires, empireColumns, "empires", gameID, "id"); err != nil {
		return nil, err
	}
	for _, r := range empires {
		e, err := r.empire()
		if err != nil {
			return nil, err
		}
		st.Empires = append(st.Empires, e)
	}

	if err := db.selectGame(ctx, &st.Regions, regionColumns, "regions", gameID, "id"); err != nil {
		return nil, err
	}
	if err := db.selectGame(ctx, &st.Connections, connectionColumns, "connections", gameID, "id"); err != nil {
		return nil, err
	}

	var influence []influenceRow
	if err := db.selectGame(ctx, &influence, influenceColumns, "empire_influence", gameID, "empire_id"); err != nil {
		return nil, err
	}
	for _, r := range influence {
		inf, err := r.influence()
		if err != nil {
			return nil, err
		}
		st.Influence = append(st.Influence, inf)
	}

	if err := db.selectGame(ctx, &st.BuildQueue, buildColumns, "build_queue", gameID, "queued_at_turn, id"); err != nil {
		return nil, err
	}

	var attacks []attackRow
	if err := db.selectGame(ctx, &attacks, attackColumns, "attack_orders", gameID, "turn, id"); err != nil {
		return nil, err
	}
	for _, r := range attacks {
		a, err := r.order()
		if err != nil {
			return nil, err
		}
		st.Attacks = append(st.Attacks, a)
	}

	if err := db.selectGame(ctx, &st.Treaties, treatyColumns, "treaties", gameID, "empire_a, empire_b"); err != nil {
		return nil, err
	}
	st.Normalize()
	return st, nil
}

func (db *DB) selectGame(ctx context.Context, dest any, columns, table, gameID, order string) error {
	q := db.conn.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE game_id = ? ORDER BY %s", columns, table, order))
	if err := db.conn.SelectContext(ctx, dest, q, gameID); err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	return nil
}

// CreateGame inserts a new game with all of its rows.
func (db *DB) CreateGame(ctx context.Context, st *game.State) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind("SELECT COUNT(*) FROM games WHERE id = ?"), st.Game.ID); err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if n > 0 {
			return gameerr.Conflictf("game %s already exists", st.Game.ID)
		}
		if _, err := tx.NamedExecContext(ctx, insert("games", gameColumns), st.Game); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		return insertState(ctx, tx, st)
	})
}

// ReplaceState overwrites every row of an existing game.
func (db *DB) ReplaceState(ctx context.Context, st *game.State) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateGame(ctx, tx, st.Game, nil); err != nil {
			return err
		}
		if err := deleteState(ctx, tx, st.Game.ID); err != nil {
			return err
		}
		return insertState(ctx, tx, st)
	})
}

// CommitTurn writes a processed turn. The game row is updated only while it
// still holds ExpectedTurn, so a stale writer fails with a conflict.
func (db *DB) CommitTurn(ctx context.Context, ws engine.WriteSet) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateGame(ctx, tx, ws.Game, &ws.ExpectedTurn); err != nil {
			return err
		}
		for _, table := range []string{"empires", "connections", "empire_influence", "build_queue"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE game_id = ?"), ws.Game.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := insertEmpires(ctx, tx, ws.Empires); err != nil {
			return err
		}
		if err := insertRows(ctx, tx, "connections", connectionColumns, ws.Connections); err != nil {
			return err
		}
		if err := insertInfluence(ctx, tx, ws.Influence); err != nil {
			return err
		}
		if err := insertRows(ctx, tx, "build_queue", buildColumns, ws.BuildQueue); err != nil {
			return err
		}
		for _, id := range ws.ConsumedAttackIDs {
			if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM attack_orders WHERE id = ?"), id); err != nil {
				return fmt.Errorf("delete attack %s: %w", id, err)
			}
		}
		return insertRows(ctx, tx, "civil_status_history", historyColumns, ws.History)
	})
}

// ApplyAction writes one between-turn action.
func (db *DB) ApplyAction(ctx context.Context, aw engine.ActionWrite) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		var turn int
		err := tx.GetContext(ctx, &turn, tx.Rebind("SELECT current_turn FROM games WHERE id = ?"), aw.GameID)
		if errors.Is(err, sql.ErrNoRows) {
			return gameerr.NotFoundf("game %s not found", aw.GameID)
		}
		if err != nil {
			return fmt.Errorf("read turn: %w", err)
		}
		if turn != aw.ExpectedTurn {
			return gameerr.Conflictf("game %s is at turn %d, expected %d", aw.GameID, turn, aw.ExpectedTurn)
		}

		if aw.Empire != nil {
			if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM empires WHERE id = ?"), aw.Empire.ID); err != nil {
				return fmt.Errorf("replace empire: %w", err)
			}
			if err := insertEmpires(ctx, tx, []game.Empire{*aw.Empire}); err != nil {
				return err
			}
		}
		if aw.Connection != nil {
			q := tx.Rebind("DELETE FROM connections WHERE game_id = ? AND id = ?")
			if _, err := tx.ExecContext(ctx, q, aw.GameID, aw.Connection.ID); err != nil {
				return fmt.Errorf("replace connection: %w", err)
			}
			if err := insertRows(ctx, tx, "connections", connectionColumns, []galaxy.Connection{*aw.Connection}); err != nil {
				return err
			}
		}
		if aw.BuildItem != nil {
			if err := insertRows(ctx, tx, "build_queue", buildColumns, []game.BuildQueueItem{*aw.BuildItem}); err != nil {
				return err
			}
		}
		if aw.Attack != nil {
			row, err := toAttackRow(*aw.Attack)
			if err != nil {
				return err
			}
			if err := insertRows(ctx, tx, "attack_orders", attackColumns, []attackRow{row}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListActiveGames returns every active game ordered by ID.
func (db *DB) ListActiveGames(ctx context.Context) ([]game.Game, error) {
	var games []game.Game
	q := db.conn.Rebind("SELECT " + gameColumns + " FROM games WHERE status = ? ORDER BY id")
	if err := db.conn.SelectContext(ctx, &games, q, game.StatusActive); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// History returns the civil status changes of one empire, oldest first.
func (db *DB) History(ctx context.Context, gameID, empireID string) ([]game.CivilStatusHistory, error) {
	var out []game.CivilStatusHistory
	q := db.conn.Rebind("SELECT " + historyColumns + " FROM civil_status_history WHERE game_id = ? AND empire_id = ? ORDER BY turn")
	if err := db.conn.SelectContext(ctx, &out, q, gameID, empireID); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return out, nil
}

func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// updateGame rewrites the game row. With expectedTurn set, the update only
// matches while the stored turn equals it.
func updateGame(ctx context.Context, tx *sqlx.Tx, g game.Game, expectedTurn *int) error {
	q := `UPDATE games SET name = ?, seed = ?, current_turn = ?, turn_limit = ?, status = ?,
		protection_turns = ?, winner_empire_id = ?, victory_type = ?, created_at = ?
		WHERE id = ?`
	args := []any{g.Name, g.Seed, g.CurrentTurn, g.TurnLimit, g.Status,
		g.ProtectionTurns, g.WinnerEmpireID, g.VictoryType, g.CreatedAt, g.ID}
	if expectedTurn != nil {
		q += " AND current_turn = ?"
		args = append(args, *expectedTurn)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if n == 1 {
		return nil
	}
	if expectedTurn != nil {
		return gameerr.Conflictf("game %s is no longer at turn %d", g.ID, *expectedTurn)
	}
	return gameerr.NotFoundf("game %s not found", g.ID)
}

func deleteState(ctx context.Context, tx *sqlx.Tx, gameID string) error {
	for _, table := range []string{"empires", "regions", "connections", "empire_influence", "build_queue", "attack_orders", "treaties"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE game_id = ?"), gameID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func insertState(ctx context.Context, tx *sqlx.Tx, st *game.State) error {
	if err := insertEmpires(ctx, tx, st.Empires); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "regions", regionColumns, st.Regions); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "connections", connectionColumns, st.Connections); err != nil {
		return err
	}
	if err := insertInfluence(ctx, tx, st.Influence); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "build_queue", buildColumns, st.BuildQueue); err != nil {
		return err
	}
	attacks := make([]attackRow, 0, len(st.Attacks))
	for _, a := range st.Attacks {
		row, err := toAttackRow(a)
		if err != nil {
			return err
		}
		attacks = append(attacks, row)
	}
	if err := insertRows(ctx, tx, "attack_orders", attackColumns, attacks); err != nil {
		return err
	}
	return insertRows(ctx, tx, "treaties", treatyColumns, st.Treaties)
}

func insertEmpires(ctx context.Context, tx *sqlx.Tx, empires []game.Empire) error {
	rows := make([]empireRow, 0, len(empires))
	for _, e := range empires {
		row, err := toEmpireRow(e)
		if err != nil {
			return fmt.Errorf("empire %s: %w", e.ID, err)
		}
		rows = append(rows, row)
	}
	return insertRows(ctx, tx, "empires", empireColumns, rows)
}

func insertInfluence(ctx context.Context, tx *sqlx.Tx, influence []game.EmpireInfluence) error {
	rows := make([]influenceRow, 0, len(influence))
	for _, inf := range influence {
		row, err := toInfluenceRow(inf)
		if err != nil {
			return fmt.Errorf("influence %s: %w", inf.EmpireID, err)
		}
		rows = append(rows, row)
	}
	return insertRows(ctx, tx, "empire_influence", influenceColumns, rows)
}

// insertRows inserts each element of rows through a prepared named statement.
func insertRows[T any](ctx context.Context, tx *sqlx.Tx, table, columns string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, insert(table, columns))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}
