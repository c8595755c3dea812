// Package persistence stores games in SQL through sqlx. SQLite (modernc) is
// the default; Postgres is reached through the pgx stdlib driver with the
// same queries, rebound to its placeholder style.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is the SQL implementation of engine.Repository.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the database and applies the schema. For SQLite, dsn is
// a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		conn *sqlx.DB
		err  error
	)
	switch dialect {
	case DialectSQLite:
		if dsn != ":memory:" {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
		conn, err = sqlx.Open("sqlite", dsn)
		if err == nil {
			// One writer at a time; also keeps an in-memory database on a single connection.
			conn.SetMaxOpenConns(1)
		}
	case DialectPostgres:
		conn, err = sqlx.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("open db: unknown dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{conn: conn, dialect: dialect, logger: logger.With("component", "persistence")}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db.logger.Info("database ready", "dialect", dialect)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	seed BIGINT NOT NULL,
	current_turn INTEGER NOT NULL,
	turn_limit INTEGER NOT NULL,
	status TEXT NOT NULL,
	protection_turns INTEGER NOT NULL,
	winner_empire_id TEXT,
	victory_type TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS empires (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	population BIGINT NOT NULL,
	population_cap BIGINT NOT NULL,
	civil_status TEXT NOT NULL,
	surplus_streak INTEGER NOT NULL,
	deficit_streak INTEGER NOT NULL,
	population_status TEXT NOT NULL,
	unrest_turns INTEGER NOT NULL,
	revolt_penalty DOUBLE PRECISION NOT NULL,
	last_casualty_ratio DOUBLE PRECISION NOT NULL,
	research_level INTEGER NOT NULL,
	networth BIGINT NOT NULL,
	is_eliminated BOOLEAN NOT NULL,
	defeat_type TEXT NOT NULL,
	last_net_credits BIGINT NOT NULL,
	resources_json TEXT NOT NULL,
	sectors_json TEXT NOT NULL,
	military_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	game_id TEXT NOT NULL,
	id BIGINT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	x DOUBLE PRECISION NOT NULL,
	y DOUBLE PRECISION NOT NULL,
	wealth_modifier DOUBLE PRECISION NOT NULL,
	danger_level DOUBLE PRECISION NOT NULL,
	max_empires INTEGER NOT NULL,
	PRIMARY KEY (game_id, id)
);

CREATE TABLE IF NOT EXISTS connections (
	game_id TEXT NOT NULL,
	id BIGINT NOT NULL,
	from_region_id BIGINT NOT NULL,
	to_region_id BIGINT NOT NULL,
	type TEXT NOT NULL,
	is_bidirectional BOOLEAN NOT NULL,
	force_multiplier DOUBLE PRECISION NOT NULL,
	wormhole_status TEXT NOT NULL,
	discovered_by_empire_id TEXT,
	collapse_chance DOUBLE PRECISION NOT NULL,
	discovered_at_turn INTEGER,
	construction_complete_turn INTEGER,
	constructed_by_empire_id TEXT,
	PRIMARY KEY (game_id, id)
);

CREATE TABLE IF NOT EXISTS empire_influence (
	empire_id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	home_region_id BIGINT NOT NULL,
	primary_region_id BIGINT NOT NULL,
	direct_neighbors_json TEXT NOT NULL,
	extended_neighbors_json TEXT NOT NULL,
	computed_at_turn INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS build_queue (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	empire_id TEXT NOT NULL,
	unit TEXT NOT NULL,
	quantity BIGINT NOT NULL,
	turns_remaining INTEGER NOT NULL,
	queued_at_turn INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attack_orders (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL,
	attacker_id TEXT NOT NULL,
	defender_id TEXT NOT NULL,
	turn INTEGER NOT NULL,
	forces_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS treaties (
	game_id TEXT NOT NULL,
	empire_a TEXT NOT NULL,
	empire_b TEXT NOT NULL,
	type TEXT NOT NULL,
	active BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, empire_a, empire_b, type)
);

CREATE TABLE IF NOT EXISTS civil_status_history (
	game_id TEXT NOT NULL,
	empire_id TEXT NOT NULL,
	turn INTEGER NOT NULL,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS game_saves (
	game_id TEXT PRIMARY KEY,
	version TEXT NOT NULL,
	turn INTEGER NOT NULL,
	payload BLOB NOT NULL,
	saved_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_empires_game ON empires(game_id);
CREATE INDEX IF NOT EXISTS idx_build_queue_game ON build_queue(game_id);
CREATE INDEX IF NOT EXISTS idx_attack_orders_game ON attack_orders(game_id, turn);
CREATE INDEX IF NOT EXISTS idx_history_empire ON civil_status_history(game_id, empire_id, turn);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
`

func (db *DB) migrate(ctx context.Context) error {
	ddl := schema
	if db.dialect == DialectPostgres {
		ddl = strings.ReplaceAll(ddl, "BLOB", "BYTEA")
	}
	// pgx prepares one statement per call.
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
