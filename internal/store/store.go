// Package store persists games and their satellite AI state to SQLite.
// Each aggregate has its own repository: GameRepository for the engine
// snapshot, AIStateRepository for per-player AI memory, and
// HandHistoryRepository for completed hands. The aggregates are
// independently versioned so a game-schema change never rewrites AI
// history, and vice versa.
package store

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	_ "github.com/mattn/go-sqlite3"
)

// GameSchemaVersion is stamped on every saved game row. Load refuses rows
// written by a newer schema and migrates older payloads forward.
const GameSchemaVersion = 1

// AISchemaVersion versions the AI satellite rows independently.
const AISchemaVersion = 1

// Store owns the database handle and hands out repositories.
type Store struct {
	db     *sql.DB
	logger *log.Logger
	clock  quartz.Clock
}

// Options configures a Store. Zero values get sensible defaults.
type Options struct {
	Logger *log.Logger
	Clock  quartz.Clock
}

// Open opens (creating if necessary) the SQLite database at path and brings
// the schema up to date. A failed migration aborts the open; nothing is
// partially applied.
func Open(path string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	// SQLite allows one writer; a single pooled connection avoids lock
	// contention between repositories.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: opts.Logger, clock: opts.Clock}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Games returns the repository for engine snapshots.
func (s *Store) Games() *GameRepository {
	return &GameRepository{store: s}
}

// AIStates returns the repository for per-player AI satellite state.
func (s *Store) AIStates() *AIStateRepository {
	return &AIStateRepository{store: s}
}

// HandHistory returns the repository for completed hand records.
func (s *Store) HandHistory() *HandHistoryRepository {
	return &HandHistoryRepository{store: s}
}

// migration is one ordered schema step. Statements must be idempotent-safe
// under the version guard: a migration either fully applies and records its
// version, or rolls back.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS games (
				game_id        TEXT PRIMARY KEY,
				schema_version INTEGER NOT NULL,
				phase          TEXT NOT NULL,
				hand_number    INTEGER NOT NULL,
				dealer_idx     INTEGER NOT NULL,
				state          TEXT NOT NULL,
				updated_at     TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS ai_states (
				game_id     TEXT NOT NULL,
				player_name TEXT NOT NULL,
				version     INTEGER NOT NULL,
				memory      TEXT NOT NULL,
				traits      TEXT NOT NULL,
				mood        TEXT NOT NULL,
				updated_at  TIMESTAMP NOT NULL,
				PRIMARY KEY (game_id, player_name)
			)`,
			`CREATE TABLE IF NOT EXISTS ai_decisions (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				game_id     TEXT NOT NULL,
				player_name TEXT NOT NULL,
				hand_number INTEGER NOT NULL,
				phase       TEXT NOT NULL,
				action      TEXT NOT NULL,
				amount      INTEGER NOT NULL,
				reasoning   TEXT NOT NULL DEFAULT '',
				decided_at  TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_ai_decisions_game_player
				ON ai_decisions (game_id, player_name)`,
			`CREATE TABLE IF NOT EXISTS hand_history (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				game_id     TEXT NOT NULL,
				hand_number INTEGER NOT NULL,
				seed        INTEGER NOT NULL,
				won_by_fold INTEGER NOT NULL,
				board       TEXT NOT NULL,
				total_pot   INTEGER NOT NULL,
				payouts     TEXT NOT NULL,
				recorded_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_hand_history_game
				ON hand_history (game_id, hand_number)`,
		},
	},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("store: creating migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("store: reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return err
		}
		s.logger.Info("applied schema migration", "version", m.version)
	}
	return nil
}

func (s *Store) applyMigration(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &MigrationError{Version: m.version, Err: err}
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return &MigrationError{Version: m.version, Err: err}
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		m.version, s.clock.Now().UTC()); err != nil {
		return &MigrationError{Version: m.version, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &MigrationError{Version: m.version, Err: err}
	}
	return nil
}
