package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/parlormind/holdem/internal/engine"
)

// GameRepository persists engine snapshots, one row per game. Save is
// called after every state transition; each call writes only the current
// snapshot, so the cost is proportional to the state size, not the game
// history.
type GameRepository struct {
	store *Store
}

// Save upserts the current snapshot of the machine under gameID.
func (r *GameRepository) Save(gameID string, m *engine.Machine) error {
	state := m.State()
	payload, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("store: encoding game %s: %w", gameID, err)
	}

	_, err = r.store.db.Exec(`
		INSERT INTO games (game_id, schema_version, phase, hand_number, dealer_idx, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			phase          = excluded.phase,
			hand_number    = excluded.hand_number,
			dealer_idx     = excluded.dealer_idx,
			state          = excluded.state,
			updated_at     = excluded.updated_at`,
		gameID, GameSchemaVersion, state.Phase.String(), state.HandNumber, state.DealerIdx,
		string(payload), r.store.clock.Now().UTC())
	if err != nil {
		r.store.logger.Error("saving game failed", "game_id", gameID, "err", err)
		return fmt.Errorf("store: saving game %s: %w", gameID, err)
	}
	return nil
}

// Load reconstructs the machine for gameID. Continuing play from the
// returned machine is indistinguishable from an uninterrupted session: the
// remaining deck order and every player field round-trip exactly.
//
// Returns ErrGameNotFound if no record exists, or a CorruptedStateError if
// a record exists but cannot be decoded into a valid game.
func (r *GameRepository) Load(gameID string, eval engine.HandEvaluator) (*engine.Machine, error) {
	var (
		schemaVersion int
		phase         string
		payload       string
	)
	err := r.store.db.QueryRow(
		`SELECT schema_version, phase, state FROM games WHERE game_id = ?`, gameID).
		Scan(&schemaVersion, &phase, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		r.store.logger.Error("loading game failed", "game_id", gameID, "err", err)
		return nil, fmt.Errorf("store: loading game %s: %w", gameID, err)
	}

	if schemaVersion > GameSchemaVersion {
		return nil, &CorruptedStateError{GameID: gameID,
			Err: fmt.Errorf("written by newer schema %d (current %d)", schemaVersion, GameSchemaVersion)}
	}
	raw, err := migrateGamePayload(schemaVersion, []byte(payload))
	if err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: err}
	}

	state, err := decodeState(raw)
	if err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: err}
	}
	if state.Phase.String() != phase {
		return nil, &CorruptedStateError{GameID: gameID,
			Err: fmt.Errorf("phase column %q disagrees with payload %q", phase, state.Phase)}
	}

	m, err := engine.Restore(state, eval)
	if err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: err}
	}
	return m, nil
}

// Delete removes the game row. AI satellite state and hand history are
// separate aggregates and are left untouched.
func (r *GameRepository) Delete(gameID string) error {
	res, err := r.store.db.Exec(`DELETE FROM games WHERE game_id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("store: deleting game %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// List returns the IDs of all stored games, most recently updated first.
func (r *GameRepository) List() ([]string, error) {
	rows, err := r.store.db.Query(`SELECT game_id FROM games ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: listing games: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// migrateGamePayload upgrades an older payload to the current schema. Each
// step is ordered and total: an unrecognized version fails the load rather
// than guessing.
func migrateGamePayload(version int, payload []byte) ([]byte, error) {
	switch version {
	case GameSchemaVersion:
		return payload, nil
	default:
		return nil, fmt.Errorf("no migration path from game schema %d", version)
	}
}
