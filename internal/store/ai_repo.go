package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parlormind/holdem/internal/ai"
)

// AIStateRepository persists the per-player AI aggregate, keyed by
// (game_id, player_name) and versioned independently of the game schema.
type AIStateRepository struct {
	store *Store
}

// Save upserts the aggregate and appends any decisions recorded since the
// last save. Decision rows are append-only; the memory/traits/mood columns
// always hold the latest snapshot.
func (r *AIStateRepository) Save(gameID string, state *ai.State) error {
	memory, err := json.Marshal(state.Memory)
	if err != nil {
		return fmt.Errorf("store: encoding memory for %s/%s: %w", gameID, state.PlayerName, err)
	}
	traits, err := json.Marshal(state.Traits)
	if err != nil {
		return fmt.Errorf("store: encoding traits for %s/%s: %w", gameID, state.PlayerName, err)
	}
	mood, err := json.Marshal(state.Mood)
	if err != nil {
		return fmt.Errorf("store: encoding mood for %s/%s: %w", gameID, state.PlayerName, err)
	}

	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("store: saving ai state for %s/%s: %w", gameID, state.PlayerName, err)
	}
	defer tx.Rollback()

	now := r.store.clock.Now().UTC()
	if _, err := tx.Exec(`
		INSERT INTO ai_states (game_id, player_name, version, memory, traits, mood, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_name) DO UPDATE SET
			version    = excluded.version,
			memory     = excluded.memory,
			traits     = excluded.traits,
			mood       = excluded.mood,
			updated_at = excluded.updated_at`,
		gameID, state.PlayerName, AISchemaVersion, string(memory), string(traits), string(mood), now); err != nil {
		return fmt.Errorf("store: saving ai state for %s/%s: %w", gameID, state.PlayerName, err)
	}

	// Replace the decision log for this player with the aggregate's view.
	// The aggregate carries the full log, so rewriting keeps the two in
	// step without tracking a high-water mark.
	if _, err := tx.Exec(`DELETE FROM ai_decisions WHERE game_id = ? AND player_name = ?`,
		gameID, state.PlayerName); err != nil {
		return fmt.Errorf("store: clearing decisions for %s/%s: %w", gameID, state.PlayerName, err)
	}
	for _, d := range state.Decisions {
		if _, err := tx.Exec(`
			INSERT INTO ai_decisions (game_id, player_name, hand_number, phase, action, amount, reasoning, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			gameID, state.PlayerName, d.HandNumber, d.Phase, d.Action, d.Amount, d.Reasoning, d.DecidedAt.UTC()); err != nil {
			return fmt.Errorf("store: saving decision for %s/%s: %w", gameID, state.PlayerName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.store.logger.Error("saving ai state failed", "game_id", gameID, "player", state.PlayerName, "err", err)
		return fmt.Errorf("store: saving ai state for %s/%s: %w", gameID, state.PlayerName, err)
	}
	return nil
}

// Load returns the aggregate for one player, or ErrGameNotFound if no row
// exists for the pair.
func (r *AIStateRepository) Load(gameID, playerName string) (*ai.State, error) {
	var (
		version              int
		memory, traits, mood string
	)
	err := r.store.db.QueryRow(`
		SELECT version, memory, traits, mood FROM ai_states
		WHERE game_id = ? AND player_name = ?`, gameID, playerName).
		Scan(&version, &memory, &traits, &mood)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading ai state for %s/%s: %w", gameID, playerName, err)
	}
	if version > AISchemaVersion {
		return nil, &CorruptedStateError{GameID: gameID,
			Err: fmt.Errorf("ai state for %q written by newer schema %d", playerName, version)}
	}

	state := ai.NewState(playerName, nil)
	if err := json.Unmarshal([]byte(memory), &state.Memory); err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("ai memory for %q: %w", playerName, err)}
	}
	if err := json.Unmarshal([]byte(traits), &state.Traits); err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("ai traits for %q: %w", playerName, err)}
	}
	if err := json.Unmarshal([]byte(mood), &state.Mood); err != nil {
		return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("ai mood for %q: %w", playerName, err)}
	}

	rows, err := r.store.db.Query(`
		SELECT hand_number, phase, action, amount, reasoning, decided_at FROM ai_decisions
		WHERE game_id = ? AND player_name = ? ORDER BY id`, gameID, playerName)
	if err != nil {
		return nil, fmt.Errorf("store: loading decisions for %s/%s: %w", gameID, playerName, err)
	}
	defer rows.Close()
	for rows.Next() {
		var d ai.DecisionRecord
		if err := rows.Scan(&d.HandNumber, &d.Phase, &d.Action, &d.Amount, &d.Reasoning, &d.DecidedAt); err != nil {
			return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("ai decision for %q: %w", playerName, err)}
		}
		state.Decisions = append(state.Decisions, d)
	}
	return state, rows.Err()
}

// LoadAll returns every player aggregate stored for the game.
func (r *AIStateRepository) LoadAll(gameID string) (map[string]*ai.State, error) {
	rows, err := r.store.db.Query(`SELECT player_name FROM ai_states WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("store: listing ai states for %s: %w", gameID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: listing ai states for %s: %w", gameID, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]*ai.State, len(names))
	for _, name := range names {
		state, err := r.Load(gameID, name)
		if err != nil {
			return nil, err
		}
		out[name] = state
	}
	return out, nil
}
