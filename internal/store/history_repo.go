package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/poker"
)

// HandHistoryRepository keeps an append-only record of completed hands for
// analysis and replay. It is a separate aggregate from the game row: the
// game snapshot is overwritten every transition, hand records never are.
type HandHistoryRepository struct {
	store *Store
}

// HandRecord is one completed hand as stored.
type HandRecord struct {
	GameID     string
	HandNumber int
	Seed       int64
	WonByFold  bool
	Board      []poker.Card
	TotalPot   int
	Payouts    map[string]int
	RecordedAt time.Time
}

// Append records a completed hand.
func (r *HandHistoryRepository) Append(gameID string, seed int64, result *engine.HandResult) error {
	board, err := json.Marshal(wrapCards(result.Board))
	if err != nil {
		return fmt.Errorf("store: encoding board for %s: %w", gameID, err)
	}
	payouts, err := json.Marshal(result.Payouts)
	if err != nil {
		return fmt.Errorf("store: encoding payouts for %s: %w", gameID, err)
	}

	totalPot := 0
	for _, pot := range result.Pots {
		totalPot += pot.Amount
	}

	_, err = r.store.db.Exec(`
		INSERT INTO hand_history (game_id, hand_number, seed, won_by_fold, board, total_pot, payouts, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		gameID, result.HandNumber, seed, result.WonByFold, string(board), totalPot,
		string(payouts), r.store.clock.Now().UTC())
	if err != nil {
		r.store.logger.Error("recording hand failed", "game_id", gameID, "hand", result.HandNumber, "err", err)
		return fmt.Errorf("store: recording hand %d for %s: %w", result.HandNumber, gameID, err)
	}
	return nil
}

// List returns the recorded hands for a game in play order.
func (r *HandHistoryRepository) List(gameID string) ([]HandRecord, error) {
	rows, err := r.store.db.Query(`
		SELECT hand_number, seed, won_by_fold, board, total_pot, payouts, recorded_at
		FROM hand_history WHERE game_id = ? ORDER BY hand_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("store: listing hands for %s: %w", gameID, err)
	}
	defer rows.Close()

	var out []HandRecord
	for rows.Next() {
		rec := HandRecord{GameID: gameID}
		var boardJSON, payoutsJSON string
		if err := rows.Scan(&rec.HandNumber, &rec.Seed, &rec.WonByFold, &boardJSON,
			&rec.TotalPot, &payoutsJSON, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("store: listing hands for %s: %w", gameID, err)
		}

		var board []cardField
		if err := json.Unmarshal([]byte(boardJSON), &board); err != nil {
			return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("hand %d board: %w", rec.HandNumber, err)}
		}
		rec.Board = unwrapCards(board)
		if err := json.Unmarshal([]byte(payoutsJSON), &rec.Payouts); err != nil {
			return nil, &CorruptedStateError{GameID: gameID, Err: fmt.Errorf("hand %d payouts: %w", rec.HandNumber, err)}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
