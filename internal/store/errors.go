package store

import (
	"errors"
	"fmt"
)

// ErrGameNotFound is returned by Load when no record exists for the game.
// It is distinct from CorruptedStateError so callers can offer a fresh game
// rather than a retry.
var ErrGameNotFound = errors.New("store: game not found")

// CorruptedStateError is returned when a record exists but cannot be
// decoded back into a valid game. Callers never receive a partially
// populated state.
type CorruptedStateError struct {
	GameID string
	Err    error
}

func (e *CorruptedStateError) Error() string {
	return fmt.Sprintf("store: corrupted state for game %s: %v", e.GameID, e.Err)
}

func (e *CorruptedStateError) Unwrap() error {
	return e.Err
}

// MigrationError is returned when a schema migration fails. The migration
// is rolled back and the store is unusable until the cause is fixed;
// nothing is ever partially applied.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("store: migration %d failed: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
