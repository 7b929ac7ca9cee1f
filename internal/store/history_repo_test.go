package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/poker"
)

func mustBoard(t *testing.T, encoded ...string) []poker.Card {
	t.Helper()
	cards, err := poker.ParseCards(encoded)
	require.NoError(t, err)
	return cards
}

func TestHandHistoryAppendAndList(t *testing.T) {
	s := newTestStore(t)

	first := &engine.HandResult{
		HandNumber: 1,
		Board:      mustBoard(t, "Ah", "Kd", "7c", "2s", "9h"),
		Pots: []engine.PotResult{
			{Amount: 300, Eligible: []int{0, 1, 2}, Winners: []int{1}},
			{Amount: 400, Eligible: []int{1, 2}, Winners: []int{2}},
		},
		Payouts: map[string]int{"bob": 300, "carol": 400},
	}
	second := &engine.HandResult{
		HandNumber: 2,
		WonByFold:  true,
		Pots:       []engine.PotResult{{Amount: 30, Eligible: []int{0, 1}, Winners: []int{0}}},
		Payouts:    map[string]int{"alice": 30},
	}

	require.NoError(t, s.HandHistory().Append("game-1", 111, first))
	require.NoError(t, s.HandHistory().Append("game-1", 222, second))
	require.NoError(t, s.HandHistory().Append("game-2", 333, second))

	records, err := s.HandHistory().List("game-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].HandNumber)
	assert.Equal(t, int64(111), records[0].Seed)
	assert.False(t, records[0].WonByFold)
	assert.Equal(t, first.Board, records[0].Board)
	assert.Equal(t, 700, records[0].TotalPot)
	assert.Equal(t, first.Payouts, records[0].Payouts)

	assert.Equal(t, 2, records[1].HandNumber)
	assert.True(t, records[1].WonByFold)
	assert.Nil(t, records[1].Board, "a hand won pre-flop has no board")
	assert.Equal(t, 30, records[1].TotalPot)
}

func TestHandHistoryEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.HandHistory().List("never-played")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHandHistorySurvivesGameDeletion(t *testing.T) {
	s := newTestStore(t)
	m := richMachine(t)
	require.NoError(t, s.Games().Save("game-1", m))

	result := &engine.HandResult{
		HandNumber: 1,
		WonByFold:  true,
		Pots:       []engine.PotResult{{Amount: 30, Eligible: []int{0, 1}, Winners: []int{0}}},
		Payouts:    map[string]int{"alice": 30},
	}
	require.NoError(t, s.HandHistory().Append("game-1", 111, result))

	require.NoError(t, s.Games().Delete("game-1"))

	records, err := s.HandHistory().List("game-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
