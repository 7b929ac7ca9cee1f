package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckContains52UniqueCards(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, -7, 1 << 40} {
		d := NewDeck(seed)
		require.Len(t, d, 52, "seed %d", seed)

		seen := make(map[Card]bool, 52)
		for _, c := range d {
			assert.True(t, c.Valid(), "seed %d produced invalid card %v", seed, c)
			assert.False(t, seen[c], "seed %d produced duplicate card %s", seed, c)
			seen[c] = true
		}
	}
}

func TestShuffleDeterminism(t *testing.T) {
	assert.Equal(t, NewDeck(42), NewDeck(42), "same seed must yield identical order")
	assert.NotEqual(t, NewDeck(1), NewDeck(2), "different seeds must yield different orders")
}

func TestDealRemovesFromFront(t *testing.T) {
	d := NewDeck(7)
	top := d[0:3]

	dealt, remaining, err := d.Deal(3)
	require.NoError(t, err)
	assert.Equal(t, []Card(top), dealt)
	assert.Equal(t, 49, remaining.Remaining())
	assert.Equal(t, 52, d.Remaining(), "dealing must not consume the original deck")
	assert.Equal(t, d[3], remaining[0])
}

func TestDealTooManyCards(t *testing.T) {
	d := NewDeck(7)
	_, remaining, err := d.Deal(2)
	require.NoError(t, err)

	_, _, err = remaining.Deal(51)
	require.Error(t, err)

	var insufficient *InsufficientCardsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 51, insufficient.Requested)
	assert.Equal(t, 50, insufficient.Remaining)
}

func TestDealNegative(t *testing.T) {
	d := NewDeck(7)
	_, _, err := d.Deal(-1)
	assert.Error(t, err)
}

func TestNewDeckRandom(t *testing.T) {
	d := NewDeckRandom()
	require.Len(t, d, 52)
}

func TestDeckClone(t *testing.T) {
	d := NewDeck(3)
	clone := d.Clone()
	orig := d[0]
	clone[0] = Card{}
	assert.Equal(t, orig, d[0], "mutating a clone must not touch the original")
}
