package poker

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/parlormind/holdem/internal/randutil"
)

// Deck is an ordered sequence of undealt cards, consumed from the front.
// Deal returns the dealt cards and a new remaining deck; the receiver is
// never modified, so snapshots holding a Deck stay valid.
type Deck []Card

// InsufficientCardsError is returned when a deal requests more cards than
// remain. Unreachable in a correctly driven single-deck game, but dealing
// must never silently return short.
type InsufficientCardsError struct {
	Requested int
	Remaining int
}

func (e *InsufficientCardsError) Error() string {
	return fmt.Sprintf("poker: cannot deal %d cards, %d remaining", e.Requested, e.Remaining)
}

// NewDeck returns all 52 cards in a deterministic pseudo-random order derived
// solely from seed. The shuffle uses an isolated RNG, so concurrent games
// never interfere with each other and the same seed always yields the same
// order.
func NewDeck(seed int64) Deck {
	d := orderedDeck()
	rng := randutil.New(seed)
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
	return d
}

// NewDeckRandom returns a deck shuffled from a non-reproducible seed drawn
// from the operating system entropy source.
func NewDeckRandom() Deck {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand.Read only fails when the OS entropy source is broken;
		// there is no sensible recovery for a card game.
		panic(fmt.Sprintf("poker: reading entropy for shuffle: %v", err))
	}
	return NewDeck(int64(binary.LittleEndian.Uint64(buf[:])))
}

func orderedDeck() Deck {
	d := make(Deck, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d = append(d, NewCard(rank, suit))
		}
	}
	return d
}

// Deal removes the first n cards, returning them along with the remaining
// deck. Returns InsufficientCardsError if n exceeds the remaining length.
func (d Deck) Deal(n int) ([]Card, Deck, error) {
	if n < 0 || n > len(d) {
		return nil, d, &InsufficientCardsError{Requested: n, Remaining: len(d)}
	}
	dealt := make([]Card, n)
	copy(dealt, d[:n])
	remaining := make(Deck, len(d)-n)
	copy(remaining, d[n:])
	return dealt, remaining, nil
}

// Remaining returns the number of undealt cards.
func (d Deck) Remaining() int {
	return len(d)
}

// Clone returns an independent copy of the deck.
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	out := make(Deck, len(d))
	copy(out, d)
	return out
}
