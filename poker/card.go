// Package poker provides the card and deck value types shared by the game
// engine and the persistence layer. Cards are immutable values with a
// canonical two-character encoding ("Kh", "Td") that is stable across
// versions and used both in memory and on disk.
package poker

import "fmt"

// Suit represents a card suit.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the display glyph for a suit.
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the canonical one-letter encoding for a suit.
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds).
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are high (14).
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the canonical one-letter encoding for a rank.
func (r Rank) String() string {
	switch r {
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		if r >= Two && r <= Nine {
			return string(rune('0' + int(r)))
		}
		return "?"
	}
}

// Card represents a playing card. The zero value is not a valid card; use
// NewCard or ParseCard.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display representation of a card (e.g. "A♠").
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Encode returns the canonical two-character encoding of a card (e.g. "As").
// ParseCard inverts it exactly for all 52 cards.
func (c Card) Encode() string {
	return c.Rank.String() + c.Suit.Letter()
}

// Valid reports whether the card is one of the 52 real cards.
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

// IsRed returns true if the card is red.
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Value returns the numeric rank of the card for comparison. Aces are high.
func (c Card) Value() int {
	return int(c.Rank)
}

// ParseCard decodes the canonical two-character form produced by Encode.
// It returns an error for anything that is not exactly one of the 52 cards.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("poker: invalid card encoding %q", s)
	}

	var rank Rank
	switch s[0] {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		rank = Rank(s[0] - '0')
	case 'T':
		rank = Ten
	case 'J':
		rank = Jack
	case 'Q':
		rank = Queen
	case 'K':
		rank = King
	case 'A':
		rank = Ace
	default:
		return Card{}, fmt.Errorf("poker: invalid card rank %q", s)
	}

	var suit Suit
	switch s[1] {
	case 's':
		suit = Spades
	case 'h':
		suit = Hearts
	case 'd':
		suit = Diamonds
	case 'c':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("poker: invalid card suit %q", s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// EncodeCards encodes a slice of cards to their canonical forms.
func EncodeCards(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Encode()
	}
	return out
}

// ParseCards decodes a slice of canonical card encodings.
func ParseCards(encoded []string) ([]Card, error) {
	out := make([]Card, len(encoded))
	for i, s := range encoded {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
