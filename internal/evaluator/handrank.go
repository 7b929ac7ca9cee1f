// Package evaluator ranks poker hands. Evaluate accepts 5 to 7 cards and
// returns the strength of the best 5-card hand as a HandRank, a totally
// ordered value: a stronger hand always compares greater.
package evaluator

import "fmt"

// Category is the standard poker hand category, weakest first.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the readable name of the category.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRank encodes a hand's strength: category in the high bits, then up to
// five tie-break ranks in descending significance, 4 bits each. Two hands of
// the same category compare by kickers automatically.
type HandRank int64

const (
	categoryShift = 20
	kickerBits    = 4
	maxKickers    = 5
)

func makeRank(cat Category, kickers ...int) HandRank {
	r := int64(cat) << categoryShift
	shift := categoryShift - kickerBits
	for _, k := range kickers {
		r |= int64(k) << shift
		shift -= kickerBits
	}
	return HandRank(r)
}

// Category returns the hand category encoded in the rank.
func (h HandRank) Category() Category {
	return Category(int64(h) >> categoryShift)
}

// Kickers returns the tie-break ranks in descending significance. Trailing
// zero slots are trimmed.
func (h HandRank) Kickers() []int {
	out := make([]int, 0, maxKickers)
	shift := categoryShift - kickerBits
	for i := 0; i < maxKickers; i++ {
		k := int(int64(h)>>shift) & 0xF
		if k == 0 {
			break
		}
		out = append(out, k)
		shift -= kickerBits
	}
	return out
}

// Compare returns -1 if h is weaker than other, 0 if equal, 1 if stronger.
func (h HandRank) Compare(other HandRank) int {
	switch {
	case h < other:
		return -1
	case h > other:
		return 1
	default:
		return 0
	}
}

// String returns a short human-readable description, e.g. "Straight, Nine
// high" or "Two Pair, Kings and Fours".
func (h HandRank) String() string {
	ks := h.Kickers()
	name := func(i int) string { return rankName(ks[i]) }

	switch h.Category() {
	case RoyalFlush:
		return "Royal Flush"
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", name(0))
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind, %ss", name(0))
	case FullHouse:
		return fmt.Sprintf("Full House, %ss over %ss", name(0), name(1))
	case Flush:
		return fmt.Sprintf("Flush, %s high", name(0))
	case Straight:
		return fmt.Sprintf("Straight, %s high", name(0))
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind, %ss", name(0))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", name(0), name(1))
	case OnePair:
		return fmt.Sprintf("Pair of %ss", name(0))
	case HighCard:
		return fmt.Sprintf("High Card, %s", name(0))
	default:
		return "Unknown"
	}
}

func rankName(v int) string {
	switch v {
	case 14:
		return "Ace"
	case 13:
		return "King"
	case 12:
		return "Queen"
	case 11:
		return "Jack"
	case 10:
		return "Ten"
	case 9:
		return "Nine"
	case 8:
		return "Eight"
	case 7:
		return "Seven"
	case 6:
		return "Six"
	case 5:
		return "Five"
	case 4:
		return "Four"
	case 3:
		return "Three"
	case 2:
		return "Two"
	default:
		return "?"
	}
}
