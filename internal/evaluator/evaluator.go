package evaluator

import (
	"fmt"
	"sort"

	"github.com/parlormind/holdem/poker"
)

// Evaluate returns the strength of the best 5-card hand that can be made
// from the given cards. It accepts 5 to 7 cards (hole cards plus any dealt
// portion of the board) and rejects anything else, including duplicates.
func Evaluate(cards []poker.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluator: need 5 to 7 cards, got %d", len(cards))
	}
	seen := make(map[poker.Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return 0, fmt.Errorf("evaluator: invalid card %v", c)
		}
		if seen[c] {
			return 0, fmt.Errorf("evaluator: duplicate card %s", c)
		}
		seen[c] = true
	}

	if len(cards) == 5 {
		return evaluate5(cards), nil
	}

	// 21 combinations at most; pick the strongest 5-card hand.
	best := HandRank(0)
	hand := make([]poker.Card, 5)
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						hand[0], hand[1], hand[2], hand[3], hand[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						if r := evaluate5(hand); r > best {
							best = r
						}
					}
				}
			}
		}
	}
	return best, nil
}

func evaluate5(cards []poker.Card) HandRank {
	values := make([]int, 5)
	flush := true
	for i, c := range cards {
		values[i] = c.Value()
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	straightHigh := straightHighCard(values)

	if flush && straightHigh > 0 {
		if straightHigh == 14 {
			return makeRank(RoyalFlush, 14)
		}
		return makeRank(StraightFlush, straightHigh)
	}

	// Group by rank: counts[value] = occurrences.
	counts := make(map[int]int, 5)
	for _, v := range values {
		counts[v]++
	}

	// Order groups by count desc, then rank desc.
	type group struct{ value, count int }
	groups := make([]group, 0, 5)
	for v, n := range counts {
		groups = append(groups, group{v, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})

	switch {
	case groups[0].count == 4:
		return makeRank(FourOfAKind, groups[0].value, groups[1].value)
	case groups[0].count == 3 && groups[1].count == 2:
		return makeRank(FullHouse, groups[0].value, groups[1].value)
	case flush:
		return makeRank(Flush, values...)
	case straightHigh > 0:
		return makeRank(Straight, straightHigh)
	case groups[0].count == 3:
		return makeRank(ThreeOfAKind, groups[0].value, groups[1].value, groups[2].value)
	case groups[0].count == 2 && groups[1].count == 2:
		return makeRank(TwoPair, groups[0].value, groups[1].value, groups[2].value)
	case groups[0].count == 2:
		return makeRank(OnePair, groups[0].value, groups[1].value, groups[2].value, groups[3].value)
	default:
		return makeRank(HighCard, values...)
	}
}

// straightHighCard returns the high card of a straight formed by the five
// descending values, or 0 if they do not form one. The wheel (A-5-4-3-2)
// counts as a 5-high straight.
func straightHighCard(desc []int) int {
	run := true
	for i := 1; i < 5; i++ {
		if desc[i] != desc[i-1]-1 {
			run = false
			break
		}
	}
	if run {
		return desc[0]
	}
	if desc[0] == 14 && desc[1] == 5 && desc[2] == 4 && desc[3] == 3 && desc[4] == 2 {
		return 5
	}
	return 0
}
