package engine

import "sort"

// SidePot is one tier of the pot at showdown. Cap is the per-player
// contribution ceiling for the tier; only non-folded players who contributed
// at least Cap are eligible to win it. The first entry is the main pot.
type SidePot struct {
	Amount   int
	Cap      int
	Eligible []int // seat indexes, ascending
}

// ComputeSidePots partitions the hand's total pot into a main pot and zero
// or more side pots from each player's TotalContributed. Folded players'
// chips count toward the amounts but folded players are never eligible.
//
// Tiers are the distinct contribution levels of non-folded all-in players,
// plus the top level. A player all-in for less than others caps what they
// can win at their own level; the excess above it is contested only by those
// who covered it.
func ComputeSidePots(s GameState) []SidePot {
	// Distinct tier caps: contribution levels at which a non-folded player
	// is all-in, plus the overall maximum contribution.
	capSet := make(map[int]bool)
	maxContribution := 0
	for _, p := range s.Players {
		if p.TotalContributed > maxContribution {
			maxContribution = p.TotalContributed
		}
		if !p.Folded && p.AllIn && p.TotalContributed > 0 {
			capSet[p.TotalContributed] = true
		}
	}
	if maxContribution == 0 {
		return nil
	}
	capSet[maxContribution] = true

	caps := make([]int, 0, len(capSet))
	for c := range capSet {
		caps = append(caps, c)
	}
	sort.Ints(caps)

	pots := make([]SidePot, 0, len(caps))
	previous := 0
	for _, tierCap := range caps {
		pot := SidePot{Cap: tierCap}
		for _, p := range s.Players {
			slice := p.TotalContributed - previous
			if slice <= 0 {
				continue
			}
			if slice > tierCap-previous {
				slice = tierCap - previous
			}
			pot.Amount += slice
			if !p.Folded && p.TotalContributed >= tierCap {
				pot.Eligible = append(pot.Eligible, p.SeatIndex)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		previous = tierCap
	}
	return pots
}

// splitPot divides amount equally among the winning seats. When the amount
// does not divide evenly, leftover chips go one each to the winners whose
// seats come earliest clockwise from the dealer button. The rule is fixed so
// odd-chip behavior is deterministic and testable.
func splitPot(amount int, winners []int, dealerIdx, numSeats int) map[int]int {
	out := make(map[int]int, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return out
	}
	share := amount / len(winners)
	remainder := amount % len(winners)
	for _, seat := range winners {
		out[seat] = share
	}

	if remainder > 0 {
		ordered := orderFromDealer(winners, dealerIdx, numSeats)
		for i := 0; i < remainder; i++ {
			out[ordered[i]]++
		}
	}
	return out
}

// orderFromDealer sorts seats by clockwise distance from the seat after the
// dealer button.
func orderFromDealer(seats []int, dealerIdx, numSeats int) []int {
	out := make([]int, len(seats))
	copy(out, seats)
	distance := func(seat int) int {
		return ((seat - dealerIdx - 1) + numSeats) % numSeats
	}
	sort.Slice(out, func(i, j int) bool { return distance(out[i]) < distance(out[j]) })
	return out
}
