// Package engine implements the hold'em game state and betting rules. The
// core value type is GameState, a frozen snapshot: every betting action and
// phase transition produces a new snapshot and never mutates its input. The
// Machine in machine.go owns the single mutable reference to "the current
// state"; everything else in this package is a pure function.
//
// All chip amounts are integers. The package performs no logging and no IO.
package engine

import (
	"fmt"
	"sort"

	"github.com/parlormind/holdem/poker"
)

// Phase is the lifecycle phase of a hand.
type Phase int

const (
	PreFlop Phase = iota
	Flop
	Turn
	River
	EvaluatingHand
	Showdown
	HandOver
	GameOver
)

// String returns the stable encoding of a phase, used for persistence.
func (p Phase) String() string {
	switch p {
	case PreFlop:
		return "pre_flop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case EvaluatingHand:
		return "evaluating_hand"
	case Showdown:
		return "showdown"
	case HandOver:
		return "hand_over"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// ParsePhase inverts Phase.String.
func ParsePhase(s string) (Phase, error) {
	for p := PreFlop; p <= GameOver; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("engine: unknown phase %q", s)
}

// IsBetting reports whether the phase accepts player actions.
func (p Phase) IsBetting() bool {
	return p == PreFlop || p == Flop || p == Turn || p == River
}

// NoCurrentPlayer is the CurrentPlayerIdx sentinel meaning no action is
// pending.
const NoCurrentPlayer = -1

// Player is one seat's state within a hand. Copied by value as part of the
// snapshot.
type Player struct {
	Name             string
	SeatIndex        int
	Stack            int
	HoleCards        []poker.Card // nil before the deal, exactly 2 after
	CurrentBet       int          // chips committed this betting round
	TotalContributed int          // chips committed this hand, for side pots
	Folded           bool
	AllIn            bool
	HasActed         bool // this betting round
	Human            bool
}

// Active reports whether the player can still act this hand.
func (p Player) Active() bool {
	return !p.Folded && !p.AllIn
}

func (p Player) clone() Player {
	out := p
	if p.HoleCards != nil {
		out.HoleCards = make([]poker.Card, len(p.HoleCards))
		copy(out.HoleCards, p.HoleCards)
	}
	return out
}

// GameState is a frozen snapshot of an in-progress hand. Treat every value
// as immutable: functions in this package return fresh snapshots and leave
// their inputs untouched.
type GameState struct {
	Players          []Player
	CommunityCards   []poker.Card
	Pot              map[string]int // contributor name -> chips this hand
	Phase            Phase
	CurrentPlayerIdx int // NoCurrentPlayer when no action is pending
	DealerIdx        int
	SmallBlind       int
	BigBlind         int
	MinRaise         int // size of the last raise, or the big blind
	Deck             poker.Deck
	HandNumber       int
	HandSeed         int64
}

// Clone returns a deep copy of the snapshot.
func (s GameState) Clone() GameState {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	if s.CommunityCards != nil {
		out.CommunityCards = make([]poker.Card, len(s.CommunityCards))
		copy(out.CommunityCards, s.CommunityCards)
	}
	out.Pot = make(map[string]int, len(s.Pot))
	for name, amount := range s.Pot {
		out.Pot[name] = amount
	}
	out.Deck = s.Deck.Clone()
	return out
}

// PotTotal returns the sum of all contributions this hand.
func (s GameState) PotTotal() int {
	total := 0
	for _, amount := range s.Pot {
		total += amount
	}
	return total
}

// HighBet returns the highest current-round bet at the table. The
// bet-to-match is always derived from the players, never stored.
func (s GameState) HighBet() int {
	high := 0
	for _, p := range s.Players {
		if p.CurrentBet > high {
			high = p.CurrentBet
		}
	}
	return high
}

// CostToCall returns how many chips the given player must add to match the
// high bet.
func (s GameState) CostToCall(playerIdx int) int {
	return s.HighBet() - s.Players[playerIdx].CurrentBet
}

// ActiveCount returns the number of players who can still act (not folded,
// not all-in).
func (s GameState) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// NonFoldedCount returns the number of players still contesting the hand.
func (s GameState) NonFoldedCount() int {
	n := 0
	for _, p := range s.Players {
		if !p.Folded {
			n++
		}
	}
	return n
}

// nextActiveFrom returns the index of the first active player at or after
// from (wrapping), or NoCurrentPlayer if none exists.
func (s GameState) nextActiveFrom(from int) int {
	n := len(s.Players)
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if s.Players[idx].Active() {
			return idx
		}
	}
	return NoCurrentPlayer
}

// CheckInvariants verifies the structural invariants that must hold after
// every transition. A failure here is a bug in the engine, reported loudly
// as an InvariantError.
func (s GameState) CheckInvariants() error {
	names := make(map[string]bool, len(s.Players))
	contributed := 0
	for i, p := range s.Players {
		if names[p.Name] {
			return invariantErr("duplicate player name %q", p.Name)
		}
		names[p.Name] = true
		if p.SeatIndex != i {
			return invariantErr("player %q seat index %d stored at position %d", p.Name, p.SeatIndex, i)
		}
		if p.Stack < 0 {
			return invariantErr("player %q has negative stack %d", p.Name, p.Stack)
		}
		if len(p.HoleCards) != 0 && len(p.HoleCards) != 2 {
			return invariantErr("player %q holds %d hole cards", p.Name, len(p.HoleCards))
		}
		contributed += p.TotalContributed
	}

	if contributed != s.PotTotal() {
		return invariantErr("pot total %d does not match player contributions %d", s.PotTotal(), contributed)
	}

	if s.CurrentPlayerIdx != NoCurrentPlayer {
		if s.CurrentPlayerIdx < 0 || s.CurrentPlayerIdx >= len(s.Players) {
			return invariantErr("current player index %d out of range", s.CurrentPlayerIdx)
		}
		if !s.Players[s.CurrentPlayerIdx].Active() {
			return invariantErr("current player %q is folded or all-in", s.Players[s.CurrentPlayerIdx].Name)
		}
	}

	switch s.Phase {
	case PreFlop:
		if len(s.CommunityCards) != 0 {
			return invariantErr("pre-flop with %d community cards", len(s.CommunityCards))
		}
	case Flop:
		if len(s.CommunityCards) != 3 {
			return invariantErr("flop with %d community cards", len(s.CommunityCards))
		}
	case Turn:
		if len(s.CommunityCards) != 4 {
			return invariantErr("turn with %d community cards", len(s.CommunityCards))
		}
	case River, EvaluatingHand, Showdown:
		if len(s.CommunityCards) != 5 {
			return invariantErr("%s with %d community cards", s.Phase, len(s.CommunityCards))
		}
	}

	return nil
}

// Contributions returns the pot contributions as a deterministic list,
// sorted by seat order. Useful for logging and persistence.
func (s GameState) Contributions() []PotContribution {
	out := make([]PotContribution, 0, len(s.Pot))
	for _, p := range s.Players {
		if amount, ok := s.Pot[p.Name]; ok {
			out = append(out, PotContribution{Name: p.Name, SeatIndex: p.SeatIndex, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatIndex < out[j].SeatIndex })
	return out
}

// PotContribution is one player's contribution to the current hand's pot.
type PotContribution struct {
	Name      string
	SeatIndex int
	Amount    int
}
