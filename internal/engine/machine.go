package engine

import (
	"fmt"

	"github.com/parlormind/holdem/internal/evaluator"
	"github.com/parlormind/holdem/poker"
)

// HandEvaluator ranks a 5-7 card hand. The engine treats it as an opaque
// collaborator; it only relies on HandRank's total ordering.
type HandEvaluator interface {
	Evaluate(cards []poker.Card) (evaluator.HandRank, error)
}

// EvaluatorFunc adapts a plain function to the HandEvaluator interface.
type EvaluatorFunc func(cards []poker.Card) (evaluator.HandRank, error)

// Evaluate implements HandEvaluator.
func (f EvaluatorFunc) Evaluate(cards []poker.Card) (evaluator.HandRank, error) {
	return f(cards)
}

// Seat configures one player at game creation.
type Seat struct {
	Name  string
	Stack int
	Human bool
}

// Config configures a new game.
type Config struct {
	Seats      []Seat
	SmallBlind int
	BigBlind   int
	DealerIdx  int // button position for the first hand
}

// Machine drives a game through its phases. It is the single component
// allowed to hold a replaceable reference to the current GameState: the
// value itself is immutable, and every operation swaps the reference
// wholesale for a new snapshot. Nothing else may mutate game state.
//
// The machine is not safe for concurrent use; callers serialize access per
// game (one writer at a time for the validate-apply-save sequence).
type Machine struct {
	state  GameState
	eval   HandEvaluator
	result *HandResult // result of the most recently completed hand
}

// NewMachine validates the configuration and returns a machine ready for
// StartHand. Duplicate player names are an invariant violation and rejected
// here, at creation.
func NewMachine(cfg Config, eval HandEvaluator) (*Machine, error) {
	if eval == nil {
		return nil, fmt.Errorf("engine: nil evaluator")
	}
	if len(cfg.Seats) < 2 || len(cfg.Seats) > 9 {
		return nil, fmt.Errorf("engine: need 2 to 9 players, got %d", len(cfg.Seats))
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= 0 || cfg.BigBlind < cfg.SmallBlind {
		return nil, fmt.Errorf("engine: invalid blinds %d/%d", cfg.SmallBlind, cfg.BigBlind)
	}
	if cfg.DealerIdx < 0 || cfg.DealerIdx >= len(cfg.Seats) {
		return nil, fmt.Errorf("engine: dealer index %d out of range", cfg.DealerIdx)
	}

	names := make(map[string]bool, len(cfg.Seats))
	players := make([]Player, len(cfg.Seats))
	for i, seat := range cfg.Seats {
		if seat.Name == "" {
			return nil, invariantErr("seat %d has an empty name", i)
		}
		if names[seat.Name] {
			return nil, invariantErr("duplicate player name %q", seat.Name)
		}
		names[seat.Name] = true
		if seat.Stack <= 0 {
			return nil, fmt.Errorf("engine: seat %d (%s) has non-positive stack %d", i, seat.Name, seat.Stack)
		}
		players[i] = Player{
			Name:      seat.Name,
			SeatIndex: i,
			Stack:     seat.Stack,
			Human:     seat.Human,
		}
	}

	return &Machine{
		state: GameState{
			Players:          players,
			Pot:              map[string]int{},
			Phase:            HandOver,
			CurrentPlayerIdx: NoCurrentPlayer,
			DealerIdx:        cfg.DealerIdx,
			SmallBlind:       cfg.SmallBlind,
			BigBlind:         cfg.BigBlind,
		},
		eval: eval,
	}, nil
}

// Restore rebuilds a machine around a previously saved snapshot, e.g. after
// a process restart. The snapshot is validated before it is accepted.
func Restore(state GameState, eval HandEvaluator) (*Machine, error) {
	if eval == nil {
		return nil, fmt.Errorf("engine: nil evaluator")
	}
	if err := state.CheckInvariants(); err != nil {
		return nil, err
	}
	return &Machine{state: state.Clone(), eval: eval}, nil
}

// State returns a copy of the current snapshot.
func (m *Machine) State() GameState {
	return m.state.Clone()
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.state.Phase
}

// LastResult returns the result of the most recently completed hand, or nil
// if no hand has completed since the machine was created or restored.
func (m *Machine) LastResult() *HandResult {
	return m.result
}

// LegalActions returns the actions available to the current actor.
func (m *Machine) LegalActions() []LegalAction {
	return LegalActions(m.state)
}

// StartHand begins the next hand: rotates the button to the next funded
// seat, posts blinds, shuffles a fresh deck from seed, and deals hole cards.
// If fewer than two players have chips the machine transitions to GameOver
// instead. Only valid once the previous hand has settled, in HandOver or
// Showdown.
func (m *Machine) StartHand(seed int64) error {
	if m.state.Phase != HandOver && m.state.Phase != Showdown {
		return actionErr(ErrWrongPhase, NoCurrentPlayer, "cannot start a hand during %s", m.state.Phase)
	}

	s := m.state.Clone()

	funded := 0
	for _, p := range s.Players {
		if p.Stack > 0 {
			funded++
		}
	}
	if funded < 2 {
		s.Phase = GameOver
		s.CurrentPlayerIdx = NoCurrentPlayer
		m.state = s
		return nil
	}

	// Rotate the button to the next funded seat; the configured position is
	// kept for the first hand.
	if s.HandNumber > 0 {
		s.DealerIdx = m.nextFundedFrom(s, (s.DealerIdx+1)%len(s.Players))
	} else if s.Players[s.DealerIdx].Stack == 0 {
		s.DealerIdx = m.nextFundedFrom(s, (s.DealerIdx+1)%len(s.Players))
	}

	// Reset per-hand fields. Busted seats sit out as folded for the hand.
	for i := range s.Players {
		p := &s.Players[i]
		p.HoleCards = nil
		p.CurrentBet = 0
		p.TotalContributed = 0
		p.AllIn = false
		p.HasActed = false
		p.Folded = p.Stack == 0
	}
	s.Pot = map[string]int{}
	s.CommunityCards = nil
	s.HandNumber++
	s.HandSeed = seed
	s.MinRaise = s.BigBlind
	s.Phase = PreFlop

	deck := poker.NewDeck(seed)

	// Blind positions. Heads-up the button posts the small blind.
	var sbSeat, bbSeat int
	if funded == 2 {
		sbSeat = s.DealerIdx
		bbSeat = m.nextFundedFrom(s, (sbSeat+1)%len(s.Players))
	} else {
		sbSeat = m.nextFundedFrom(s, (s.DealerIdx+1)%len(s.Players))
		bbSeat = m.nextFundedFrom(s, (sbSeat+1)%len(s.Players))
	}
	postBlind(&s, sbSeat, s.SmallBlind)
	postBlind(&s, bbSeat, s.BigBlind)

	// Two hole cards per funded player, in seat order starting left of the
	// button.
	for offset := 1; offset <= len(s.Players); offset++ {
		idx := (s.DealerIdx + offset) % len(s.Players)
		if s.Players[idx].Folded { // busted seats sit the hand out
			continue
		}
		cards, rest, err := deck.Deal(2)
		if err != nil {
			return err
		}
		s.Players[idx].HoleCards = cards
		deck = rest
	}
	s.Deck = deck

	// First to act: left of the big blind pre-flop. If the blinds put
	// everyone all-in there is nobody to act and the hand runs out now.
	s.CurrentPlayerIdx = s.nextActiveFrom((bbSeat + 1) % len(s.Players))
	if s.CurrentPlayerIdx == NoCurrentPlayer {
		settled, err := m.settleStreets(s)
		if err != nil {
			return err
		}
		s = settled
	}

	if err := s.CheckInvariants(); err != nil {
		return err
	}
	m.state = s
	return nil
}

// Apply validates and applies one player action, advancing the turn and the
// phase as needed. On any error the current state is left untouched and the
// typed error is returned; the machine never guesses intent.
func (m *Machine) Apply(playerIdx int, act Action) (GameState, error) {
	va, err := ValidateAction(m.state, playerIdx, act)
	if err != nil {
		return GameState{}, err
	}

	next, err := ApplyAction(m.state, va)
	if err != nil {
		return GameState{}, err
	}

	switch {
	case next.NonFoldedCount() == 1:
		next, err = m.settleFold(next)
	case IsBettingRoundComplete(next):
		next, err = m.settleStreets(next)
	default:
		next, err = AdvanceTurn(next)
	}
	if err != nil {
		return GameState{}, err
	}

	if err := next.CheckInvariants(); err != nil {
		return GameState{}, err
	}
	m.state = next
	return m.state.Clone(), nil
}

// settleFold awards the whole pot to the sole remaining player without
// evaluation and ends the hand. No further community cards are dealt.
func (m *Machine) settleFold(s GameState) (GameState, error) {
	winner := -1
	for i, p := range s.Players {
		if !p.Folded {
			winner = i
			break
		}
	}
	if winner == -1 {
		return GameState{}, invariantErr("no remaining player to award the pot to")
	}

	total := s.PotTotal()
	out := s.Clone()
	out.Players[winner].Stack += total
	out.Phase = HandOver
	out.CurrentPlayerIdx = NoCurrentPlayer

	m.result = &HandResult{
		HandNumber: out.HandNumber,
		WonByFold:  true,
		Board:      append([]poker.Card(nil), out.CommunityCards...),
		Payouts:    map[string]int{out.Players[winner].Name: total},
		Pots: []PotResult{{
			Amount:   total,
			Eligible: []int{winner},
			Winners:  []int{winner},
		}},
	}
	return out, nil
}

// settleStreets advances past a completed betting round: deal the next
// community tranche and reset round state, running out remaining streets
// while nobody can act, and evaluating the showdown after the river.
func (m *Machine) settleStreets(s GameState) (GameState, error) {
	out := s.Clone()
	for {
		// New round: bets return to zero, acted flags clear, folded and
		// all-in status and total contributions carry over.
		for i := range out.Players {
			out.Players[i].CurrentBet = 0
			out.Players[i].HasActed = false
		}
		out.MinRaise = out.BigBlind
		out.CurrentPlayerIdx = NoCurrentPlayer

		var tranche int
		switch out.Phase {
		case PreFlop:
			out.Phase, tranche = Flop, 3
		case Flop:
			out.Phase, tranche = Turn, 1
		case Turn:
			out.Phase, tranche = River, 1
		case River:
			return m.settleShowdown(out)
		default:
			return GameState{}, invariantErr("cannot advance street from %s", out.Phase)
		}

		cards, rest, err := out.Deck.Deal(tranche)
		if err != nil {
			return GameState{}, err
		}
		out.CommunityCards = append(out.CommunityCards, cards...)
		out.Deck = rest

		// All remaining players all-in: no action possible, run it out.
		if out.ActiveCount() == 0 {
			continue
		}

		first := out.nextActiveFrom((out.DealerIdx + 1) % len(out.Players))
		if first == NoCurrentPlayer {
			return GameState{}, invariantErr("active players exist but none found after %s deal", out.Phase)
		}
		out.CurrentPlayerIdx = first
		return out, nil
	}
}

// settleShowdown evaluates every non-folded player's best hand, distributes
// each pot tier to its winners, and ends the hand.
func (m *Machine) settleShowdown(s GameState) (GameState, error) {
	out := s.Clone()
	out.Phase = EvaluatingHand
	out.CurrentPlayerIdx = NoCurrentPlayer

	ranks := make(map[int]evaluator.HandRank)
	rankings := make([]ShowdownRanking, 0, len(out.Players))
	for i, p := range out.Players {
		if p.Folded {
			continue
		}
		if len(p.HoleCards) != 2 {
			return GameState{}, invariantErr("player %q reached showdown with %d hole cards", p.Name, len(p.HoleCards))
		}
		cards := append(append([]poker.Card(nil), p.HoleCards...), out.CommunityCards...)
		rank, err := m.eval.Evaluate(cards)
		if err != nil {
			return GameState{}, fmt.Errorf("engine: evaluating hand for %q: %w", p.Name, err)
		}
		ranks[i] = rank
		rankings = append(rankings, ShowdownRanking{
			SeatIndex:   i,
			Name:        p.Name,
			Rank:        rank,
			Description: rank.String(),
		})
	}
	if len(ranks) < 2 {
		return GameState{}, invariantErr("showdown with %d contenders", len(ranks))
	}

	result := &HandResult{
		HandNumber: out.HandNumber,
		Board:      append([]poker.Card(nil), out.CommunityCards...),
		Rankings:   rankings,
		Payouts:    map[string]int{},
	}

	for _, pot := range ComputeSidePots(out) {
		winners := bestOf(pot.Eligible, ranks)
		if len(winners) == 0 {
			return GameState{}, invariantErr("pot tier %d has no eligible winner", pot.Cap)
		}
		payouts := splitPot(pot.Amount, winners, out.DealerIdx, len(out.Players))
		for seat, amount := range payouts {
			out.Players[seat].Stack += amount
			result.Payouts[out.Players[seat].Name] += amount
		}
		result.Pots = append(result.Pots, PotResult{
			Amount:   pot.Amount,
			Eligible: pot.Eligible,
			Winners:  winners,
		})
	}

	// A contested showdown rests in Showdown until the next StartHand; a
	// hand won by fold rests in HandOver. The phase records how the hand
	// ended, the rankings live in the result.
	out.Phase = Showdown
	m.result = result
	return out, nil
}

// bestOf returns the seats holding the strongest hand among the eligible
// seats, in ascending seat order.
func bestOf(eligible []int, ranks map[int]evaluator.HandRank) []int {
	var best evaluator.HandRank
	var winners []int
	for _, seat := range eligible {
		rank, ok := ranks[seat]
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0 || rank > best:
			best = rank
			winners = []int{seat}
		case rank == best:
			winners = append(winners, seat)
		}
	}
	return winners
}

// nextFundedFrom returns the first seat at or after from with chips.
func (m *Machine) nextFundedFrom(s GameState, from int) int {
	n := len(s.Players)
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if s.Players[idx].Stack > 0 {
			return idx
		}
	}
	return NoCurrentPlayer
}

func postBlind(s *GameState, seat, amount int) {
	p := &s.Players[seat]
	blind := amount
	if blind > p.Stack {
		blind = p.Stack
	}
	p.Stack -= blind
	p.CurrentBet = blind
	p.TotalContributed = blind
	s.Pot[p.Name] += blind
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// HandResult describes a completed hand: how each pot was decided and what
// every winner received.
type HandResult struct {
	HandNumber int
	WonByFold  bool
	Board      []poker.Card
	Pots       []PotResult
	Rankings   []ShowdownRanking // empty when won by fold
	Payouts    map[string]int    // player name -> chips won
}

// PotResult records the outcome of one pot tier.
type PotResult struct {
	Amount   int
	Eligible []int
	Winners  []int
}

// ShowdownRanking is one player's evaluated hand at showdown.
type ShowdownRanking struct {
	SeatIndex   int
	Name        string
	Rank        evaluator.HandRank
	Description string
}
