package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlormind/holdem/internal/evaluator"
	"github.com/parlormind/holdem/poker"
)

// riggedEvaluator ranks hands by the hole cards alone, using strengths the
// test assigns per seat after the deal. Showdown evaluation passes the two
// hole cards first, so the key is stable.
type riggedEvaluator struct {
	strength map[string]evaluator.HandRank
}

func newRiggedEvaluator() *riggedEvaluator {
	return &riggedEvaluator{strength: map[string]evaluator.HandRank{}}
}

func (r *riggedEvaluator) rig(holeCards []poker.Card, rank evaluator.HandRank) {
	r.strength[holeCards[0].Encode()+holeCards[1].Encode()] = rank
}

func (r *riggedEvaluator) Evaluate(cards []poker.Card) (evaluator.HandRank, error) {
	rank, ok := r.strength[cards[0].Encode()+cards[1].Encode()]
	if !ok {
		return 0, nil
	}
	return rank, nil
}

func realEvaluator() HandEvaluator {
	return EvaluatorFunc(evaluator.Evaluate)
}

func TestNewMachineRejectsDuplicateNames(t *testing.T) {
	_, err := NewMachine(Config{
		Seats:      []Seat{{Name: "alice", Stack: 100}, {Name: "alice", Stack: 100}},
		SmallBlind: 10,
		BigBlind:   20,
	}, realEvaluator())
	require.Error(t, err)

	var invariant *InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestNewMachineValidation(t *testing.T) {
	valid := Config{
		Seats:      []Seat{{Name: "alice", Stack: 100}, {Name: "bob", Stack: 100}},
		SmallBlind: 10,
		BigBlind:   20,
	}

	_, err := NewMachine(valid, realEvaluator())
	require.NoError(t, err)

	bad := valid
	bad.Seats = []Seat{{Name: "alice", Stack: 100}}
	_, err = NewMachine(bad, realEvaluator())
	assert.Error(t, err, "one player is not a game")

	bad = valid
	bad.BigBlind = 5
	_, err = NewMachine(bad, realEvaluator())
	assert.Error(t, err, "big blind below small blind")

	bad = valid
	bad.Seats = []Seat{{Name: "alice", Stack: 100}, {Name: "bob", Stack: 0}}
	_, err = NewMachine(bad, realEvaluator())
	assert.Error(t, err, "zero starting stack")
}

func TestStartHandDealsAndPostsBlinds(t *testing.T) {
	m, err := NewMachine(Config{
		Seats: []Seat{
			{Name: "alice", Stack: 1000},
			{Name: "bob", Stack: 1000},
			{Name: "carol", Stack: 1000},
		},
		SmallBlind: 10,
		BigBlind:   20,
		DealerIdx:  0,
	}, realEvaluator())
	require.NoError(t, err)
	require.NoError(t, m.StartHand(42))

	s := m.State()
	assert.Equal(t, PreFlop, s.Phase)
	assert.Equal(t, 1, s.HandNumber)
	assert.Equal(t, int64(42), s.HandSeed)

	// Three players: button+1 posts small blind, button+2 posts big blind,
	// button acts first (UTG in a 3-handed game).
	assert.Equal(t, 10, s.Players[1].CurrentBet)
	assert.Equal(t, 20, s.Players[2].CurrentBet)
	assert.Equal(t, 30, s.PotTotal())
	assert.Equal(t, 0, s.CurrentPlayerIdx)

	for _, p := range s.Players {
		assert.Len(t, p.HoleCards, 2, "player %s", p.Name)
	}
	assert.Equal(t, 52-6, s.Deck.Remaining())
	assert.Equal(t, 20, s.MinRaise)
}

func TestStartHandWrongPhase(t *testing.T) {
	m := headsUpMachine(t, realEvaluator(), 1)
	err := m.StartHand(2)
	require.Error(t, err)

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, ErrWrongPhase, actionErr.Kind)
}

// headsUpMachine creates a started 1000/1000 heads-up game with 10/20
// blinds, dealer at seat 0.
func headsUpMachine(t *testing.T, eval HandEvaluator, seed int64) *Machine {
	t.Helper()
	m, err := NewMachine(Config{
		Seats:      []Seat{{Name: "alice", Stack: 1000, Human: true}, {Name: "bob", Stack: 1000}},
		SmallBlind: 10,
		BigBlind:   20,
		DealerIdx:  0,
	}, eval)
	require.NoError(t, err)
	require.NoError(t, m.StartHand(seed))
	return m
}

func TestHeadsUpCheckedDownHand(t *testing.T) {
	rigged := newRiggedEvaluator()
	m := headsUpMachine(t, rigged, 7)

	s := m.State()
	// Heads-up: the button posts the small blind and acts first pre-flop.
	assert.Equal(t, 10, s.Players[0].CurrentBet)
	assert.Equal(t, 20, s.Players[1].CurrentBet)
	assert.Equal(t, 0, s.CurrentPlayerIdx)

	rigged.rig(s.Players[0].HoleCards, 500) // alice wins the showdown
	rigged.rig(s.Players[1].HoleCards, 100)

	// Button completes the small blind; big blind has the option.
	s, err := m.Apply(0, Action{Kind: Call})
	require.NoError(t, err)
	assert.Equal(t, PreFlop, s.Phase, "big blind still has the option")
	assert.Equal(t, 1, s.CurrentPlayerIdx)

	s, err = m.Apply(1, Action{Kind: Check})
	require.NoError(t, err)
	assert.Equal(t, Flop, s.Phase)
	assert.Len(t, s.CommunityCards, 3)
	assert.Equal(t, 1, s.CurrentPlayerIdx, "big blind acts first post-flop heads-up")
	assert.Equal(t, 0, s.Players[0].CurrentBet, "bets reset for the new round")

	// Check it down to the river.
	for _, expected := range []struct {
		phase Phase
		board int
	}{{Turn, 4}, {River, 5}} {
		s, err = m.Apply(1, Action{Kind: Check})
		require.NoError(t, err)
		s, err = m.Apply(0, Action{Kind: Check})
		require.NoError(t, err)
		assert.Equal(t, expected.phase, s.Phase)
		assert.Len(t, s.CommunityCards, expected.board)
	}

	s, err = m.Apply(1, Action{Kind: Check})
	require.NoError(t, err)
	s, err = m.Apply(0, Action{Kind: Check})
	require.NoError(t, err)

	assert.Equal(t, Showdown, s.Phase, "a contested showdown rests in Showdown, not HandOver")
	assert.Equal(t, 1020, s.Players[0].Stack, "winner takes the 40-chip pot")
	assert.Equal(t, 980, s.Players[1].Stack)

	result := m.LastResult()
	require.NotNil(t, result)
	assert.False(t, result.WonByFold)
	assert.Equal(t, map[string]int{"alice": 40}, result.Payouts)
	assert.Len(t, result.Rankings, 2)

	// Next hand starts straight from Showdown: button rotates.
	require.NoError(t, m.StartHand(8))
	s = m.State()
	assert.Equal(t, PreFlop, s.Phase)
	assert.Equal(t, 1, s.DealerIdx)
	assert.Equal(t, 2, s.HandNumber)
}

func TestHeadsUpExactTieSplitsPot(t *testing.T) {
	rigged := newRiggedEvaluator()
	m := headsUpMachine(t, rigged, 9)

	s := m.State()
	rigged.rig(s.Players[0].HoleCards, 300)
	rigged.rig(s.Players[1].HoleCards, 300)

	_, err := m.Apply(0, Action{Kind: Call})
	require.NoError(t, err)
	_, err = m.Apply(1, Action{Kind: Check})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = m.Apply(1, Action{Kind: Check})
		require.NoError(t, err)
		s, err = m.Apply(0, Action{Kind: Check})
		require.NoError(t, err)
	}

	assert.Equal(t, Showdown, s.Phase)
	assert.Equal(t, 1000, s.Players[0].Stack, "exact tie splits 20/20")
	assert.Equal(t, 1000, s.Players[1].Stack)
}

func TestFoldEndsHandWithoutEvaluation(t *testing.T) {
	m := headsUpMachine(t, realEvaluator(), 11)

	s, err := m.Apply(0, Action{Kind: Fold})
	require.NoError(t, err)

	assert.Equal(t, HandOver, s.Phase)
	assert.Empty(t, s.CommunityCards, "no community cards dealt on a fold-out")
	assert.Equal(t, 1010, s.Players[1].Stack, "big blind wins the blinds")
	assert.Equal(t, 990, s.Players[0].Stack)

	result := m.LastResult()
	require.NotNil(t, result)
	assert.True(t, result.WonByFold)
	assert.Empty(t, result.Rankings)
}

func TestInvalidActionLeavesStateUntouched(t *testing.T) {
	m := headsUpMachine(t, realEvaluator(), 13)
	before := m.State()

	_, err := m.Apply(1, Action{Kind: Check})
	require.Error(t, err, "not bob's turn")
	assert.Equal(t, before, m.State(), "state must not advance on a rejected action")

	_, err = m.Apply(0, Action{Kind: Raise, Amount: 25})
	require.Error(t, err, "below minimum raise")
	assert.Equal(t, before, m.State())
}

func TestAllInRunOut(t *testing.T) {
	rigged := newRiggedEvaluator()
	m, err := NewMachine(Config{
		Seats:      []Seat{{Name: "alice", Stack: 100}, {Name: "bob", Stack: 100}},
		SmallBlind: 10,
		BigBlind:   20,
		DealerIdx:  0,
	}, rigged)
	require.NoError(t, err)
	require.NoError(t, m.StartHand(17))

	s := m.State()
	rigged.rig(s.Players[1].HoleCards, 900) // bob wins the run-out
	rigged.rig(s.Players[0].HoleCards, 200)

	s, err = m.Apply(0, Action{Kind: AllIn})
	require.NoError(t, err)
	assert.Equal(t, PreFlop, s.Phase)

	s, err = m.Apply(1, Action{Kind: Call})
	require.NoError(t, err)

	// Both players all-in: the board runs out with no further action.
	assert.Equal(t, Showdown, s.Phase)
	assert.Len(t, s.CommunityCards, 5)
	assert.Equal(t, 0, s.Players[0].Stack)
	assert.Equal(t, 200, s.Players[1].Stack)
}

func TestSidePotDistribution(t *testing.T) {
	// A is all-in for 100, B raises to 300, C calls. A wins the
	// main pot (300), B wins the side pot (400), C gets nothing.
	rigged := newRiggedEvaluator()

	players := []Player{
		{Name: "a", SeatIndex: 0, Stack: 100, HoleCards: mustCards("2h", "3h")},
		{Name: "b", SeatIndex: 1, Stack: 500, HoleCards: mustCards("4h", "5h")},
		{Name: "c", SeatIndex: 2, Stack: 500, HoleCards: mustCards("6h", "7h")},
	}
	rigged.strength["2h3h"] = 900
	rigged.strength["4h5h"] = 500
	rigged.strength["6h7h"] = 100

	state := GameState{
		Players:          players,
		CommunityCards:   mustCards("Ts", "Js", "Qs", "Kd", "2c"),
		Pot:              map[string]int{},
		Phase:            River,
		CurrentPlayerIdx: 0,
		DealerIdx:        2,
		SmallBlind:       10,
		BigBlind:         20,
		MinRaise:         20,
		HandNumber:       1,
	}

	m, err := Restore(state, rigged)
	require.NoError(t, err)

	_, err = m.Apply(0, Action{Kind: AllIn})
	require.NoError(t, err)
	_, err = m.Apply(1, Action{Kind: Raise, Amount: 300})
	require.NoError(t, err)
	s, err := m.Apply(2, Action{Kind: Call})
	require.NoError(t, err)

	assert.Equal(t, Showdown, s.Phase)
	assert.Equal(t, 300, s.Players[0].Stack, "A wins the 300 main pot")
	assert.Equal(t, 600, s.Players[1].Stack, "B keeps 200 and wins the 400 side pot")
	assert.Equal(t, 200, s.Players[2].Stack, "C wins nothing")

	result := m.LastResult()
	require.NotNil(t, result)
	require.Len(t, result.Pots, 2)
	assert.Equal(t, []int{0}, result.Pots[0].Winners)
	assert.Equal(t, []int{1}, result.Pots[1].Winners)
}

func TestGameOverWhenOneFundedSeatRemains(t *testing.T) {
	state := GameState{
		Players: []Player{
			{Name: "alice", SeatIndex: 0, Stack: 0},
			{Name: "bob", SeatIndex: 1, Stack: 2000},
		},
		Pot:              map[string]int{},
		Phase:            HandOver,
		CurrentPlayerIdx: NoCurrentPlayer,
		DealerIdx:        0,
		SmallBlind:       10,
		BigBlind:         20,
		HandNumber:       3,
	}

	m, err := Restore(state, realEvaluator())
	require.NoError(t, err)
	require.NoError(t, m.StartHand(23))
	assert.Equal(t, GameOver, m.Phase())
}

func TestDealerRotationSkipsBustedSeats(t *testing.T) {
	state := GameState{
		Players: []Player{
			{Name: "alice", SeatIndex: 0, Stack: 500},
			{Name: "bob", SeatIndex: 1, Stack: 0},
			{Name: "carol", SeatIndex: 2, Stack: 500},
		},
		Pot:              map[string]int{},
		Phase:            HandOver,
		CurrentPlayerIdx: NoCurrentPlayer,
		DealerIdx:        0,
		SmallBlind:       10,
		BigBlind:         20,
		HandNumber:       4,
	}

	m, err := Restore(state, realEvaluator())
	require.NoError(t, err)
	require.NoError(t, m.StartHand(29))

	s := m.State()
	assert.Equal(t, 2, s.DealerIdx, "button skips the busted seat")
	assert.True(t, s.Players[1].Folded, "busted seat sits out")
	assert.Empty(t, s.Players[1].HoleCards)
	assert.Len(t, s.Players[0].HoleCards, 2)
	assert.Len(t, s.Players[2].HoleCards, 2)
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	state := bettingState(100, 100, 100, 100)
	state.Players[1].Name = "alice" // duplicate

	_, err := Restore(state, realEvaluator())
	require.Error(t, err)

	var invariant *InvariantError
	assert.ErrorAs(t, err, &invariant)
}

func TestShuffleIsolationAcrossMachines(t *testing.T) {
	m1 := headsUpMachine(t, realEvaluator(), 99)
	m2 := headsUpMachine(t, realEvaluator(), 99)

	s1, s2 := m1.State(), m2.State()
	assert.Equal(t, s1.Players[0].HoleCards, s2.Players[0].HoleCards,
		"same seed must deal identical cards regardless of other games")
	assert.Equal(t, s1.Deck, s2.Deck)
}
