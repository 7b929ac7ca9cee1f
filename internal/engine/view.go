package engine

import "github.com/parlormind/holdem/poker"

// PlayerView is the public view of a snapshot handed to decision providers.
// It carries no hidden information: only the viewing player's own hole cards
// are included.
type PlayerView struct {
	YourSeat   int
	HoleCards  []poker.Card
	Board      []poker.Card
	Phase      Phase
	PotTotal   int
	CostToCall int
	MinRaiseTo int
	DealerIdx  int
	SmallBlind int
	BigBlind   int
	HandNumber int
	Opponents  []OpponentView
}

// OpponentView is the public state of one seat (including the viewer's own
// seat, for stack and bet bookkeeping).
type OpponentView struct {
	Name       string
	SeatIndex  int
	Stack      int
	CurrentBet int
	Folded     bool
	AllIn      bool
	Human      bool
}

// ViewFor builds the public view of the snapshot for the given seat.
func ViewFor(s GameState, playerIdx int) PlayerView {
	view := PlayerView{
		YourSeat:   playerIdx,
		Board:      append([]poker.Card(nil), s.CommunityCards...),
		Phase:      s.Phase,
		PotTotal:   s.PotTotal(),
		DealerIdx:  s.DealerIdx,
		SmallBlind: s.SmallBlind,
		BigBlind:   s.BigBlind,
		HandNumber: s.HandNumber,
		MinRaiseTo: s.HighBet() + s.MinRaise,
	}
	if playerIdx >= 0 && playerIdx < len(s.Players) {
		view.HoleCards = append([]poker.Card(nil), s.Players[playerIdx].HoleCards...)
		view.CostToCall = s.CostToCall(playerIdx)
	}
	for _, p := range s.Players {
		view.Opponents = append(view.Opponents, OpponentView{
			Name:       p.Name,
			SeatIndex:  p.SeatIndex,
			Stack:      p.Stack,
			CurrentBet: p.CurrentBet,
			Folded:     p.Folded,
			AllIn:      p.AllIn,
			Human:      p.Human,
		})
	}
	return view
}
