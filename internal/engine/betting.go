package engine

// ActionKind is a player action type.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Raise
	AllIn
)

// String returns the stable encoding of an action kind.
func (a ActionKind) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return "unknown"
	}
}

// Action is a requested player action. Amount is the raise-to amount and is
// only meaningful for Raise.
type Action struct {
	Kind   ActionKind
	Amount int
}

// ValidatedAction is an action that passed ValidateAction. Chips is the
// exact number of chips the action moves from the player's stack into the
// pot; To is the player's current-round bet after the action.
type ValidatedAction struct {
	PlayerIdx int
	Kind      ActionKind
	Chips     int
	To        int
	// Reopens is true when the action raises the bet enough to give every
	// other active player a fresh decision.
	Reopens bool
}

// ValidateAction checks a requested action against the snapshot without
// modifying anything. On success it returns the normalized action ApplyAction
// expects; on failure a typed *ActionError.
//
// Normalizations: a call for more than the player's stack becomes an all-in
// for the remainder (never an error); a raise-to of the player's entire
// stack is accepted below the minimum raise increment (all-in exception).
func ValidateAction(s GameState, playerIdx int, act Action) (ValidatedAction, error) {
	if !s.Phase.IsBetting() {
		return ValidatedAction{}, actionErr(ErrWrongPhase, playerIdx, "no betting during %s", s.Phase)
	}
	if playerIdx < 0 || playerIdx >= len(s.Players) {
		return ValidatedAction{}, actionErr(ErrNotYourTurn, playerIdx, "no such seat")
	}
	if playerIdx != s.CurrentPlayerIdx {
		return ValidatedAction{}, actionErr(ErrNotYourTurn, playerIdx, "current actor is seat %d", s.CurrentPlayerIdx)
	}

	p := s.Players[playerIdx]
	if !p.Active() {
		return ValidatedAction{}, actionErr(ErrNotYourTurn, playerIdx, "player %q cannot act", p.Name)
	}
	if act.Amount < 0 {
		return ValidatedAction{}, actionErr(ErrInvalidAmount, playerIdx, "negative amount %d", act.Amount)
	}

	highBet := s.HighBet()
	toCall := highBet - p.CurrentBet

	switch act.Kind {
	case Fold:
		return ValidatedAction{PlayerIdx: playerIdx, Kind: Fold, To: p.CurrentBet}, nil

	case Check:
		if toCall != 0 {
			return ValidatedAction{}, actionErr(ErrIllegalAction, playerIdx, "cannot check, %d to call", toCall)
		}
		return ValidatedAction{PlayerIdx: playerIdx, Kind: Check, To: p.CurrentBet}, nil

	case Call:
		if toCall == 0 {
			return ValidatedAction{}, actionErr(ErrIllegalAction, playerIdx, "nothing to call")
		}
		if p.Stack == 0 {
			return ValidatedAction{}, actionErr(ErrIllegalAction, playerIdx, "no chips to call with")
		}
		if p.Stack <= toCall {
			// Short call: capped to an all-in for the remaining stack.
			return ValidatedAction{PlayerIdx: playerIdx, Kind: AllIn, Chips: p.Stack, To: p.CurrentBet + p.Stack}, nil
		}
		return ValidatedAction{PlayerIdx: playerIdx, Kind: Call, Chips: toCall, To: highBet}, nil

	case Raise:
		maxTo := p.CurrentBet + p.Stack
		if act.Amount <= highBet {
			return ValidatedAction{}, actionErr(ErrInvalidAmount, playerIdx, "raise to %d does not exceed current bet %d", act.Amount, highBet)
		}
		if act.Amount > maxTo {
			return ValidatedAction{}, actionErr(ErrInvalidAmount, playerIdx, "raise to %d exceeds stack (max %d)", act.Amount, maxTo)
		}
		if act.Amount-highBet < s.MinRaise && act.Amount != maxTo {
			return ValidatedAction{}, actionErr(ErrInvalidAmount, playerIdx, "raise to %d below minimum raise of %d over %d", act.Amount, s.MinRaise, highBet)
		}
		chips := act.Amount - p.CurrentBet
		va := ValidatedAction{
			PlayerIdx: playerIdx,
			Kind:      Raise,
			Chips:     chips,
			To:        act.Amount,
			Reopens:   act.Amount-highBet >= s.MinRaise,
		}
		if chips == p.Stack {
			va.Kind = AllIn
		}
		return va, nil

	case AllIn:
		if p.Stack == 0 {
			return ValidatedAction{}, actionErr(ErrIllegalAction, playerIdx, "no chips to go all-in with")
		}
		to := p.CurrentBet + p.Stack
		return ValidatedAction{
			PlayerIdx: playerIdx,
			Kind:      AllIn,
			Chips:     p.Stack,
			To:        to,
			Reopens:   to-highBet >= s.MinRaise,
		}, nil

	default:
		return ValidatedAction{}, actionErr(ErrIllegalAction, playerIdx, "unknown action kind %d", act.Kind)
	}
}

// ApplyAction returns a new snapshot with the validated action applied: the
// actor's stack, bets, contribution, and status flags updated and the pot
// credited. The input snapshot is never modified. ApplyAction does not move
// the turn or transition phase; see AdvanceTurn and Machine.
func ApplyAction(s GameState, va ValidatedAction) (GameState, error) {
	if va.PlayerIdx < 0 || va.PlayerIdx >= len(s.Players) {
		return GameState{}, invariantErr("validated action for unknown seat %d", va.PlayerIdx)
	}

	out := s.Clone()
	p := &out.Players[va.PlayerIdx]
	highBefore := s.HighBet()

	switch va.Kind {
	case Fold:
		p.Folded = true

	case Check:
		// No chips move.

	case Call, Raise, AllIn:
		if va.Chips > p.Stack {
			return GameState{}, invariantErr("action moves %d chips but %q has %d", va.Chips, p.Name, p.Stack)
		}
		p.Stack -= va.Chips
		p.CurrentBet += va.Chips
		p.TotalContributed += va.Chips
		out.Pot[p.Name] += va.Chips
		if p.Stack == 0 {
			p.AllIn = true
		}

	default:
		return GameState{}, invariantErr("unknown validated action kind %d", va.Kind)
	}

	p.HasActed = true

	// A full raise reopens the action: everyone else must act again.
	if p.CurrentBet > highBefore {
		out.MinRaise = p.CurrentBet - highBefore
		if va.Reopens {
			for i := range out.Players {
				if i != va.PlayerIdx && out.Players[i].Active() {
					out.Players[i].HasActed = false
				}
			}
		}
	}

	// Pot conservation must hold after every apply. The cursor invariant is
	// checked by the machine once the turn has moved on.
	contributed := 0
	for _, pl := range out.Players {
		contributed += pl.TotalContributed
	}
	if contributed != out.PotTotal() {
		return GameState{}, invariantErr("pot total %d does not match contributions %d after %s", out.PotTotal(), contributed, va.Kind)
	}
	return out, nil
}

// AdvanceTurn returns a new snapshot with CurrentPlayerIdx moved to the next
// active player in seat order after the current one, wrapping around. If no
// active player exists this fails loudly with an InvariantError; it never
// silently falls back to an inactive seat.
func AdvanceTurn(s GameState) (GameState, error) {
	if s.CurrentPlayerIdx == NoCurrentPlayer {
		return GameState{}, invariantErr("cannot advance turn, no current player")
	}
	next := s.nextActiveFrom((s.CurrentPlayerIdx + 1) % len(s.Players))
	if next == NoCurrentPlayer {
		return GameState{}, invariantErr("no active player to advance to")
	}
	out := s.Clone()
	out.CurrentPlayerIdx = next
	return out, nil
}

// IsBettingRoundComplete reports whether every non-folded, non-all-in player
// has acted this round and matched the high bet. It is a pure predicate
// derived entirely from player state; nothing is stored that could desync.
func IsBettingRoundComplete(s GameState) bool {
	high := s.HighBet()
	for _, p := range s.Players {
		if !p.Active() {
			continue
		}
		if !p.HasActed || p.CurrentBet != high {
			return false
		}
	}
	return true
}

// LegalAction describes one action available to the current actor, with the
// valid amount range for raises.
type LegalAction struct {
	Kind ActionKind
	Min  int // minimum raise-to amount (Raise only)
	Max  int // maximum raise-to amount (Raise only)
}

// LegalActions returns the actions available to the current actor, or nil if
// no action is pending. Used to build the public view handed to decision
// providers.
func LegalActions(s GameState) []LegalAction {
	if !s.Phase.IsBetting() || s.CurrentPlayerIdx == NoCurrentPlayer {
		return nil
	}
	p := s.Players[s.CurrentPlayerIdx]
	if !p.Active() {
		return nil
	}

	high := s.HighBet()
	toCall := high - p.CurrentBet
	maxTo := p.CurrentBet + p.Stack

	actions := []LegalAction{{Kind: Fold}}
	if toCall == 0 {
		actions = append(actions, LegalAction{Kind: Check})
	} else if p.Stack > 0 {
		actions = append(actions, LegalAction{Kind: Call})
	}
	if minTo := high + s.MinRaise; maxTo > high {
		if maxTo >= minTo {
			actions = append(actions, LegalAction{Kind: Raise, Min: minTo, Max: maxTo})
		}
	}
	if p.Stack > 0 {
		actions = append(actions, LegalAction{Kind: AllIn})
	}
	return actions
}
