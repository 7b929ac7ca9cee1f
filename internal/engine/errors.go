package engine

import "fmt"

// ActionErrorKind classifies why an action was rejected. Validation errors
// are always recoverable: the state is untouched and the caller may submit a
// corrected action.
type ActionErrorKind int

const (
	// ErrNotYourTurn: the action was submitted by or for a player who is not
	// the current actor.
	ErrNotYourTurn ActionErrorKind = iota + 1
	// ErrWrongPhase: the game is not in a betting phase.
	ErrWrongPhase
	// ErrInvalidAmount: the amount is negative, below the minimum raise, or
	// above what the player can commit.
	ErrInvalidAmount
	// ErrIllegalAction: the action kind is not legal right now (checking a
	// bet, calling nothing, going all-in with no chips).
	ErrIllegalAction
)

func (k ActionErrorKind) String() string {
	switch k {
	case ErrNotYourTurn:
		return "not_your_turn"
	case ErrWrongPhase:
		return "wrong_phase"
	case ErrInvalidAmount:
		return "invalid_amount"
	case ErrIllegalAction:
		return "illegal_action"
	default:
		return "unknown"
	}
}

// ActionError reports a rejected action. It is returned before any state
// mutation; callers can match the Kind to produce distinct user-facing
// messages.
type ActionError struct {
	Kind      ActionErrorKind
	PlayerIdx int
	Reason    string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("engine: %s (player %d): %s", e.Kind, e.PlayerIdx, e.Reason)
}

// Is lets errors.Is match against a bare kind wrapper, e.g.
// errors.Is(err, &ActionError{Kind: ErrNotYourTurn}).
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func actionErr(kind ActionErrorKind, playerIdx int, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, PlayerIdx: playerIdx, Reason: fmt.Sprintf(format, args...)}
}

// InvariantError reports a violated engine invariant: no active player found
// when one is required, pot totals out of balance, duplicate player names.
// These are fatal to the current operation and never silently patched.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "engine: invariant violation: " + e.Reason
}

func invariantErr(format string, args ...any) *InvariantError {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
