package ai

import (
	"context"

	"github.com/parlormind/holdem/internal/engine"
)

// Decision is the single (action, amount) pair a provider returns.
type Decision struct {
	Action    engine.Action
	Reasoning string
}

// DecisionProvider chooses an action for the current actor. Implementations
// range from a human behind a websocket to an LLM call; either way the
// engine treats it as an opaque, possibly slow, possibly failing call.
// Implementations must honor ctx cancellation. The caller, never the
// engine, decides what to do when a provider errs or times out, normally
// by submitting a synthetic fold through the ordinary validated path.
type DecisionProvider interface {
	Decide(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (Decision, error)
}

// ProviderFunc adapts a function to DecisionProvider.
type ProviderFunc func(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (Decision, error)

// Decide implements DecisionProvider.
func (f ProviderFunc) Decide(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (Decision, error) {
	return f(ctx, view, legal)
}
