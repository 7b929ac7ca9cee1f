package ai

import (
	"context"
	"fmt"

	"github.com/thoas/go-funk"

	"github.com/parlormind/holdem/internal/engine"
)

// RuleBot is a deterministic DecisionProvider driven by the player's traits.
// It stands in for the language model during simulations and tests: same
// view, same traits, same decision.
type RuleBot struct {
	state *State
}

// NewRuleBot wraps the player's satellite state. The bot reads traits but
// never mutates them; drift stays with the personality layer.
func NewRuleBot(state *State) *RuleBot {
	return &RuleBot{state: state}
}

// Decide implements DecisionProvider. Aggression above 0.7 raises when
// possible, a pot-odds check gates calls, and everything else checks or
// folds.
func (b *RuleBot) Decide(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if len(legal) == 0 {
		return Decision{}, fmt.Errorf("ai: no legal actions for seat %d", view.YourSeat)
	}

	can := func(kind engine.ActionKind) bool {
		return funk.Contains(legal, func(l engine.LegalAction) bool { return l.Kind == kind })
	}
	aggression := b.state.Traits["aggression"]

	if aggression > 0.7 && can(engine.Raise) {
		raise := funk.Find(legal, func(l engine.LegalAction) bool { return l.Kind == engine.Raise }).(engine.LegalAction)
		return Decision{
			Action:    engine.Action{Kind: engine.Raise, Amount: raise.Min},
			Reasoning: "aggressive persona raises the minimum",
		}, nil
	}

	if view.CostToCall == 0 {
		if can(engine.Check) {
			return Decision{Action: engine.Action{Kind: engine.Check}, Reasoning: "free card"}, nil
		}
		return Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "nothing else available"}, nil
	}

	// Call when the price is small relative to the pot, scaled by patience:
	// a patient player wants better odds.
	patience := b.state.Traits["patience"]
	threshold := view.PotTotal / 2
	if patience > 0.5 {
		threshold = view.PotTotal / 4
	}
	if can(engine.Call) && view.CostToCall <= threshold {
		return Decision{
			Action:    engine.Action{Kind: engine.Call},
			Reasoning: fmt.Sprintf("calling %d into a pot of %d", view.CostToCall, view.PotTotal),
		}, nil
	}
	return Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "price too high"}, nil
}
