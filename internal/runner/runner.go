// Package runner drives one game session end to end: it asks decision
// providers for actions, pushes them through the engine, and persists the
// game and its AI satellite state after every transition. All engine access
// for a game goes through the runner's mutex, so concurrent callers see a
// serialized validate, apply, save sequence.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/parlormind/holdem/internal/ai"
	"github.com/parlormind/holdem/internal/config"
	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/internal/store"
)

// Options configures a Runner. Store may be nil for ephemeral games;
// everything else has working zero-value defaults.
type Options struct {
	Store           *store.Store
	Logger          *log.Logger
	Clock           quartz.Clock
	DecisionTimeout time.Duration
	// GameID pins the session to an existing stored game. Empty means a
	// fresh game with a generated ID.
	GameID string
}

// DefaultDecisionTimeout bounds how long a provider may think before the
// runner folds for it.
const DefaultDecisionTimeout = 30 * time.Second

// Runner owns one game session.
type Runner struct {
	mu        sync.Mutex
	gameID    string
	machine   *engine.Machine
	providers map[string]ai.DecisionProvider
	aiStates  map[string]*ai.State

	st      *store.Store
	logger  *log.Logger
	clock   quartz.Clock
	timeout time.Duration
}

// New builds a fresh session from the configuration. Seats are placed in
// config order; AI seats get an empty satellite aggregate seeded with the
// configured traits.
func New(cfg *config.Config, eval engine.HandEvaluator, providers map[string]ai.DecisionProvider, opts Options) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	seats := make([]engine.Seat, len(cfg.Players))
	for i, p := range cfg.Players {
		seats[i] = engine.Seat{Name: p.Name, Stack: p.Stack, Human: p.Human}
	}
	m, err := engine.NewMachine(engine.Config{
		Seats:      seats,
		SmallBlind: cfg.Table.SmallBlind,
		BigBlind:   cfg.Table.BigBlind,
	}, eval)
	if err != nil {
		return nil, err
	}

	r := newRunner(m, providers, opts)
	for _, p := range cfg.Players {
		if p.Human {
			continue
		}
		r.aiStates[p.Name] = ai.NewState(p.Name, ai.Traits(p.Traits))
	}
	return r, nil
}

// Resume rebuilds the session for a stored game, including each AI player's
// satellite state.
func Resume(gameID string, eval engine.HandEvaluator, providers map[string]ai.DecisionProvider, opts Options) (*Runner, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("runner: resume requires a store")
	}
	m, err := opts.Store.Games().Load(gameID, eval)
	if err != nil {
		return nil, err
	}
	states, err := opts.Store.AIStates().LoadAll(gameID)
	if err != nil {
		return nil, err
	}

	opts.GameID = gameID
	r := newRunner(m, providers, opts)
	r.aiStates = states
	return r, nil
}

func newRunner(m *engine.Machine, providers map[string]ai.DecisionProvider, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.DecisionTimeout == 0 {
		opts.DecisionTimeout = DefaultDecisionTimeout
	}
	if opts.GameID == "" {
		opts.GameID = uuid.NewString()
	}
	if providers == nil {
		providers = map[string]ai.DecisionProvider{}
	}
	return &Runner{
		gameID:    opts.GameID,
		machine:   m,
		providers: providers,
		aiStates:  map[string]*ai.State{},
		st:        opts.Store,
		logger:    opts.Logger.With("game_id", opts.GameID),
		clock:     opts.Clock,
		timeout:   opts.DecisionTimeout,
	}
}

// GameID returns the session's identifier.
func (r *Runner) GameID() string { return r.gameID }

// State returns the current snapshot.
func (r *Runner) State() engine.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.State()
}

// Phase returns the current phase.
func (r *Runner) Phase() engine.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Phase()
}

// SetProvider attaches a decision provider for the named seat. Providers
// built around the runner's own AI aggregates attach here after New or
// Resume.
func (r *Runner) SetProvider(name string, p ai.DecisionProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// AIState returns the satellite aggregate for an AI player, or nil for a
// human or unknown seat.
func (r *Runner) AIState(name string) *ai.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aiStates[name]
}

// StartHand deals a new hand without driving any AI seats, for sessions
// where a human acts first through Submit.
func (r *Runner) StartHand(seed int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.machine.StartHand(seed); err != nil {
		return err
	}
	return r.persistLocked()
}

// Submit pushes an externally chosen action (a human's) through the
// validated path and persists the result. Invalid actions leave the game
// untouched and are returned to the caller.
func (r *Runner) Submit(playerIdx int, act engine.Action) (engine.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.machine.Apply(playerIdx, act)
	if err != nil {
		return engine.GameState{}, err
	}
	if err := r.persistLocked(); err != nil {
		return engine.GameState{}, err
	}
	return state, nil
}

// PlayHand plays one complete hand with the given deck seed, driving every
// AI seat through its provider. It returns once the hand is settled, or a
// nil result when the game is over and no hand can be dealt. A hand that
// was restored mid-flight is finished with its saved deck before any new
// deal, so the seed only applies when a fresh hand starts. A seat without a
// provider (a human, or a misconfigured bot) is folded when its turn comes;
// humans are expected to play through Submit before calling PlayHand for
// bot-only games.
func (r *Runner) PlayHand(ctx context.Context, seed int64) (*engine.HandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch phase := r.machine.Phase(); {
	case phase == engine.GameOver:
		return nil, nil
	case phase.IsBetting():
		r.logger.Info("finishing restored hand", "hand", r.machine.State().HandNumber)
	default:
		if err := r.machine.StartHand(seed); err != nil {
			return nil, err
		}
		if err := r.persistLocked(); err != nil {
			return nil, err
		}
		if r.machine.Phase() == engine.GameOver {
			r.logger.Info("fewer than two funded seats, game over")
			return nil, nil
		}
		r.logger.Info("hand started", "hand", r.machine.State().HandNumber, "seed", seed)
	}

	// The seed recorded with the hand is the one its deck was shuffled
	// from, which differs from the argument for a restored hand.
	handSeed := r.machine.State().HandSeed

	for r.machine.Phase().IsBetting() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := r.machine.State()
		actor := state.CurrentPlayerIdx
		if actor == engine.NoCurrentPlayer {
			return nil, fmt.Errorf("runner: betting phase %s with no actor", state.Phase)
		}

		decision := r.decide(ctx, state, actor)
		if _, err := r.machine.Apply(actor, decision.Action); err != nil {
			// The provider returned an action the engine rejects. Fold
			// rather than abandoning the table mid-hand.
			r.logger.Warn("provider action rejected, folding",
				"player", state.Players[actor].Name, "action", decision.Action.Kind, "err", err)
			decision = ai.Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "rejected: " + err.Error()}
			if _, err := r.machine.Apply(actor, decision.Action); err != nil {
				return nil, err
			}
		}
		r.recordDecision(state, actor, decision)
		if err := r.persistLocked(); err != nil {
			return nil, err
		}
	}

	result := r.machine.LastResult()
	if result != nil && r.st != nil {
		if err := r.st.HandHistory().Append(r.gameID, handSeed, result); err != nil {
			return nil, err
		}
	}
	if result != nil {
		r.logger.Info("hand settled", "hand", result.HandNumber,
			"won_by_fold", result.WonByFold, "payouts", result.Payouts)
	}
	return result, nil
}

// decide asks the actor's provider for an action under the decision
// timeout. Any failure resolves to a fold: check would also be safe when
// legal, but a provider that cannot answer should not get free cards.
func (r *Runner) decide(ctx context.Context, state engine.GameState, actor int) ai.Decision {
	name := state.Players[actor].Name
	provider, ok := r.providers[name]
	if !ok {
		r.logger.Warn("no provider for seat, folding", "player", name)
		return ai.Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "no decision provider"}
	}

	legal := engine.LegalActions(state)
	view := engine.ViewFor(state, actor)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	decision, err := provider.Decide(ctx, view, legal)
	if err != nil {
		r.logger.Warn("provider failed, folding", "player", name, "err", err)
		return ai.Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "provider error: " + err.Error()}
	}

	if !funk.Contains(legal, func(l engine.LegalAction) bool { return l.Kind == decision.Action.Kind }) {
		r.logger.Warn("provider chose illegal action kind, folding",
			"player", name, "action", decision.Action.Kind)
		return ai.Decision{Action: engine.Action{Kind: engine.Fold}, Reasoning: "illegal action kind"}
	}
	return decision
}

// recordDecision appends the decision to the actor's satellite aggregate.
func (r *Runner) recordDecision(state engine.GameState, actor int, decision ai.Decision) {
	aiState, ok := r.aiStates[state.Players[actor].Name]
	if !ok {
		return
	}
	aiState.RecordDecision(ai.DecisionRecord{
		HandNumber: state.HandNumber,
		Phase:      state.Phase.String(),
		Action:     decision.Action.Kind.String(),
		Amount:     decision.Action.Amount,
		Reasoning:  decision.Reasoning,
		DecidedAt:  r.clock.Now().UTC(),
	})
}

// persistLocked writes the game and every AI aggregate. Callers hold r.mu.
func (r *Runner) persistLocked() error {
	if r.st == nil {
		return nil
	}
	if err := r.st.Games().Save(r.gameID, r.machine); err != nil {
		return err
	}
	for _, s := range r.aiStates {
		if err := r.st.AIStates().Save(r.gameID, s); err != nil {
			return err
		}
	}
	return nil
}

// PlaySession plays hands until one player holds all the chips or maxHands
// is reached (zero means no limit). Seeds derive from baseSeed plus the
// hand number so a session is reproducible from a single seed.
func (r *Runner) PlaySession(ctx context.Context, baseSeed int64, maxHands int) error {
	for hand := 1; maxHands == 0 || hand <= maxHands; hand++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := r.PlayHand(ctx, baseSeed+int64(hand))
		if err != nil {
			return err
		}
		if result == nil {
			r.logger.Info("game over", "hands_played", r.State().HandNumber)
			return nil
		}
	}
	return nil
}
