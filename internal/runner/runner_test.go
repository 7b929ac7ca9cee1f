package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlormind/holdem/internal/ai"
	"github.com/parlormind/holdem/internal/config"
	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/internal/evaluator"
	"github.com/parlormind/holdem/internal/store"
	"github.com/parlormind/holdem/poker"
)

func testEvaluator() engine.HandEvaluator {
	return engine.EvaluatorFunc(evaluator.Evaluate)
}

// callingStation checks when free and calls any price.
func callingStation() ai.DecisionProvider {
	return ai.ProviderFunc(func(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (ai.Decision, error) {
		if view.CostToCall == 0 {
			return ai.Decision{Action: engine.Action{Kind: engine.Check}, Reasoning: "free"}, nil
		}
		return ai.Decision{Action: engine.Action{Kind: engine.Call}, Reasoning: "station"}, nil
	})
}

func botConfig() *config.Config {
	return &config.Config{
		Table: config.TableSettings{SmallBlind: 10, BigBlind: 20, StartingStack: 1000, LogLevel: "info"},
		Players: []config.PlayerConfig{
			{Name: "alice", Stack: 1000},
			{Name: "bob", Stack: 1000},
		},
		Storage: config.StorageConfig{Path: "unused"},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "holdem.sqlite"),
		store.Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quietOptions(s *store.Store) Options {
	return Options{Store: s, Logger: log.New(io.Discard)}
}

func TestPlayHandCheckedDown(t *testing.T) {
	s := newTestStore(t)
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.HandNumber)
	assert.False(t, result.WonByFold)
	assert.Len(t, result.Board, 5)

	total := 0
	for _, won := range result.Payouts {
		total += won
	}
	assert.Equal(t, 40, total, "both players put in one big blind")

	state := r.State()
	assert.Equal(t, engine.Showdown, state.Phase)
	assert.Equal(t, 2000, state.Players[0].Stack+state.Players[1].Stack, "chips conserved")
}

func TestPlayHandPersistsEverything(t *testing.T) {
	s := newTestStore(t)
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)

	_, err = r.PlayHand(context.Background(), 42)
	require.NoError(t, err)

	loaded, err := s.Games().Load(r.GameID(), testEvaluator())
	require.NoError(t, err)
	assert.Equal(t, r.State(), loaded.State())

	records, err := s.HandHistory().List(r.GameID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].Seed)

	// Checked down heads-up: one pre-flop action each, then one per street.
	bobState, err := s.AIStates().Load(r.GameID(), "bob")
	require.NoError(t, err)
	assert.Len(t, bobState.Decisions, 4)
	assert.Equal(t, "check", bobState.Decisions[1].Action)
}

func TestProviderErrorFolds(t *testing.T) {
	broken := ai.ProviderFunc(func(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (ai.Decision, error) {
		return ai.Decision{}, fmt.Errorf("model unavailable")
	})
	providers := map[string]ai.DecisionProvider{
		"alice": broken,
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Alice is the button and acts first heads-up pre-flop; her provider
	// fails, so she folds and bob collects the blinds.
	assert.True(t, result.WonByFold)
	assert.Equal(t, map[string]int{"bob": 30}, result.Payouts)
	assert.Equal(t, 990, r.State().Players[0].Stack)

	folded := r.AIState("alice")
	require.NotNil(t, folded)
	require.Len(t, folded.Decisions, 1)
	assert.Equal(t, "fold", folded.Decisions[0].Action)
	assert.Contains(t, folded.Decisions[0].Reasoning, "provider error")
}

func TestIllegalProviderActionFolds(t *testing.T) {
	// Checking when facing a bet is never legal; the runner must not let
	// the engine reject its way into a stuck hand.
	alwaysCheck := ai.ProviderFunc(func(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (ai.Decision, error) {
		return ai.Decision{Action: engine.Action{Kind: engine.Check}}, nil
	})
	providers := map[string]ai.DecisionProvider{
		"alice": alwaysCheck,
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, result.WonByFold)
	assert.Equal(t, map[string]int{"bob": 30}, result.Payouts)
}

func TestProviderTimeoutFolds(t *testing.T) {
	slow := ai.ProviderFunc(func(ctx context.Context, view engine.PlayerView, legal []engine.LegalAction) (ai.Decision, error) {
		<-ctx.Done()
		return ai.Decision{}, ctx.Err()
	})
	providers := map[string]ai.DecisionProvider{
		"alice": slow,
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers,
		Options{Logger: log.New(io.Discard), DecisionTimeout: time.Millisecond})
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, result.WonByFold, "a provider that cannot answer in time folds")
	assert.Equal(t, map[string]int{"bob": 30}, result.Payouts)
}

func TestMissingProviderFolds(t *testing.T) {
	providers := map[string]ai.DecisionProvider{
		"bob": callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, result.WonByFold)
}

func TestResumeContinuesSession(t *testing.T) {
	s := newTestStore(t)
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r1, err := New(botConfig(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)
	_, err = r1.PlayHand(context.Background(), 42)
	require.NoError(t, err)

	r2, err := Resume(r1.GameID(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)
	assert.Equal(t, r1.State(), r2.State())
	require.NotNil(t, r2.AIState("bob"))
	assert.Len(t, r2.AIState("bob").Decisions, 4)

	// The resumed session keeps playing: next hand rotates the button.
	result, err := r2.PlayHand(context.Background(), 43)
	require.NoError(t, err)
	assert.Equal(t, 2, result.HandNumber)
	assert.Equal(t, 1, r2.State().DealerIdx)
}

func TestResumeMidHandFinishesHand(t *testing.T) {
	s := newTestStore(t)
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r1, err := New(botConfig(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)

	// Save with a hand in flight, pre-flop action pending.
	require.NoError(t, r1.StartHand(42))
	require.True(t, r1.Phase().IsBetting())

	r2, err := Resume(r1.GameID(), testEvaluator(), providers, quietOptions(s))
	require.NoError(t, err)

	// PlayHand finishes the restored hand with its saved deck; the new
	// seed is not consumed.
	result, err := r2.PlayHand(context.Background(), 999)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.HandNumber)
	assert.False(t, result.WonByFold)

	records, err := s.HandHistory().List(r2.GameID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].Seed, "the recorded seed is the one the deck was shuffled from")
}

func TestBustedGameRecordsSingleHand(t *testing.T) {
	s := newTestStore(t)

	// Showdown hands are evaluated in seat order; ranking by call order
	// makes alice win deterministically, busting bob's all-in big blind.
	calls := 0
	firstSeatWins := engine.EvaluatorFunc(func(cards []poker.Card) (evaluator.HandRank, error) {
		calls++
		return evaluator.HandRank(1000 - calls), nil
	})

	cfg := botConfig()
	cfg.Players[1].Stack = 20
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r, err := New(cfg, firstSeatWins, providers, quietOptions(s))
	require.NoError(t, err)

	result, err := r.PlayHand(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, r.State().Players[1].Stack, "bob is felted")

	// The next call finds one funded seat, ends the game, and must not
	// report or re-record the previous hand.
	result, err = r.PlayHand(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, engine.GameOver, r.Phase())

	records, err := s.HandHistory().List(r.GameID())
	require.NoError(t, err)
	require.Len(t, records, 1, "one history row per completed hand")
	assert.Equal(t, int64(1), records[0].Seed)
}

func TestResumeUnknownGame(t *testing.T) {
	s := newTestStore(t)
	_, err := Resume("nope", testEvaluator(), nil, quietOptions(s))
	assert.ErrorIs(t, err, store.ErrGameNotFound)
}

func TestPlaySessionStopsAtMaxHands(t *testing.T) {
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)

	require.NoError(t, r.PlaySession(context.Background(), 1000, 3))

	state := r.State()
	assert.Equal(t, 3, state.HandNumber)
	assert.Equal(t, 2000, state.Players[0].Stack+state.Players[1].Stack)
}

func TestPlaySessionHonorsContext(t *testing.T) {
	providers := map[string]ai.DecisionProvider{
		"alice": callingStation(),
		"bob":   callingStation(),
	}
	r, err := New(botConfig(), testEvaluator(), providers, Options{Logger: log.New(io.Discard)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, r.PlaySession(ctx, 1000, 0))
}

func TestSubmitHumanAction(t *testing.T) {
	s := newTestStore(t)
	cfg := botConfig()
	cfg.Players[0].Human = true
	r, err := New(cfg, testEvaluator(), map[string]ai.DecisionProvider{"bob": callingStation()}, quietOptions(s))
	require.NoError(t, err)

	// Start the hand directly; the human then acts through Submit.
	require.NoError(t, r.StartHand(42))

	state, err := r.Submit(0, engine.Action{Kind: engine.Fold})
	require.NoError(t, err)
	assert.Equal(t, engine.HandOver, state.Phase)

	// An invalid submission surfaces the typed error and changes nothing.
	_, err = r.Submit(0, engine.Action{Kind: engine.Check})
	var actionErr *engine.ActionError
	assert.ErrorAs(t, err, &actionErr)
}
