package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/parlormind/holdem/internal/ai"
	"github.com/parlormind/holdem/internal/config"
	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/internal/evaluator"
	"github.com/parlormind/holdem/internal/runner"
	"github.com/parlormind/holdem/internal/store"
	"github.com/parlormind/holdem/poker"
)

func loadConfig(cli *CLI, logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cli.LogLevel == "" {
		if level, err := log.ParseLevel(cfg.Table.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}
	return cfg, nil
}

func openStore(cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	return store.Open(cfg.Storage.Path, store.Options{Logger: logger})
}

func realEvaluator() engine.HandEvaluator {
	return engine.EvaluatorFunc(evaluator.Evaluate)
}

// botProviders builds a rule-bot provider for every AI seat.
func botProviders(cfg *config.Config, r *runner.Runner) map[string]ai.DecisionProvider {
	providers := map[string]ai.DecisionProvider{}
	for _, p := range cfg.Players {
		if p.Human {
			continue
		}
		if state := r.AIState(p.Name); state != nil {
			providers[p.Name] = ai.NewRuleBot(state)
		}
	}
	return providers
}

type RunCmd struct {
	Games int   `default:"1" help:"Number of concurrent games to simulate"`
	Seed  int64 `default:"0" help:"Base deck seed (0 uses the clock)"`
}

func (c *RunCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("starting simulation", "games", c.Games, "seed", seed)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < c.Games; i++ {
		gameSeed := seed + int64(i)*1_000_000
		g.Go(func() error {
			r, err := runner.New(cfg, realEvaluator(), nil, runner.Options{Store: st, Logger: logger})
			if err != nil {
				return err
			}
			// Providers need the runner's AI aggregates, so they attach
			// after construction.
			for name, p := range botProviders(cfg, r) {
				r.SetProvider(name, p)
			}
			if err := r.PlaySession(ctx, gameSeed, cfg.Table.MaxHands); err != nil {
				return fmt.Errorf("game %s: %w", r.GameID(), err)
			}
			printStandings(r.GameID(), r.State())
			return nil
		})
	}
	return g.Wait()
}

type ResumeCmd struct {
	GameID string `arg:"" help:"Game to resume"`
}

func (c *ResumeCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := runner.Resume(c.GameID, realEvaluator(), nil, runner.Options{Store: st, Logger: logger})
	if err != nil {
		return err
	}
	for name, p := range botProviders(cfg, r) {
		r.SetProvider(name, p)
	}

	seed := time.Now().UnixNano()
	if err := r.PlaySession(context.Background(), seed, cfg.Table.MaxHands); err != nil {
		return err
	}
	printStandings(r.GameID(), r.State())
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := st.Games().List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no stored games")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type ShowCmd struct {
	GameID string `arg:"" help:"Game to show"`
}

func (c *ShowCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Games().Load(c.GameID, realEvaluator())
	if err != nil {
		return err
	}
	state := m.State()

	fmt.Printf("game %s\n", c.GameID)
	fmt.Printf("  hand %d, phase %s, pot %d\n", state.HandNumber, state.Phase, state.PotTotal())
	if len(state.CommunityCards) > 0 {
		fmt.Printf("  board: %s\n", formatCards(state.CommunityCards))
	}
	for _, p := range state.Players {
		marker := " "
		if p.SeatIndex == state.DealerIdx {
			marker = "D"
		}
		status := ""
		switch {
		case p.Folded:
			status = " (folded)"
		case p.AllIn:
			status = " (all-in)"
		}
		fmt.Printf("  %s seat %d %-12s stack %6d bet %5d%s\n",
			marker, p.SeatIndex, p.Name, p.Stack, p.CurrentBet, status)
	}
	return nil
}

type HistoryCmd struct {
	GameID string `arg:"" help:"Game whose hands to show"`
}

func (c *HistoryCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.HandHistory().List(c.GameID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no hands recorded")
		return nil
	}
	for _, rec := range records {
		board := "(no board)"
		if len(rec.Board) > 0 {
			board = formatCards(rec.Board)
		}
		outcome := "showdown"
		if rec.WonByFold {
			outcome = "won by fold"
		}
		fmt.Printf("hand %3d  seed %d  pot %6d  %s  %s  payouts %v\n",
			rec.HandNumber, rec.Seed, rec.TotalPot, board, outcome, rec.Payouts)
	}
	return nil
}

type ReplayCmd struct {
	GameID string `arg:"" help:"Game the hand belongs to"`
	Hand   int    `arg:"" help:"Hand number to verify"`
}

// Run rebuilds the deck from the recorded seed and checks that the recorded
// board appears in the reshuffled deck in deal order. A mismatch means the
// stored record and the shuffle disagree, which should never happen.
func (c *ReplayCmd) Run(cli *CLI, logger *log.Logger) error {
	cfg, err := loadConfig(cli, logger)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.HandHistory().List(c.GameID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.HandNumber != c.Hand {
			continue
		}
		if len(rec.Board) == 0 {
			fmt.Printf("hand %d was won pre-flop; nothing to verify\n", c.Hand)
			return nil
		}
		deck := poker.NewDeck(rec.Seed)
		if !isOrderedSubsequence(rec.Board, deck) {
			return fmt.Errorf("hand %d: recorded board %s does not match deck for seed %d",
				c.Hand, formatCards(rec.Board), rec.Seed)
		}
		fmt.Printf("hand %d verified: board %s consistent with seed %d\n",
			c.Hand, formatCards(rec.Board), rec.Seed)
		return nil
	}
	return fmt.Errorf("hand %d not recorded for game %s", c.Hand, c.GameID)
}

// isOrderedSubsequence reports whether want appears in deck in order, not
// necessarily contiguously (hole cards are dealt between board tranches).
func isOrderedSubsequence(want []poker.Card, deck poker.Deck) bool {
	i := 0
	for _, c := range deck {
		if i < len(want) && c == want[i] {
			i++
		}
	}
	return i == len(want)
}

func printStandings(gameID string, state engine.GameState) {
	fmt.Printf("game %s finished after %d hands\n", gameID, state.HandNumber)
	for _, p := range state.Players {
		fmt.Printf("  %-12s %6d chips\n", p.Name, p.Stack)
	}
}

func formatCards(cards []poker.Card) string {
	out := ""
	for i, c := range cards {
		if i > 0 {
			out += " "
		}
		out += c.Encode()
	}
	return out
}
