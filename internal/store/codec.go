package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parlormind/holdem/internal/engine"
	"github.com/parlormind/holdem/poker"
)

// cardField is a Card at the persistence boundary. It always marshals to
// the canonical two-character string, but accepts either that string or a
// structured {"rank": "K", "suit": "h"} object on decode, the two forms
// older clients and the prompt layer produce. Anything else is a
// deserialization error; the codec never guesses.
type cardField struct {
	poker.Card
}

func (c cardField) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Encode())
}

func (c *cardField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		card, err := poker.ParseCard(s)
		if err != nil {
			return err
		}
		c.Card = card
		return nil
	}

	var obj struct {
		Rank *string `json:"rank"`
		Suit *string `json:"suit"`
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj.Rank == nil || obj.Suit == nil {
		return fmt.Errorf("store: card must be a canonical string or a {rank, suit} object, got %s", data)
	}
	card, err := poker.ParseCard(*obj.Rank + *obj.Suit)
	if err != nil {
		return err
	}
	c.Card = card
	return nil
}

func wrapCards(cards []poker.Card) []cardField {
	if cards == nil {
		return nil
	}
	out := make([]cardField, len(cards))
	for i, c := range cards {
		out[i] = cardField{c}
	}
	return out
}

func unwrapCards(fields []cardField) []poker.Card {
	if fields == nil {
		return nil
	}
	out := make([]poker.Card, len(fields))
	for i, f := range fields {
		out[i] = f.Card
	}
	return out
}

// playerRecord is the serialized form of one seat.
type playerRecord struct {
	Name             string      `json:"name"`
	SeatIndex        int         `json:"seat_index"`
	Stack            int         `json:"stack"`
	HoleCards        []cardField `json:"hole_cards,omitempty"`
	CurrentBet       int         `json:"current_bet"`
	TotalContributed int         `json:"total_contributed"`
	Folded           bool        `json:"folded"`
	AllIn            bool        `json:"all_in"`
	HasActed         bool        `json:"has_acted"`
	Human            bool        `json:"human"`
}

// stateRecord is the serialized form of a GameState snapshot. All chip
// amounts are integers end to end; no float coercion happens anywhere in
// the pipeline.
type stateRecord struct {
	Players          []playerRecord `json:"players"`
	CommunityCards   []cardField    `json:"community_cards"`
	Pot              map[string]int `json:"pot"`
	Phase            string         `json:"phase"`
	CurrentPlayerIdx int            `json:"current_player_idx"`
	DealerIdx        int            `json:"dealer_idx"`
	SmallBlind       int            `json:"small_blind"`
	BigBlind         int            `json:"big_blind"`
	MinRaise         int            `json:"min_raise"`
	Deck             []cardField    `json:"deck"`
	HandNumber       int            `json:"hand_number"`
	HandSeed         int64          `json:"hand_seed"`
}

func encodeState(s engine.GameState) ([]byte, error) {
	rec := stateRecord{
		Players:          make([]playerRecord, len(s.Players)),
		CommunityCards:   wrapCards(s.CommunityCards),
		Pot:              s.Pot,
		Phase:            s.Phase.String(),
		CurrentPlayerIdx: s.CurrentPlayerIdx,
		DealerIdx:        s.DealerIdx,
		SmallBlind:       s.SmallBlind,
		BigBlind:         s.BigBlind,
		MinRaise:         s.MinRaise,
		Deck:             wrapCards(s.Deck),
		HandNumber:       s.HandNumber,
		HandSeed:         s.HandSeed,
	}
	for i, p := range s.Players {
		rec.Players[i] = playerRecord{
			Name:             p.Name,
			SeatIndex:        p.SeatIndex,
			Stack:            p.Stack,
			HoleCards:        wrapCards(p.HoleCards),
			CurrentBet:       p.CurrentBet,
			TotalContributed: p.TotalContributed,
			Folded:           p.Folded,
			AllIn:            p.AllIn,
			HasActed:         p.HasActed,
			Human:            p.Human,
		}
	}
	return json.Marshal(rec)
}

func decodeState(payload []byte) (engine.GameState, error) {
	var rec stateRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return engine.GameState{}, err
	}

	phase, err := engine.ParsePhase(rec.Phase)
	if err != nil {
		return engine.GameState{}, err
	}

	// Players are matched by their stable seat index, never by array
	// position alone.
	players := make([]engine.Player, len(rec.Players))
	sort.Slice(rec.Players, func(i, j int) bool { return rec.Players[i].SeatIndex < rec.Players[j].SeatIndex })
	seen := make(map[string]bool, len(rec.Players))
	for i, pr := range rec.Players {
		if pr.SeatIndex != i {
			return engine.GameState{}, fmt.Errorf("store: seat indexes not contiguous: found %d at position %d", pr.SeatIndex, i)
		}
		if pr.Name == "" {
			return engine.GameState{}, fmt.Errorf("store: seat %d has no player name", i)
		}
		if seen[pr.Name] {
			return engine.GameState{}, fmt.Errorf("store: duplicate player name %q", pr.Name)
		}
		seen[pr.Name] = true
		if pr.HoleCards != nil && len(pr.HoleCards) != 2 {
			return engine.GameState{}, fmt.Errorf("store: player %q has %d hole cards", pr.Name, len(pr.HoleCards))
		}
		players[i] = engine.Player{
			Name:             pr.Name,
			SeatIndex:        pr.SeatIndex,
			Stack:            pr.Stack,
			HoleCards:        unwrapCards(pr.HoleCards),
			CurrentBet:       pr.CurrentBet,
			TotalContributed: pr.TotalContributed,
			Folded:           pr.Folded,
			AllIn:            pr.AllIn,
			HasActed:         pr.HasActed,
			Human:            pr.Human,
		}
	}

	pot := rec.Pot
	if pot == nil {
		pot = map[string]int{}
	}

	state := engine.GameState{
		Players:          players,
		CommunityCards:   unwrapCards(rec.CommunityCards),
		Pot:              pot,
		Phase:            phase,
		CurrentPlayerIdx: rec.CurrentPlayerIdx,
		DealerIdx:        rec.DealerIdx,
		SmallBlind:       rec.SmallBlind,
		BigBlind:         rec.BigBlind,
		MinRaise:         rec.MinRaise,
		Deck:             poker.Deck(unwrapCards(rec.Deck)),
		HandNumber:       rec.HandNumber,
		HandSeed:         rec.HandSeed,
	}
	return state, nil
}
