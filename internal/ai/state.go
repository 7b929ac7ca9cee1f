// Package ai holds the satellite state kept per AI-controlled player: the
// conversation fed to the language model, drifting personality traits, the
// derived emotional snapshot, and the per-hand decision log. The engine
// never looks inside this aggregate; it is loaded and saved alongside the
// game by the persistence layer, keyed by (game, player).
package ai

import "time"

// MemoryTurn is one turn of the conversational memory, in the role/content
// shape language model APIs expect.
type MemoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MaxMemoryTurns bounds the conversation retained per player; older turns
// are dropped from the front.
const MaxMemoryTurns = 200

// Traits are numeric personality values in [0,1] that may drift over a
// session, such as aggression, patience, or bluff tendency. The trait names
// are owned by the prompt layer.
type Traits map[string]float64

// Clamp forces every trait into [0,1] after a drift update.
func (t Traits) Clamp() {
	for name, v := range t {
		if v < 0 {
			t[name] = 0
		} else if v > 1 {
			t[name] = 1
		}
	}
}

// Mood is the derived emotional snapshot shown in the UI. It is display
// state: recomputed by the personality layer, persisted so a reload shows
// the same face.
type Mood struct {
	Label      string  `json:"label"`
	Intensity  float64 `json:"intensity"`
	TiltFactor float64 `json:"tilt_factor"`
}

// DecisionRecord logs one decision an AI player made, for analysis and
// replay.
type DecisionRecord struct {
	HandNumber int       `json:"hand_number"`
	Phase      string    `json:"phase"`
	Action     string    `json:"action"`
	Amount     int       `json:"amount"`
	Reasoning  string    `json:"reasoning,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// State is the full satellite aggregate for one AI player in one game.
type State struct {
	PlayerName string           `json:"player_name"`
	Memory     []MemoryTurn     `json:"memory"`
	Traits     Traits           `json:"traits"`
	Mood       Mood             `json:"mood"`
	Decisions  []DecisionRecord `json:"decisions"`
}

// NewState returns an empty aggregate for the named player.
func NewState(playerName string, traits Traits) *State {
	if traits == nil {
		traits = Traits{}
	}
	return &State{
		PlayerName: playerName,
		Traits:     traits,
	}
}

// Remember appends a conversation turn, dropping the oldest turns beyond
// MaxMemoryTurns.
func (s *State) Remember(role, content string) {
	s.Memory = append(s.Memory, MemoryTurn{Role: role, Content: content})
	if excess := len(s.Memory) - MaxMemoryTurns; excess > 0 {
		s.Memory = append([]MemoryTurn(nil), s.Memory[excess:]...)
	}
}

// DriftTrait nudges a trait by delta, clamped to [0,1].
func (s *State) DriftTrait(name string, delta float64) {
	if s.Traits == nil {
		s.Traits = Traits{}
	}
	s.Traits[name] += delta
	s.Traits.Clamp()
}

// RecordDecision appends one decision to the log.
func (s *State) RecordDecision(rec DecisionRecord) {
	s.Decisions = append(s.Decisions, rec)
}
