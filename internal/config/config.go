// Package config loads table and player configuration from HCL files.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete simulator configuration.
type Config struct {
	Table   TableSettings  `hcl:"table,block"`
	Players []PlayerConfig `hcl:"player,block"`
	Storage StorageConfig  `hcl:"storage,block"`
}

// TableSettings contains table-level configuration.
type TableSettings struct {
	SmallBlind    int    `hcl:"small_blind,optional"`
	BigBlind      int    `hcl:"big_blind,optional"`
	StartingStack int    `hcl:"starting_stack,optional"`
	MaxHands      int    `hcl:"max_hands,optional"`
	LogLevel      string `hcl:"log_level,optional"`
}

// PlayerConfig defines one seat at the table.
type PlayerConfig struct {
	Name       string             `hcl:"name,label"`
	Human      bool               `hcl:"human,optional"`
	Stack      int                `hcl:"stack,optional"`
	Persona    string             `hcl:"persona,optional"`
	Traits     map[string]float64 `hcl:"traits,optional"`
	TimeoutSec int                `hcl:"timeout_sec,optional"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	Path string `hcl:"path,optional"`
}

// Default returns the default configuration: a heads-up 10/20 game with
// one human seat and one AI seat.
func Default() *Config {
	return &Config{
		Table: TableSettings{
			SmallBlind:    10,
			BigBlind:      20,
			StartingStack: 1000,
			LogLevel:      "info",
		},
		Players: []PlayerConfig{
			{Name: "you", Human: true, Stack: 1000},
			{Name: "dealer-dan", Stack: 1000, Persona: "tight", TimeoutSec: 30},
		},
		Storage: StorageConfig{Path: "holdem.sqlite"},
	}
}

// Load reads configuration from an HCL file, falling back to Default when
// the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Table.SmallBlind == 0 {
		c.Table.SmallBlind = 10
	}
	if c.Table.BigBlind == 0 {
		c.Table.BigBlind = c.Table.SmallBlind * 2
	}
	if c.Table.StartingStack == 0 {
		c.Table.StartingStack = c.Table.BigBlind * 50
	}
	if c.Table.LogLevel == "" {
		c.Table.LogLevel = "info"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "holdem.sqlite"
	}
	for i := range c.Players {
		if c.Players[i].Stack == 0 {
			c.Players[i].Stack = c.Table.StartingStack
		}
		if !c.Players[i].Human && c.Players[i].TimeoutSec == 0 {
			c.Players[i].TimeoutSec = 30
		}
	}
}

// Validate checks the configuration for mistakes a typo would produce.
func (c *Config) Validate() error {
	if c.Table.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Table.BigBlind <= c.Table.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if len(c.Players) < 2 || len(c.Players) > 9 {
		return fmt.Errorf("player count must be between 2 and 9, got %d", len(c.Players))
	}

	seen := map[string]bool{}
	for _, p := range c.Players {
		if p.Name == "" {
			return fmt.Errorf("every player needs a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate player name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Stack <= 0 {
			return fmt.Errorf("player %s: stack must be positive", p.Name)
		}
		if p.Stack < c.Table.BigBlind {
			return fmt.Errorf("player %s: stack %d cannot cover the big blind %d", p.Name, p.Stack, c.Table.BigBlind)
		}
		for trait, v := range p.Traits {
			if v < 0 || v > 1 {
				return fmt.Errorf("player %s: trait %s must be in [0,1], got %v", p.Name, trait, v)
			}
		}
	}
	return nil
}
