package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"holdem.hcl" help:"Path to HCL configuration file"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`

	Run     RunCmd     `cmd:"" help:"Simulate games between AI players"`
	Resume  ResumeCmd  `cmd:"" help:"Resume a stored game"`
	List    ListCmd    `cmd:"" help:"List stored games"`
	Show    ShowCmd    `cmd:"" help:"Show the current state of a stored game"`
	History HistoryCmd `cmd:"" help:"Show the hand history of a stored game"`
	Replay  ReplayCmd  `cmd:"" help:"Verify a recorded hand against its deck seed"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-sim"),
		kong.Description("Texas hold'em engine with persistent AI opponents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger := log.New(os.Stderr)
	if cli.LogLevel != "" {
		if level, err := log.ParseLevel(cli.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}

	err := ctx.Run(&cli, logger)
	ctx.FatalIfErrorf(err)
}
