package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the game server"`
	Play    PlayCmd          `cmd:"" help:"Play a game against a server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("roletrando"),
		kong.Description("Roulette-driven word guessing game, server and console client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
