package main

import (
	"fmt"
	"os"

	"github.com/allenhichard/roletrando/cmd/roletrando/shared"
	"github.com/allenhichard/roletrando/internal/client"
)

// PlayCmd connects to a server and runs the console game.
type PlayCmd struct {
	URL   string `kong:"default='http://localhost:7373',help='Server URL'"`
	Name  string `kong:"help='Player name, prompted for when empty'"`
	Debug bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	level := "warn"
	if c.Debug {
		level = "debug"
	}
	logger := shared.SetupLogger(level)

	cl, err := client.Dial(c.URL, logger)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.URL, err)
	}
	defer cl.Close()

	return client.Play(client.PlayConfig{
		Client:   cl,
		Username: c.Name,
		In:       os.Stdin,
		Out:      os.Stdout,
	})
}
