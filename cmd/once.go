package main

import (
	"context"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single poll cycle and exit",
	Args:  cobra.NoArgs,
	RunE:  once,
}

func once(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	poller, sinks, cleanup, err := buildPoller(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := poller.Cycle(context.Background())
	if err != nil {
		return err
	}

	sinks.Render(snap)
	return nil
}
