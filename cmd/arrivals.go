package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/subwaysign/commute"
	"github.com/subwaysign/commute/parse"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <stop_id>",
	Short: "List upcoming arrivals at a stop (debugging aid)",
	Args:  cobra.ExactArgs(1),
	RunE:  arrivals,
}

var arrivalsFeedID string

func init() {
	arrivalsCmd.Flags().StringVarP(&arrivalsFeedID, "feed", "f", "", "Feed id to fetch")
	_ = arrivalsCmd.MarkFlagRequired("feed")
}

func arrivals(cmd *cobra.Command, args []string) error {
	stopID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload, err := buildFetcher(cfg).Fetch(context.Background(), arrivalsFeedID)
	if err != nil {
		return err
	}

	rt, err := parse.ParseFeed(arrivalsFeedID, payload)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, arr := range commute.Extract(rt.Records, stopID, now) {
		fmt.Printf("%s  %s  in %s\n",
			arr.Time.Local().Format("15:04:05"),
			arr.TripID,
			arr.Time.Sub(now).Round(time.Second),
		)
	}

	return nil
}
