package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subwaysign/commute"
	"github.com/subwaysign/commute/config"
	"github.com/subwaysign/commute/feed"
	"github.com/subwaysign/commute/metrics"
	"github.com/subwaysign/commute/sink"
	"github.com/subwaysign/commute/traveltime"
)

var rootCmd = &cobra.Command{
	Use:          "commute",
	Short:        "Fastest train to work",
	Long:         "Polls realtime transit feeds and ranks configured routes by door-to-door commute time",
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(arrivalsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func buildFetcher(cfg *config.Config) feed.Fetcher {
	baseURL := cfg.FeedBaseURL
	if baseURL == "" {
		baseURL = feed.DefaultBaseURL
	}
	f := feed.NewHTTPFetcher(baseURL, cfg.FeedHeaders())
	f.Timeout = cfg.FetchTimeout()

	if cfg.FeedCacheTTLSeconds > 0 {
		return feed.NewCachingFetcher(f, cfg.FeedCacheTTL())
	}
	return f
}

func buildEstimator(cfg *config.Config) (traveltime.Estimator, error) {
	switch cfg.TransitEstimate {
	case "fixed":
		return traveltime.Fixed{}, nil
	case "table":
		table, err := traveltime.LoadTableFile(cfg.TravelTable)
		if err != nil {
			return nil, err
		}
		return traveltime.Chain{table, traveltime.Fixed{}}, nil
	default:
		return traveltime.Chain{traveltime.Feed{}, traveltime.Fixed{}}, nil
	}
}

// buildPoller assembles the engine from config. The returned cleanup
// closes any sinks and servers.
func buildPoller(cfg *config.Config) (*commute.Poller, sink.Multi, func(), error) {
	estimator, err := buildEstimator(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanups := []func(){}
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	sinks := sink.Multi{
		&sink.Console{
			Out:               os.Stdout,
			MaxArrivalMinutes: cfg.MaxArrivalMinutes,
			UseColor:          true,
		},
	}
	if cfg.NATSURL != "" {
		n, err := sink.NewNATS(cfg.NATSURL, "")
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, n.Close)
		sinks = append(sinks, n)
	}

	poller := commute.NewPoller(cfg.Routes, buildFetcher(cfg), estimator, sinks)
	poller.Interval = cfg.PollInterval()
	poller.Staleness = cfg.StalenessThreshold()

	if cfg.MetricsAddr != "" {
		col := metrics.NewCollector()
		srv := col.Serve(cfg.MetricsAddr)
		cleanups = append(cleanups, func() { _ = srv.Close() })
		poller.Metrics = col
	}

	return poller, sinks, cleanup, nil
}
