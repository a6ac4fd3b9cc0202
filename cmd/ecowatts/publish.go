package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/ecowatts/internal/publisher"
)

var (
	publishDays   int
	publishWindow int
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Publish the usage forecast to Home Assistant",
	Long:  `Forecasts daily usage and publishes each forecast day to Home Assistant via HTTP API and/or MQTT.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().IntVar(&publishDays, "days", 0, "Number of days to forecast (default from config, 7)")
	publishCmd.Flags().IntVar(&publishWindow, "window", 0, "Only fit the last N days of history (0 = all)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	// Check if a target is configured
	if !cfg.HomeAssistant.Enabled && !cfg.MQTT.Enabled {
		return fmt.Errorf("neither Home Assistant nor MQTT is enabled in config")
	}

	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	_, res, err := buildForecast(table, publishDays, publishWindow)
	if err != nil {
		return err
	}

	// Create publisher
	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	log.Info().Str("run_id", pub.RunID()).Int("points", len(res.Points)).Msg("publishing forecast")
	published, err := pub.PublishForecast(cmd.Context(), res)
	if err != nil {
		return fmt.Errorf("published %d/%d points: %w", published, len(res.Points), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Published %d forecast points (run %s)\n", published, pub.RunID())
	return nil
}
