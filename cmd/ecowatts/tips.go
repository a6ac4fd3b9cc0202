package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/ecowatts/internal/aggregate"
	"github.com/jgoulah/ecowatts/internal/tips"
)

var tipsCount int

var tipsCmd = &cobra.Command{
	Use:   "tips [file]",
	Short: "Suggest savings for the appliances using the most energy",
	Args:  cobra.ExactArgs(1),
	RunE:  runTips,
}

func init() {
	tipsCmd.Flags().IntVar(&tipsCount, "top", 1, "Number of top appliances to show tips for")
	rootCmd.AddCommand(tipsCmd)
}

func runTips(cmd *cobra.Command, args []string) error {
	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	ranked, err := aggregate.Aggregate(table, aggregate.Request{
		Key:   aggregate.ByAppliance,
		Order: aggregate.DescendingByValue,
	})
	if err != nil {
		return fmt.Errorf("ranking appliances: %w", err)
	}
	if ranked.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No appliance readings found")
		return nil
	}

	book := tips.New(cfg.Tips)
	out := cmd.OutOrStdout()
	for i, p := range ranked.Points() {
		if i >= tipsCount {
			break
		}
		tip, found := book.Lookup(p.Key)
		if !found {
			log.Debug().Str("appliance", p.Key).Msg("no specific tip, using fallback")
		}
		share := 0.0
		if total := ranked.Total(); total > 0 {
			share = 100 * p.Value / total
		}
		fmt.Fprintf(out, "%d. %s: %s kWh (%.0f%% of usage)\n   ✓ %s\n", i+1, p.Key, formatValue(p.Value, aggregate.Usage), share, tip)
	}
	return nil
}
