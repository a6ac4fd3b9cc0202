package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/ecowatts/internal/aggregate"
)

var (
	summaryBy      string
	summaryReducer string
	summaryMeasure string
	summaryRank    bool
	summaryLimit   int
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Summarize usage by date, hour, appliance or room",
	Long: `Groups the readings of an export by one dimension and reduces each group to a sum or mean.
Readings without a value for the chosen appliance or room are left out of the summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryBy, "by", "date", "Group key (date, hour, appliance, room)")
	summaryCmd.Flags().StringVar(&summaryReducer, "reducer", "sum", "Reducer (sum or mean)")
	summaryCmd.Flags().StringVar(&summaryMeasure, "measure", "usage", "Value to reduce (usage or cost)")
	summaryCmd.Flags().BoolVar(&summaryRank, "rank", false, "Order groups by value, largest first")
	summaryCmd.Flags().IntVar(&summaryLimit, "limit", 0, "Limit number of groups shown (0 = no limit)")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	req, err := parseRequest(summaryBy, summaryReducer, summaryMeasure, summaryRank)
	if err != nil {
		return err
	}

	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	series, err := aggregate.Aggregate(table, req)
	if err != nil {
		return fmt.Errorf("aggregating by %s: %w", req.Key, err)
	}

	title := fmt.Sprintf("%s %s by %s", capitalize(req.Reducer.String()), req.Measure, req.Key)
	printSeries(cmd.OutOrStdout(), title, series, summaryLimit)
	return nil
}

// parseRequest builds an aggregation request from command line values
func parseRequest(by, reducer, measure string, rank bool) (aggregate.Request, error) {
	var req aggregate.Request
	var err error

	if req.Key, err = aggregate.ParseKey(by); err != nil {
		return req, err
	}
	if req.Reducer, err = aggregate.ParseReducer(reducer); err != nil {
		return req, err
	}
	if req.Measure, err = aggregate.ParseMeasure(measure); err != nil {
		return req, err
	}
	if rank {
		req.Order = aggregate.DescendingByValue
	}
	return req, nil
}
