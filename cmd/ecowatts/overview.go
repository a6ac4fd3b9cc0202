package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/ecowatts/internal/aggregate"
	"github.com/jgoulah/ecowatts/pkg/models"
)

var overviewCmd = &cobra.Command{
	Use:   "overview [file]",
	Short: "Show usage by date, hour, appliance and room",
	Long: `Runs the standard summaries of an export side by side. Appliance and room summaries
are skipped when the export has no such column.`,
	Args: cobra.ExactArgs(1),
	RunE: runOverview,
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}

func runOverview(cmd *cobra.Command, args []string) error {
	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	reqs := overviewRequests(table)
	results := make([]*aggregate.Series, len(reqs))

	// The table is immutable, so the summaries can be computed concurrently
	var g errgroup.Group
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			s, err := aggregate.Aggregate(table, req)
			if err != nil {
				return fmt.Errorf("aggregating by %s: %w", req.Key, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, s := range results {
		title := fmt.Sprintf("%s usage by %s", capitalize(reqs[i].Reducer.String()), reqs[i].Key)
		if reqs[i].Order == aggregate.DescendingByValue {
			title = "Top usage by " + reqs[i].Key.String()
		}
		printSeries(out, title, s, 10)
	}
	return nil
}

// overviewRequests lists the summaries the table supports
func overviewRequests(table *models.Table) []aggregate.Request {
	reqs := []aggregate.Request{
		{Key: aggregate.ByDate},
		{Key: aggregate.ByHour, Reducer: aggregate.Mean},
	}
	if table.HasField(models.FieldAppliance) {
		reqs = append(reqs, aggregate.Request{Key: aggregate.ByAppliance, Order: aggregate.DescendingByValue})
	} else {
		log.Info().Msg("no appliance column, skipping appliance summary")
	}
	if table.HasField(models.FieldRoom) {
		reqs = append(reqs, aggregate.Request{Key: aggregate.ByRoom, Order: aggregate.DescendingByValue})
	} else {
		log.Info().Msg("no room column, skipping room summary")
	}
	return reqs
}
