package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/ecowatts/internal/aggregate"
)

var (
	pivotRows    string
	pivotCols    string
	pivotReducer string
	pivotMeasure string
)

var pivotCmd = &cobra.Command{
	Use:   "pivot [file]",
	Short: "Cross-tabulate usage by two dimensions (e.g. room by hour)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPivot,
}

func init() {
	pivotCmd.Flags().StringVar(&pivotRows, "rows", "room", "Row key (date, hour, appliance, room)")
	pivotCmd.Flags().StringVar(&pivotCols, "cols", "hour", "Column key (date, hour, appliance, room)")
	pivotCmd.Flags().StringVar(&pivotReducer, "reducer", "sum", "Reducer (sum or mean)")
	pivotCmd.Flags().StringVar(&pivotMeasure, "measure", "usage", "Value to reduce (usage or cost)")
	rootCmd.AddCommand(pivotCmd)
}

func runPivot(cmd *cobra.Command, args []string) error {
	rows, err := parseRequest(pivotRows, pivotReducer, pivotMeasure, false)
	if err != nil {
		return err
	}
	cols, err := aggregate.ParseKey(pivotCols)
	if err != nil {
		return err
	}

	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	p, err := aggregate.NewPivot(table, aggregate.PivotRequest{
		Rows:    rows.Key,
		Cols:    cols,
		Reducer: rows.Reducer,
		Measure: rows.Measure,
	})
	if err != nil {
		return fmt.Errorf("pivoting %s by %s: %w", rows.Key, cols, err)
	}

	printPivot(cmd.OutOrStdout(), p)
	return nil
}
