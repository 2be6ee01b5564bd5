package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/h2grid/core/series"
)

var (
	statsSupply       string
	statsDemand       string
	statsSupplyColumn string
	statsDemandColumn string
	statsOut          string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the energy difference between a supply and a demand dataset",
	RunE:  stats,
}

func init() {
	statsCmd.Flags().StringVar(&statsSupply, "supply", "", "supply CSV file")
	statsCmd.Flags().StringVar(&statsDemand, "demand", "", "demand CSV file")
	statsCmd.Flags().StringVar(&statsSupplyColumn, "supply-column", series.SupplyColumn, "supply energy column")
	statsCmd.Flags().StringVar(&statsDemandColumn, "demand-column", series.DemandColumn, "demand energy column")
	statsCmd.Flags().StringVar(&statsOut, "out", "", "write the difference series to this CSV file")
	_ = statsCmd.MarkFlagRequired("supply")
	_ = statsCmd.MarkFlagRequired("demand")
	rootCmd.AddCommand(statsCmd)
}

func stats(cmd *cobra.Command, args []string) error {
	supply, err := series.LoadCSV(statsSupply, statsSupplyColumn)
	if err != nil {
		return err
	}
	demand, err := series.LoadCSV(statsDemand, statsDemandColumn)
	if err != nil {
		return err
	}
	diff, err := series.Difference(supply, demand)
	if err != nil {
		return err
	}
	st, err := series.Summarize(diff)
	if err != nil {
		return err
	}
	if statsOut != "" {
		if err := series.SaveCSV(statsOut, diff, series.DifferenceColumn); err != nil {
			return err
		}
	}
	printStats(cmd.OutOrStdout(), st)
	return nil
}

func printStats(w io.Writer, st series.Stats) {
	fmt.Fprintf(w, "samples:                      %d\n", st.Samples)
	fmt.Fprintf(w, "total energy difference:      %.3f GJ (%.3f GWh)\n", series.ToGJ(st.Total), series.ToGWh(st.Total))
	fmt.Fprintf(w, "maximum energy difference:    %.3f GJ (%.3f MWh)\n", series.ToGJ(st.Max), series.ToMWh(st.Max))
	fmt.Fprintf(w, "minimum energy difference:    %.3f GJ (%.3f MWh)\n", series.ToGJ(st.Min), series.ToMWh(st.Min))
	fmt.Fprintf(w, "sum of positive differences:  %.3f GJ (%.3f GWh)\n", series.ToGJ(st.SumPositive), series.ToGWh(st.SumPositive))
	fmt.Fprintf(w, "sum of negative differences:  %.3f GJ (%.3f GWh)\n", series.ToGJ(st.SumNegative), series.ToGWh(st.SumNegative))
	fmt.Fprintf(w, "required battery size:        %.3f MWh\n", st.BatterySizeMWh())
}
