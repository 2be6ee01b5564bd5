package cmd

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kilianp07/h2grid/app"
	"github.com/kilianp07/h2grid/config"
	"github.com/kilianp07/h2grid/core/grid"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/internal/eventbus"
)

var (
	simTicks     uint64
	simVerbose   bool
	simWithSinks bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a fixed number of ticks offline and print a summary",
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().Uint64Var(&simTicks, "ticks", 24, "number of ticks to run")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "print one line per tick")
	simulateCmd.Flags().BoolVar(&simWithSinks, "with-sinks", false, "also publish to the configured sinks")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts := []app.Option{app.WithMaxTicks(simTicks)}
	if !simWithSinks {
		opts = append(opts, app.WithoutSinks())
	}
	out := cmd.OutOrStdout()
	var wg sync.WaitGroup
	bus := eventbus.NewTyped[coremetrics.TickRecord]()
	if simVerbose {
		sub := bus.SubscribeBuffered(64)
		opts = append(opts, app.WithBus(bus))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range sub {
				printTick(out, rec)
			}
		}()
	}

	svc, err := app.New(cfg, opts...)
	if err != nil {
		bus.Close()
		return err
	}
	runErr := svc.Run(ctx)
	bus.Close()
	wg.Wait()
	closeErr := svc.Close()

	printSummary(out, svc.Controller.RunID(), svc.Summary.Totals())
	if bus.Dropped() > 0 {
		fmt.Fprintf(out, "%d tick lines dropped\n", bus.Dropped())
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func printTick(w io.Writer, rec coremetrics.TickRecord) {
	fmt.Fprintf(w, "tick %4d %s battery=%-11s soc=%.3f supply=%.3f demand=%.3f",
		rec.Tick, rec.Time.Format("2006-01-02 15:04"), rec.BatteryState,
		rec.Values[grid.BatterySoC], rec.Values[grid.SupplyMWh], rec.Values[grid.DemandMWh])
	if v, ok := rec.Values["cell_voltage"]; ok {
		fmt.Fprintf(w, " V=%.4f", v)
	}
	if v, ok := rec.Values["hydrogen_outflow"]; ok {
		fmt.Fprintf(w, " H2=%.3e", v)
	}
	if len(rec.Unavailable) > 0 {
		fmt.Fprintf(w, " unavailable=%v", rec.Unavailable)
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, runID string, t grid.Totals) {
	fmt.Fprintf(w, "run %s\n", runID)
	fmt.Fprintf(w, "  ticks:            %d (%d degraded)\n", t.Ticks, t.DegradedTicks)
	fmt.Fprintf(w, "  supplied:         %.3f MWh\n", t.SuppliedMWh)
	fmt.Fprintf(w, "  demanded:         %.3f MWh\n", t.DemandedMWh)
	fmt.Fprintf(w, "  unserved:         %.3f MWh\n", t.UnservedMWh)
	fmt.Fprintf(w, "  spilled:          %.3f MWh\n", t.SpilledMWh)
	fmt.Fprintf(w, "  electrolyzer:     %.6f MWh\n", t.ElectrolyzerMWh)
	fmt.Fprintf(w, "  hydrogen:         %.4f mol/m2\n", t.HydrogenMol)
	fmt.Fprintf(w, "  battery:          %s, soc %.3f\n", t.BatteryState, t.FinalSoC)
	if len(t.Failures) == 0 {
		return
	}
	names := make([]string, 0, len(t.Failures))
	for n := range t.Failures {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  failed %-16s %d ticks\n", n+":", t.Failures[n])
	}
}
