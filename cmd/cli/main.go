package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"centerout/adapters/clock"
	"centerout/adapters/excel"
	"centerout/adapters/export"
	"centerout/app"
	"centerout/domain/signal"
	"centerout/internal"
	"centerout/internal/params"
	"centerout/internal/summary"
	"centerout/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "centerout-cli",
		Short: "Offline tools for the center-out reaching task",
	}

	rootCmd.AddCommand(
		newReplayCmd(),
		newTargetsCmd(),
		newCoeffsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newReplayCmd() *cobra.Command {
	var paramsFile, outDir string
	var xlsx bool

	cmd := &cobra.Command{
		Use:   "replay [samples.csv]",
		Short: "Run a recorded raw position stream through the task",
		Long: `Replay a CSV or XLSX sheet of raw device samples (header row with
t_ms, x and y columns) through a fresh session and print the session summary.

The session starts before the first sample and ends after the last one
unless the schedule completes earlier. Rows are exported to --out.

Example: centerout-cli replay S01_raw.csv --params task.yaml --out ./data --xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params.Load(paramsFile)
			if err != nil {
				return err
			}
			samples, err := excel.NewDataReader(args[0]).ReadSamples()
			if err != nil {
				return fmt.Errorf("failed to read samples: %w", err)
			}

			exporters := export.Multi{export.CSVExporter{Dir: outDir, Prefix: p.Subject}}
			if xlsx {
				exporters = append(exporters, export.XLSXExporter{Dir: outDir, Prefix: p.Subject})
			}
			sum, err := replay(cmd.Context(), samples, p, exporters, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), sum.Markdown("Replay "+args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params", os.Getenv("PARAMS_FILE"), "Task parameter YAML file")
	cmd.Flags().StringVar(&outDir, "out", "./data", "Export directory")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write an XLSX workbook")
	return cmd
}

// replay feeds every sample to a new task service driven by a manual clock
// and returns the summary of the session.
func replay(ctx context.Context, samples []ports.RawSample, p params.Params, exporter ports.RowExporter, log io.Writer) (summary.Summary, error) {
	if len(samples) == 0 {
		return summary.Summary{}, fmt.Errorf("no samples")
	}

	clk := clock.NewManual(samples[0].TimestampMs)
	svc, err := app.NewTaskService(p, app.TaskDeps{Clock: clk, Exporter: exporter})
	if err != nil {
		return summary.Summary{}, err
	}
	if _, err := svc.StartSession(ctx); err != nil {
		return summary.Summary{}, err
	}

	for i, s := range samples {
		clk.Set(s.TimestampMs)
		res, err := svc.Process(ctx, s)
		if err != nil {
			return summary.Summary{}, fmt.Errorf("sample %d: %w", i+1, err)
		}
		if res.Report.Done {
			fmt.Fprintf(log, "schedule complete after %d samples\n", i+1)
			return svc.Summary(), nil
		}
	}

	path, err := svc.EndSession(ctx)
	if err != nil {
		return summary.Summary{}, err
	}
	if path != "" {
		fmt.Fprintf(log, "exported %s\n", path)
	}
	return svc.Summary(), nil
}

func newTargetsCmd() *cobra.Command {
	var paramsFile string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Print the target layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params.Load(paramsFile)
			if err != nil {
				return err
			}
			layout := p.Layout()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "index\tangle\tx\ty\n")
			home := layout.Home()
			fmt.Fprintf(w, "home\t-\t%.1f\t%.1f\n", home.X, home.Y)
			for _, t := range layout.Targets() {
				fmt.Fprintf(w, "%d\t%.0f°\t%.1f\t%.1f\n", t.Index, t.Angle*180/math.Pi, t.Position.X, t.Position.Y)
			}
			fmt.Fprintf(w, "\naccept radius\t%.1f\n", p.AcceptRadius())
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params", os.Getenv("PARAMS_FILE"), "Task parameter YAML file")
	return cmd
}

func newCoeffsCmd() *cobra.Command {
	var kind string
	var fc, fs, q, gain float64
	var verbose bool

	cmd := &cobra.Command{
		Use:   "coeffs",
		Short: "Print biquad section coefficients",
		Long: `Compute biquad coefficients with the same design the conditioner uses.

Example: centerout-cli coeffs --kind lowpass --fc 0.2 --fs 1.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := signal.ParseFilterKind(kind)
			if err != nil {
				return err
			}
			c, err := signal.CalcBiquad(k, fc, fs, q, gain)
			if err != nil {
				return err
			}
			if verbose {
				internal.DefaultLogger.Info("%s fc=%g fs=%g q=%g gain=%gdB", k, fc, fs, q, gain)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "a0 = %.16g\na1 = %.16g\na2 = %.16g\nb1 = %.16g\nb2 = %.16g\n", c.A0, c.A1, c.A2, c.B1, c.B2)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(signal.Lowpass), "lowpass|highpass|bandpass|notch|peak")
	cmd.Flags().Float64Var(&fc, "fc", 0.2, "Cutoff frequency")
	cmd.Flags().Float64Var(&fs, "fs", 1.0, "Sample rate, same unit as fc")
	cmd.Flags().Float64Var(&q, "q", signal.ButterworthQ, "Quality factor")
	cmd.Flags().Float64Var(&gain, "gain", 6, "Peak gain in dB (peak filters)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the design inputs")
	return cmd
}
