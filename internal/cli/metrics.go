package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/observability"
)

var (
	metricsSince    string
	metricsTextfile string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display analysis metrics",
	Long: `Display metrics aggregated from the analysis event log: analyses run by
design, post-hoc method and dataset, assumption violations, significant
effects, saved reports and the mean coefficient of variation.

With --textfile the metrics are also written in the Prometheus text format,
ready for the node_exporter textfile collector.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsTextfile != "" {
			if err := metrics.WriteTextfile(metricsTextfile); err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		if outputJSON {
			return writeJSON(w, metrics)
		}

		fmt.Fprintf(w, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(w, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(w, "  %-24s %d\n", "Analyses run:", metrics.AnalysesRun)
		fmt.Fprintf(w, "  %-24s %d\n", "Assumption violations:", metrics.AssumptionViolations)
		fmt.Fprintf(w, "  %-24s %d\n", "Significant effects:", metrics.SignificantEffects)
		fmt.Fprintf(w, "  %-24s %d\n", "Reports saved:", metrics.ReportsSaved)
		if metrics.MeanCV != nil {
			fmt.Fprintf(w, "  %-24s %s%%\n", "Mean CV:", renderer().Number(*metrics.MeanCV, 2))
		}

		printCounts(cmd, "Analyses by design:", metrics.AnalysesByDesign)
		printCounts(cmd, "Analyses by post-hoc:", metrics.AnalysesByPostHoc)
		printCounts(cmd, "Analyses by dataset:", metrics.AnalysesByDataset)

		if metrics.OldestEvent != nil {
			fmt.Fprintf(w, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(w, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}
		if metricsTextfile != "" {
			fmt.Fprintf(w, "\nPrometheus metrics written to %s\n", metricsTextfile)
		}
		return nil
	},
}

// printCounts prints a labelled breakdown sorted by key.
func printCounts(cmd *cobra.Command, heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n  %s\n", heading)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-22s %d\n", k+":", counts[k])
	}
}

func init() {
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	metricsCmd.Flags().StringVar(&metricsTextfile, "textfile", "", "Also write Prometheus text exposition to this file")
	rootCmd.AddCommand(metricsCmd)
}
