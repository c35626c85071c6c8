package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/internal/storage"
)

var datasetsShowLimit int

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Aliases: []string{"ds"},
	Short:   "Browse the bundled example datasets",
	Long: `Browse the example experiments shipped with expdes and inspect CSV
files before analysing them.`,
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bundled datasets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := datasets.All()
		return emit(cmd, all, func(r *render.Renderer) string { return r.Datasets(all) })
	},
}

var datasetsShowCmd = &cobra.Command{
	Use:               "show <dataset|file.csv>",
	Short:             "Print the rows of a dataset",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		ds, err := Analyzer.LoadDataset(args[0])
		if err != nil {
			return err
		}
		return emit(cmd, ds, func(r *render.Renderer) string { return r.Dataset(ds, datasetsShowLimit) })
	},
}

var datasetsSummaryCmd = &cobra.Command{
	Use:               "summary <dataset|file.csv>",
	Short:             "Summarize the columns of a dataset",
	Long:              `Report each column's kind, missing cells, most frequent value and distinct values.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		ds, err := Analyzer.LoadDataset(args[0])
		if err != nil {
			return err
		}
		cols := core.Summarize(ds)
		return emit(cmd, cols, func(r *render.Renderer) string { return r.Summary(cols) })
	},
}

var datasetsExportCmd = &cobra.Command{
	Use:   "export <dataset> <file.csv>",
	Short: "Write a bundled dataset to a CSV file",
	Long: `Write a bundled dataset to a CSV file with a metadata sidecar
(<name>.meta.yaml) recording its column roles, as a starting point for
your own data.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := datasets.Load(args[0])
		if err != nil {
			return err
		}
		if err := storage.ExportDataset(args[1], ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows)\n", args[1], len(ds.Rows))
		return nil
	},
}

func init() {
	datasetsShowCmd.Flags().IntVar(&datasetsShowLimit, "limit", 20, "Maximum rows to print (0 = all)")

	datasetsCmd.AddCommand(datasetsListCmd, datasetsShowCmd, datasetsSummaryCmd, datasetsExportCmd)
	rootCmd.AddCommand(datasetsCmd)
}
