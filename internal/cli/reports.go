package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/render"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage saved analysis reports",
	Long:  `List, show and delete the reports written by 'expdes analyze --save'.`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reports == nil {
			return fmt.Errorf("report store not initialized")
		}
		list, err := Reports.List()
		if err != nil {
			return fmt.Errorf("listing reports: %w", err)
		}
		return emit(cmd, list, func(r *render.Renderer) string { return r.Reports(list) })
	},
}

var reportsShowCmd = &cobra.Command{
	Use:               "show <report-id>",
	Short:             "Show a saved report",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReportIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reports == nil {
			return fmt.Errorf("report store not initialized")
		}
		rep, err := Reports.Get(args[0])
		if err != nil {
			return err
		}
		return emit(cmd, rep, func(r *render.Renderer) string { return r.Report(rep) })
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:               "delete <report-id>",
	Aliases:           []string{"rm"},
	Short:             "Delete a saved report",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeReportIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reports == nil {
			return fmt.Errorf("report store not initialized")
		}
		if err := Reports.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", args[0])
		return nil
	},
}

func init() {
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}
