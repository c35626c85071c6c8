package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	expdesmcp "github.com/valter-silva-au/expdes/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the expdes MCP server on stdio",
	Long: `Start the expdes MCP (Model Context Protocol) server on stdio transport.

The server exposes analyses as tools AI assistants can call:
list_datasets, run_anova, check_assumptions, run_posthoc, get_report,
get_metrics and get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}

		srv := expdesmcp.NewServer(expdesmcp.Deps{
			Analyzer:    Analyzer,
			Reports:     Reports,
			Metrics:     MetricsCalc,
			AlertEngine: AlertEngine,
		}, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
