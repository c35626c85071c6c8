package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// completeDatasets completes bundled dataset names for the first argument
// and falls back to file completion for CSV paths.
func completeDatasets(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, ds := range datasets.All() {
		if strings.HasPrefix(ds.Name, toComplete) {
			names = append(names, ds.Name+"\t"+ds.Meta.Design)
		}
	}
	return names, cobra.ShellCompDirectiveDefault
}

// completeReportIDs lists saved report IDs with their dataset.
func completeReportIDs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Reports == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	list, err := Reports.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, r := range list {
		if strings.HasPrefix(r.ID, toComplete) {
			ids = append(ids, r.ID+"\t"+r.Dataset+" ("+string(r.Design)+")")
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func completePostHoc(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return append(core.PostHocNames(), core.PostHocNone), cobra.ShellCompDirectiveNoFileComp
}

func completeDesigns(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(models.DesignKinds))
	for i, k := range models.DesignKinds {
		out[i] = string(k)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
