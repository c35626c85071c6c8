package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// designFlags binds the column-role flags shared by the analysis commands.
// Roles left empty are filled from the dataset metadata.
type designFlags struct {
	kind           string
	response       string
	treatment      string
	block          string
	row            string
	column         string
	factors        []string
	mainPlot       string
	subPlot        string
	replicate      string
	maxInteraction int
}

func (f *designFlags) register(cmd *cobra.Command) {
	kinds := make([]string, len(models.DesignKinds))
	for i, k := range models.DesignKinds {
		kinds[i] = string(k)
	}
	fs := cmd.Flags()
	fs.StringVar(&f.kind, "design", "", "Design kind ("+strings.Join(kinds, ", ")+")")
	fs.StringVar(&f.response, "response", "", "Response column")
	fs.StringVar(&f.treatment, "treatment", "", "Treatment column")
	fs.StringVar(&f.block, "block", "", "Block column")
	fs.StringVar(&f.row, "row", "", "Row column of a latin square")
	fs.StringVar(&f.column, "column", "", "Column column of a latin square")
	fs.StringSliceVar(&f.factors, "factors", nil, "Treatment factors of a factorial design")
	fs.StringVar(&f.mainPlot, "main-plot", "", "Main-plot factor of a split-plot design")
	fs.StringVar(&f.subPlot, "sub-plot", "", "Sub-plot factor of a split-plot design")
	fs.StringVar(&f.replicate, "replicate", "", "Replicate column of a split-plot CRD")
	fs.IntVar(&f.maxInteraction, "max-interaction", 0, "Highest factorial interaction order to fit (0 = all)")
	_ = cmd.RegisterFlagCompletionFunc("design", completeDesigns)
}

func (f *designFlags) spec() models.DesignSpec {
	return models.DesignSpec{
		Kind:           models.DesignKind(strings.ToLower(f.kind)),
		Response:       f.response,
		Treatment:      f.treatment,
		Block:          f.block,
		Row:            f.row,
		Column:         f.column,
		Factors:        f.factors,
		MainPlot:       f.mainPlot,
		SubPlot:        f.subPlot,
		Replicate:      f.replicate,
		MaxInteraction: f.maxInteraction,
	}
}

// resolveAlpha returns the --alpha flag when set, else the configured level.
func resolveAlpha(cmd *cobra.Command, flagValue float64) (float64, error) {
	alpha := core.DefaultAlpha
	if Config != nil {
		alpha = Config.Alpha
	}
	if cmd.Flags().Changed("alpha") {
		alpha = flagValue
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("alpha must be in (0, 1), got %g", alpha)
	}
	return alpha, nil
}

// resolvePostHoc returns the --method flag when set, else the configured
// method.
func resolvePostHoc(cmd *cobra.Command, name, flagValue string) string {
	if cmd.Flags().Changed(name) || Config == nil {
		return flagValue
	}
	return string(Config.PostHoc)
}

func renderer() *render.Renderer {
	if Renderer != nil {
		return Renderer
	}
	r, _ := render.New("en")
	return r
}

func logger() *zap.Logger {
	if Logger != nil {
		return Logger
	}
	return zap.NewNop()
}

func requireAnalyzer() error {
	if Analyzer == nil {
		return fmt.Errorf("analyzer not initialized")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// emit writes v as JSON under --json, otherwise the text produced by text.
func emit(cmd *cobra.Command, v any, text func(r *render.Renderer) string) error {
	w := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(w, v)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(text(renderer()), "\n"))
	return err
}
