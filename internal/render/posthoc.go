package render

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/expdes/pkg/models"
)

var methodNames = map[models.PostHocMethod]string{
	models.PostHocTukey:      "Tukey HSD",
	models.PostHocDuncan:     "Duncan multiple range",
	models.PostHocScottKnott: "Scott-Knott",
	models.PostHocTTest:      "Pairwise t-test",
}

// MethodName is the display name of a post-hoc method.
func MethodName(m models.PostHocMethod) string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return string(m)
}

// PostHoc renders the group means with letters followed by the pairwise
// comparisons.
func (r *Renderer) PostHoc(res *models.PostHocResult) string {
	header := fmt.Sprintf("%s on %s (alpha = %s, MSE = %s, df = %s)",
		MethodName(res.Method), res.Factor, r.Number(res.Alpha, 2),
		r.Number(res.MSE, 4), r.Number(res.DF, dfDecimals(res.DF)))
	parts := []string{r.groups(header, res)}
	if len(res.Comparisons) > 0 {
		tbl := newTable("Group 1", "Group 2", "Diff", "Lower", "Upper", "p-value", "Reject")
		for _, c := range res.Comparisons {
			tbl.Row(c.Group1, c.Group2, r.Number(c.MeanDiff, 4), r.Stat(c.Lower, 4),
				r.Stat(c.Upper, 4), r.PValue(c.PValue), yesNo(c.Reject))
		}
		parts = append(parts, tbl.String())
	}
	parts = append(parts, note("Means sharing a letter do not differ significantly."))
	return section(parts...)
}

func (r *Renderer) groups(heading string, res *models.PostHocResult) string {
	tbl := newTable(res.Factor, "Mean", "N", "Letters")
	for _, g := range res.Groups {
		tbl.Row(g.Group, r.Number(g.Mean, 4), r.Integer(g.N), g.Letters)
	}
	return section(title(heading), tbl.String())
}

func yesNo(b bool) string {
	if b {
		return rejectStyle.Render("yes")
	}
	return "no"
}

// Letters renders the compact letter display of res on one line, e.g.
// "D a | B ab | C b | A b".
func Letters(res *models.PostHocResult) string {
	parts := make([]string, len(res.Groups))
	for i, g := range res.Groups {
		parts[i] = g.Group + " " + g.Letters
	}
	return strings.Join(parts, " | ")
}
