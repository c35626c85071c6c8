package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Summary renders per-column dataset summaries.
func (r *Renderer) Summary(cols []models.ColumnSummary) string {
	tbl := newTable("Column", "Kind", "Missing", "Missing %", "Unique", "Top", "Top %", "Values")
	for _, c := range cols {
		tbl.Row(c.Column, string(c.Kind), r.Integer(c.Missing), r.Number(c.MissingPct, 1),
			r.Integer(c.Unique), c.TopClass, r.Stat(c.TopClassPct, 1), strings.Join(c.UniqueValues, ", "))
	}
	return tbl.String() + "\n"
}

// Dataset renders the first limit rows of ds; limit <= 0 renders all.
func (r *Renderer) Dataset(ds *models.Dataset, limit int) string {
	tbl := newTable(ds.Header...)
	rows := ds.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		tbl.Row(row...)
	}
	parts := []string{title(ds.Name)}
	if ds.Description != "" {
		parts = append(parts, note(ds.Description))
	}
	parts = append(parts, tbl.String())
	if len(rows) < len(ds.Rows) {
		parts = append(parts, note(fmt.Sprintf("%s of %s rows shown", r.Integer(len(rows)), r.Integer(len(ds.Rows)))))
	}
	return section(parts...)
}

// Datasets renders the bundled dataset index.
func (r *Renderer) Datasets(list []*models.Dataset) string {
	tbl := newTable("Name", "Design", "Rows", "Description")
	for _, ds := range list {
		tbl.Row(ds.Name, ds.Meta.Design, r.Integer(len(ds.Rows)), ds.Description)
	}
	return tbl.String() + "\n"
}

// Reports renders the stored report index.
func (r *Renderer) Reports(list []models.ReportSummary) string {
	if len(list) == 0 {
		return note("No reports saved.") + "\n"
	}
	tbl := newTable("ID", "Created", "Dataset", "Design", "Response")
	for _, s := range list {
		tbl.Row(s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Dataset, string(s.Design), s.Response)
	}
	return tbl.String() + "\n"
}

// Report renders a full analysis report.
func (r *Renderer) Report(rep *models.Report) string {
	head := fmt.Sprintf("Report %s  %s  (%s)", rep.ID, rep.Dataset, rep.CreatedAt.Local().Format(time.DateTime))
	if rep.ID == "" {
		head = fmt.Sprintf("Analysis of %s", rep.Dataset)
	}
	parts := []string{title(head)}
	if rep.Unfolded != nil {
		parts = append(parts, r.Unfold(rep.Unfolded))
	} else {
		parts = append(parts, r.Anova(&rep.Anova))
	}
	if rep.Assumptions != nil {
		parts = append(parts, r.Assumptions(rep.Assumptions))
	}
	for i := range rep.PostHoc {
		parts = append(parts, r.PostHoc(&rep.PostHoc[i]))
	}
	if len(rep.Plots) > 0 {
		parts = append(parts, title("Figures"), strings.Join(rep.Plots, "\n"))
	}
	return section(parts...)
}
