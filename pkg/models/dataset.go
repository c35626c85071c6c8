package models

// DatasetMeta records the column roles a dataset was collected for. Every
// field is a suggestion; callers may analyse the data under another design.
type DatasetMeta struct {
	Response  string   `yaml:"response,omitempty" json:"response,omitempty"`
	Treatment string   `yaml:"treatment,omitempty" json:"treatment,omitempty"`
	Block     string   `yaml:"block,omitempty" json:"block,omitempty"`
	Row       string   `yaml:"row,omitempty" json:"row,omitempty"`
	Column    string   `yaml:"column,omitempty" json:"column,omitempty"`
	Factors   []string `yaml:"factors,omitempty" json:"factors,omitempty"`
	MainPlot  string   `yaml:"main_plot,omitempty" json:"main_plot,omitempty"`
	SubPlot   string   `yaml:"sub_plot,omitempty" json:"sub_plot,omitempty"`
	Replicate string   `yaml:"replicate,omitempty" json:"replicate,omitempty"`
	Design    string   `yaml:"design,omitempty" json:"design,omitempty"`
}

// Dataset is a rectangular table of string cells with a header row.
// Numeric columns are parsed on demand by the analysis layer.
type Dataset struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Source      string      `yaml:"source,omitempty" json:"source,omitempty"`
	Header      []string    `yaml:"header" json:"header"`
	Rows        [][]string  `yaml:"rows" json:"rows"`
	Meta        DatasetMeta `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ColumnKind distinguishes numeric columns from free text.
type ColumnKind string

const (
	ColumnNumeric ColumnKind = "numeric"
	ColumnText    ColumnKind = "text"
)

// ColumnSummary describes one dataset column.
type ColumnSummary struct {
	Column       string     `yaml:"column" json:"column"`
	Kind         ColumnKind `yaml:"kind" json:"kind"`
	Missing      int        `yaml:"missing" json:"missing"`
	MissingPct   float64    `yaml:"missing_pct" json:"missing_pct"`
	TopClass     string     `yaml:"top_class" json:"top_class"`
	TopClassPct  Stat       `yaml:"top_class_pct" json:"top_class_pct"`
	Unique       int        `yaml:"unique" json:"unique"`
	UniqueValues []string   `yaml:"unique_values,omitempty" json:"unique_values,omitempty"`
}
