package models

// DesignKind identifies an experimental layout.
type DesignKind string

const (
	DesignCRD           DesignKind = "crd"
	DesignRCBD          DesignKind = "rcbd"
	DesignLSD           DesignKind = "lsd"
	DesignFactorialCRD  DesignKind = "factorial_crd"
	DesignFactorialRCBD DesignKind = "factorial_rcbd"
	DesignSplitPlotCRD  DesignKind = "splitplot_crd"
	DesignSplitPlotRCBD DesignKind = "splitplot_rcbd"
)

// DesignKinds lists every supported layout in presentation order.
var DesignKinds = []DesignKind{
	DesignCRD,
	DesignRCBD,
	DesignLSD,
	DesignFactorialCRD,
	DesignFactorialRCBD,
	DesignSplitPlotCRD,
	DesignSplitPlotRCBD,
}

// DesignSpec names the columns playing each role in an experiment.
// Which fields are required depends on Kind.
type DesignSpec struct {
	Kind      DesignKind `yaml:"kind" json:"kind"`
	Response  string     `yaml:"response" json:"response"`
	Treatment string     `yaml:"treatment,omitempty" json:"treatment,omitempty"`
	Block     string     `yaml:"block,omitempty" json:"block,omitempty"`
	Row       string     `yaml:"row,omitempty" json:"row,omitempty"`
	Column    string     `yaml:"column,omitempty" json:"column,omitempty"`
	Factors   []string   `yaml:"factors,omitempty" json:"factors,omitempty"`
	MainPlot  string     `yaml:"main_plot,omitempty" json:"main_plot,omitempty"`
	SubPlot   string     `yaml:"sub_plot,omitempty" json:"sub_plot,omitempty"`
	Replicate string     `yaml:"replicate,omitempty" json:"replicate,omitempty"`
	// MaxInteraction caps the order of factorial interaction terms.
	// Zero keeps every interaction.
	MaxInteraction int `yaml:"max_interaction,omitempty" json:"max_interaction,omitempty"`
}
