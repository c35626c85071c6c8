// Package datasets bundles the example experiments shipped with expdes.
package datasets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// ErrUnknownDataset is returned by Load for names that are not bundled.
var ErrUnknownDataset = errors.New("unknown dataset")

var registry = map[string]func() *models.Dataset{
	"dic_milho":              dicMilho,
	"dbc_caprinos":           dbcCaprinos,
	"dql_cana":               dqlCana,
	"fatorial_dic_irrigacao": fatorialDicIrrigacao,
	"fatorial_dic_np":        fatorialDicNP,
	"fatorial_dbc_np":        fatorialDbcNP,
	"splitplot_dic":          splitplotDic,
	"splitplot_dbc":          splitplotDbc,
}

// Names returns the bundled dataset names in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is a bundled dataset.
func Has(name string) bool {
	_, ok := registry[name]
	return ok
}

// Load returns a fresh copy of the named dataset.
func Load(name string) (*models.Dataset, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return build(), nil
}

// All returns every bundled dataset, sorted by name.
func All() []*models.Dataset {
	names := Names()
	out := make([]*models.Dataset, len(names))
	for i, name := range names {
		out[i] = registry[name]()
	}
	return out
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func dicMilho() *models.Dataset {
	values := map[string][]float64{
		"A": {25, 26, 20, 23, 21},
		"B": {31, 25, 28, 27, 24},
		"C": {22, 26, 28, 25, 29},
		"D": {33, 29, 31, 34, 28},
	}
	ds := &models.Dataset{
		Name:        "dic_milho",
		Description: "Four maize varieties (A-D) randomly assigned to 20 plots, 5 per variety. Response is yield in bags per hectare.",
		Source:      "fictitious",
		Header:      []string{"variedade", "produtividade"},
		Meta: models.DatasetMeta{
			Design:    string(models.DesignCRD),
			Response:  "produtividade",
			Treatment: "variedade",
		},
	}
	for _, v := range []string{"A", "B", "C", "D"} {
		for _, y := range values[v] {
			ds.Rows = append(ds.Rows, []string{v, num(y)})
		}
	}
	return ds
}

func dbcCaprinos() *models.Dataset {
	ppm := []float64{
		83, 86, 103, 116, 132,
		63, 69, 79, 81, 98,
		55, 61, 79, 79, 91,
	}
	ds := &models.Dataset{
		Name:        "dbc_caprinos",
		Description: "Five commercial products fed to goats grouped in 3 age blocks. Response is blood micronutrient concentration (ppm).",
		Source:      "fictitious",
		Header:      []string{"bloco", "produto", "ppm_micronutriente"},
		Meta: models.DatasetMeta{
			Design:    string(models.DesignRCBD),
			Response:  "ppm_micronutriente",
			Treatment: "produto",
			Block:     "bloco",
		},
	}
	for i, y := range ppm {
		ds.Rows = append(ds.Rows, []string{strconv.Itoa(i/5 + 1), strconv.Itoa(i%5 + 1), num(y)})
	}
	return ds
}

func dqlCana() *models.Dataset {
	ds := &models.Dataset{
		Name:        "dql_cana",
		Description: "Latin square with 5 forage sugarcane varieties.",
		Source:      "fictitious",
		Header:      []string{"linha", "coluna", "tratamento", "resposta"},
		Meta: models.DatasetMeta{
			Design:    string(models.DesignLSD),
			Response:  "resposta",
			Treatment: "tratamento",
			Row:       "linha",
			Column:    "coluna",
		},
		Rows: [][]string{
			{"1", "1", "D", "432"}, {"1", "2", "A", "518"}, {"1", "3", "B", "458"}, {"1", "4", "C", "583"}, {"1", "5", "E", "331"},
			{"2", "1", "C", "724"}, {"2", "2", "E", "478"}, {"2", "3", "A", "524"}, {"2", "4", "B", "550"}, {"2", "5", "D", "400"},
			{"3", "1", "E", "489"}, {"3", "2", "B", "384"}, {"3", "3", "C", "556"}, {"3", "4", "D", "297"}, {"3", "5", "A", "420"},
			{"4", "1", "B", "494"}, {"4", "2", "D", "500"}, {"4", "3", "E", "313"}, {"4", "4", "A", "486"}, {"4", "5", "C", "501"},
			{"5", "1", "A", "515"}, {"5", "2", "C", "660"}, {"5", "3", "D", "438"}, {"5", "4", "E", "394"}, {"5", "5", "B", "318"},
		},
	}
	return ds
}

func fatorialDicIrrigacao() *models.Dataset {
	y := []float64{25, 32, 27, 35, 28, 33, 41, 35, 38, 60, 67, 59}
	ds := &models.Dataset{
		Name:        "fatorial_dic_irrigacao",
		Description: "2x2 factorial in a completely randomized design: irrigation (f1) and liming (f2), 0 = absent, 1 = present.",
		Source:      "fictitious",
		Header:      []string{"f1", "f2", "produtividade"},
		Meta: models.DatasetMeta{
			Design:   string(models.DesignFactorialCRD),
			Response: "produtividade",
			Factors:  []string{"f1", "f2"},
		},
	}
	for i, v := range y {
		ds.Rows = append(ds.Rows, []string{strconv.Itoa(i / 6), strconv.Itoa((i / 3) % 2), num(v)})
	}
	return ds
}

// npCells are the nitrogen x phosphorus yields shared by the CRD and RCBD
// layouts, in N0P0, N0P1, N1P0, N1P1 order.
var npCells = [4][5]float64{
	{10.5, 11.0, 9.8, 11.2, 9.9},
	{11.2, 11.0, 10.4, 13.1, 10.6},
	{11.5, 12.4, 10.2, 12.7, 10.4},
	{14.0, 14.1, 13.8, 13.5, 14.2},
}

func fatorialDicNP() *models.Dataset {
	ds := &models.Dataset{
		Name:        "fatorial_dic_np",
		Description: "2x2 factorial in a completely randomized design: nitrogen (f1) and phosphorus (f2) at low (0) and high (1) doses, 5 replicates.",
		Source:      "fictitious",
		Header:      []string{"f1", "f2", "produtividade"},
		Meta: models.DatasetMeta{
			Design:   string(models.DesignFactorialCRD),
			Response: "produtividade",
			Factors:  []string{"f1", "f2"},
		},
	}
	for c, obs := range npCells {
		for _, v := range obs {
			ds.Rows = append(ds.Rows, []string{strconv.Itoa(c / 2), strconv.Itoa(c % 2), num(v)})
		}
	}
	return ds
}

func fatorialDbcNP() *models.Dataset {
	ds := &models.Dataset{
		Name:        "fatorial_dbc_np",
		Description: "2x2 factorial (N, P) in randomized complete blocks, 5 blocks.",
		Source:      "fictitious",
		Header:      []string{"block", "N", "P", "produtividade"},
		Meta: models.DatasetMeta{
			Design:   string(models.DesignFactorialRCBD),
			Response: "produtividade",
			Factors:  []string{"N", "P"},
			Block:    "block",
		},
	}
	for c, obs := range npCells {
		for rep, v := range obs {
			ds.Rows = append(ds.Rows, []string{strconv.Itoa(rep + 1), strconv.Itoa(c / 2), strconv.Itoa(c % 2), num(v)})
		}
	}
	return ds
}

var splitplotCells = []struct {
	cultivar string
	adubo    int
	obs      [3]float64
	mean     float64
}{
	{"A", 0, [3]float64{20.1, 20.3, 19.8}, 20},
	{"A", 1, [3]float64{22.5, 23.0, 22.1}, 22.5},
	{"A", 2, [3]float64{24.8, 25.0, 24.5}, 25},
	{"B", 0, [3]float64{19.5, 18.9, 19.8}, 19},
	{"B", 1, [3]float64{21.0, 20.7, 21.3}, 21},
	{"B", 2, [3]float64{22.0, 21.9, 22.4}, 22},
}

func splitplotDic() *models.Dataset {
	ds := &models.Dataset{
		Name:        "splitplot_dic",
		Description: "Split-plot in a completely randomized design: cultivar on whole plots, fertilizer dose on sub-plots, 3 replicates.",
		Source:      "fictitious",
		Header:      []string{"cultivar", "adubo", "rep", "produtividade"},
		Meta: models.DatasetMeta{
			Design:    string(models.DesignSplitPlotCRD),
			Response:  "produtividade",
			MainPlot:  "cultivar",
			SubPlot:   "adubo",
			Replicate: "rep",
		},
	}
	for _, c := range splitplotCells {
		for rep, v := range c.obs {
			ds.Rows = append(ds.Rows, []string{c.cultivar, strconv.Itoa(c.adubo), strconv.Itoa(rep + 1), num(v)})
		}
	}
	return ds
}

func splitplotDbc() *models.Dataset {
	noise := []float64{
		0.2, 0.2, 0.3, -0.1, 0.3, 0.2,
		0.3, -0.1, -0.1, 0.2, 0.3, -0.1,
		-0.1, 0.3, 0.2, 0.3, -0.1, 0.3,
	}
	ds := &models.Dataset{
		Name:        "splitplot_dbc",
		Description: "Split-plot in randomized complete blocks: cultivar on whole plots, fertilizer dose on sub-plots, 3 blocks.",
		Source:      "fictitious",
		Header:      []string{"block", "cultivar", "adubo", "produtividade"},
		Meta: models.DatasetMeta{
			Design:   string(models.DesignSplitPlotRCBD),
			Response: "produtividade",
			MainPlot: "cultivar",
			SubPlot:  "adubo",
			Block:    "block",
		},
	}
	i := 0
	for block := 1; block <= 3; block++ {
		for _, c := range splitplotCells {
			y := c.mean + noise[i]
			ds.Rows = append(ds.Rows, []string{strconv.Itoa(block), c.cultivar, strconv.Itoa(c.adubo), num(y)})
			i++
		}
	}
	return ds
}
