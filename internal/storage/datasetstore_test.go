package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/pkg/models"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestDatasetLoader_Bundled(t *testing.T) {
	l := NewDatasetLoader(t.TempDir())
	ds, err := l.Load("dic_milho")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Name != "dic_milho" || len(ds.Rows) != 20 {
		t.Errorf("got %s with %d rows, want dic_milho with 20", ds.Name, len(ds.Rows))
	}
	if len(l.Bundled()) != len(datasets.Names()) {
		t.Errorf("Bundled() = %v", l.Bundled())
	}
}

func TestDatasetLoader_CSVWithMeta(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "trial.csv", "trat,bloco,y\nA,1,10.5\nB,1,11\nA,2,9.8\nB,2,12.1\n")
	writeTestFile(t, dir, "trial.meta.yaml", "design: rcbd\nresponse: y\ntreatment: trat\nblock: bloco\n")

	ds, err := NewDatasetLoader("").Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Name != "trial" {
		t.Errorf("Name = %q, want %q", ds.Name, "trial")
	}
	if ds.Source != path {
		t.Errorf("Source = %q, want %q", ds.Source, path)
	}
	if got := strings.Join(ds.Header, ","); got != "trat,bloco,y" {
		t.Errorf("Header = %s", got)
	}
	if len(ds.Rows) != 4 {
		t.Errorf("Rows = %d, want 4", len(ds.Rows))
	}
	want := models.DatasetMeta{Design: "rcbd", Response: "y", Treatment: "trat", Block: "bloco"}
	if ds.Meta.Design != want.Design || ds.Meta.Response != want.Response || ds.Meta.Treatment != want.Treatment || ds.Meta.Block != want.Block {
		t.Errorf("Meta = %+v, want %+v", ds.Meta, want)
	}
}

func TestDatasetLoader_RelativeToBase(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "rel.csv", "g,y\na,1\n")

	ds, err := NewDatasetLoader(dir).Load("rel.csv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Meta.Design != "" {
		t.Errorf("Meta.Design = %q, want empty without sidecar", ds.Meta.Design)
	}
}

func TestDatasetLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	l := NewDatasetLoader(dir)

	if _, err := l.Load(""); err == nil {
		t.Error("expected error for empty reference")
	}
	if _, err := l.Load("dic_trigo"); !errors.Is(err, datasets.ErrUnknownDataset) {
		t.Errorf("Load(dic_trigo) error = %v, want ErrUnknownDataset", err)
	}
	if _, err := l.Load(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTestFile(t, dir, "bad.csv", "g,y\na,1\n")
	writeTestFile(t, dir, "bad.meta.yaml", "design: [unclosed\n")
	if _, err := l.Load(path); err == nil {
		t.Error("expected error for malformed sidecar")
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		header []string
		rows   [][]string
	}{
		{
			"comma",
			"a,b\n1,2\n3,4\n",
			[]string{"a", "b"},
			[][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			"semicolon with decimal comma",
			"trat;y\nA;10,5\nB;11,2\n",
			[]string{"trat", "y"},
			[][]string{{"A", "10,5"}, {"B", "11,2"}},
		},
		{
			"ragged rows padded and trimmed",
			"a,b,c\n1,2\n4,5,6,7\n",
			[]string{"a", "b", "c"},
			[][]string{{"1", "2", ""}, {"4", "5", "6"}},
		},
		{
			"byte order mark and spaces",
			"\ufeffa, b\n1, 2\n",
			[]string{"a", "b"},
			[][]string{{"1", "2"}},
		},
		{
			"header only",
			"a,b\n",
			[]string{"a", "b"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if strings.Join(ds.Header, "|") != strings.Join(tt.header, "|") {
				t.Errorf("Header = %q, want %q", ds.Header, tt.header)
			}
			if len(ds.Rows) != len(tt.rows) {
				t.Fatalf("Rows = %q, want %q", ds.Rows, tt.rows)
			}
			for i := range tt.rows {
				if strings.Join(ds.Rows[i], "|") != strings.Join(tt.rows[i], "|") {
					t.Errorf("row %d = %q, want %q", i, ds.Rows[i], tt.rows[i])
				}
			}
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestWriteCSV_ReadBack(t *testing.T) {
	src, err := datasets.Load("dql_cana")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, src); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got.Rows) != len(src.Rows) || strings.Join(got.Header, ",") != strings.Join(src.Header, ",") {
		t.Errorf("read back %d rows %v, want %d rows %v", len(got.Rows), got.Header, len(src.Rows), src.Header)
	}
}

func TestExportDataset_LoadsBackWithRoles(t *testing.T) {
	src, err := datasets.Load("splitplot_dic")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "export", "splitplot.csv")
	if err := ExportDataset(path, src); err != nil {
		t.Fatalf("ExportDataset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "export", "splitplot"+MetaSuffix)); err != nil {
		t.Fatalf("expected metadata sidecar: %v", err)
	}

	got, err := NewDatasetLoader(dir).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "splitplot" || len(got.Rows) != len(src.Rows) {
		t.Errorf("got %s with %d rows, want splitplot with %d", got.Name, len(got.Rows), len(src.Rows))
	}
	if got.Meta.MainPlot != src.Meta.MainPlot || got.Meta.Design != src.Meta.Design || got.Meta.Replicate != "rep" {
		t.Errorf("meta = %+v, want %+v", got.Meta, src.Meta)
	}
}

func TestExportDataset_NoMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.csv")
	ds := &models.Dataset{Header: []string{"x", "y"}, Rows: [][]string{{"1", "2"}}}
	if err := ExportDataset(path, ds); err != nil {
		t.Fatalf("ExportDataset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "plain"+MetaSuffix)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no sidecar, stat err = %v", err)
	}
	if err := ExportDataset(path, nil); err == nil {
		t.Error("expected error for nil dataset")
	}
}
