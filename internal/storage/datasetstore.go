package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// MetaSuffix is appended to a CSV file's base name to find its metadata
// sidecar: yields.csv is described by yields.meta.yaml.
const MetaSuffix = ".meta.yaml"

// DatasetLoader resolves dataset references. A reference naming a bundled
// dataset loads it; anything else is read as a CSV path.
type DatasetLoader interface {
	Load(ref string) (*models.Dataset, error)
	Bundled() []string
}

type fileDatasetLoader struct {
	basePath string
}

// NewDatasetLoader creates a DatasetLoader. Relative CSV paths are resolved
// against basePath when they do not exist in the working directory.
func NewDatasetLoader(basePath string) DatasetLoader {
	return &fileDatasetLoader{basePath: basePath}
}

func (l *fileDatasetLoader) Bundled() []string { return datasets.Names() }

func (l *fileDatasetLoader) Load(ref string) (*models.Dataset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("dataset reference is empty")
	}
	if datasets.Has(ref) {
		return datasets.Load(ref)
	}

	path := ref
	if !filepath.IsAbs(path) && l.basePath != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = filepath.Join(l.basePath, ref)
		}
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !strings.ContainsAny(ref, `./\`) {
			return nil, fmt.Errorf("%w: %q (bundled: %s)", datasets.ErrUnknownDataset, ref, strings.Join(datasets.Names(), ", "))
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds.Source = path

	meta, err := readMeta(metaPath(path))
	if err != nil {
		return nil, err
	}
	if meta != nil {
		ds.Meta = *meta
	}
	return ds, nil
}

func metaPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + MetaSuffix
}

func readMeta(path string) (*models.DatasetMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var meta models.DatasetMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("reading %s: parsing YAML: %w", path, err)
	}
	return &meta, nil
}

// ReadCSV parses a dataset with a header row. The delimiter is a semicolon
// when the header has semicolons and no commas, a comma otherwise.
func ReadCSV(r io.Reader) (*models.Dataset, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("peeking header: %w", err)
	}
	header := first
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		header = first[:i]
	}

	cr := csv.NewReader(br)
	if bytes.IndexByte(header, ';') >= 0 && bytes.IndexByte(header, ',') < 0 {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing CSV: no header row")
	}

	ds := &models.Dataset{Header: make([]string, len(records[0]))}
	for i, h := range records[0] {
		ds.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]string, len(ds.Header))
		copy(row, rec)
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// WriteCSV writes ds with a header row.
func WriteCSV(w io.Writer, ds *models.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(ds.Rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

// ExportDataset writes ds to csvPath and, when ds carries metadata, its
// sidecar next to it, so the file loads back with the same column roles.
func ExportDataset(csvPath string, ds *models.Dataset) error {
	if ds == nil {
		return fmt.Errorf("exporting dataset: dataset is nil")
	}
	if err := os.MkdirAll(filepath.Dir(csvPath), 0o750); err != nil {
		return fmt.Errorf("exporting dataset: creating directory: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		return fmt.Errorf("exporting dataset: %w", err)
	}
	if err := os.WriteFile(csvPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("exporting dataset: writing %s: %w", csvPath, err)
	}
	if isZeroMeta(ds.Meta) {
		return nil
	}
	data, err := yaml.Marshal(ds.Meta)
	if err != nil {
		return fmt.Errorf("exporting dataset: marshalling metadata: %w", err)
	}
	if err := os.WriteFile(metaPath(csvPath), data, 0o600); err != nil {
		return fmt.Errorf("exporting dataset: writing metadata: %w", err)
	}
	return nil
}

func isZeroMeta(m models.DatasetMeta) bool {
	return m.Design == "" && m.Response == "" && m.Treatment == "" && m.Block == "" &&
		m.Row == "" && m.Column == "" && len(m.Factors) == 0 && m.MainPlot == "" && m.SubPlot == "" &&
		m.Replicate == ""
}
