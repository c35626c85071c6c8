package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// ErrReportNotFound is returned when no report has the requested ID.
var ErrReportNotFound = errors.New("report not found")

// ReportStoreManager persists analysis reports as YAML files under
// reports/ in the base directory.
type ReportStoreManager interface {
	Save(report *models.Report) (string, error)
	Get(id string) (*models.Report, error)
	List() ([]models.ReportSummary, error)
	Delete(id string) error

	// GenerateID returns the next sequential report ID (R-XXXXX).
	GenerateID() (string, error)
}

type fileReportStore struct {
	basePath string
}

// NewReportStoreManager creates a ReportStoreManager rooted at basePath.
func NewReportStoreManager(basePath string) ReportStoreManager {
	return &fileReportStore{basePath: basePath}
}

func (s *fileReportStore) dir() string {
	return filepath.Join(s.basePath, "reports")
}

func (s *fileReportStore) counterPath() string {
	return filepath.Join(s.basePath, ".report_counter")
}

func (s *fileReportStore) reportPath(id string) string {
	return filepath.Join(s.dir(), id+".yaml")
}

// GenerateID reads and increments the report counter file, returning the
// next sequential ID in R-XXXXX format. The counter is locked so concurrent
// processes never share an ID.
func (s *fileReportStore) GenerateID() (string, error) {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return "", fmt.Errorf("generating report ID: creating directory: %w", err)
	}
	unlock, err := lockFile(s.counterPath() + ".lock")
	if err != nil {
		return "", fmt.Errorf("generating report ID: %w", err)
	}
	defer func() { _ = unlock() }()

	counter := 0
	data, err := os.ReadFile(s.counterPath())
	if err == nil {
		counter, err = strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return "", fmt.Errorf("generating report ID: parsing counter: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("generating report ID: reading counter: %w", err)
	}

	counter++
	if err := os.WriteFile(s.counterPath(), []byte(strconv.Itoa(counter)), 0o600); err != nil {
		return "", fmt.Errorf("generating report ID: writing counter: %w", err)
	}
	return fmt.Sprintf("R-%05d", counter), nil
}

// Save assigns an ID when the report has none and writes it.
func (s *fileReportStore) Save(report *models.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("saving report: report is nil")
	}
	if report.ID == "" {
		id, err := s.GenerateID()
		if err != nil {
			return "", fmt.Errorf("saving report: %w", err)
		}
		report.ID = id
	}
	if err := os.MkdirAll(s.dir(), 0o750); err != nil {
		return "", fmt.Errorf("saving report: creating directory: %w", err)
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("saving report: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(s.reportPath(report.ID), data, 0o600); err != nil {
		return "", fmt.Errorf("saving report: writing file: %w", err)
	}
	return report.ID, nil
}

func (s *fileReportStore) Get(id string) (*models.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("getting report %q: %w", id, ErrReportNotFound)
	}
	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("getting report %s: %w", id, ErrReportNotFound)
		}
		return nil, fmt.Errorf("getting report %s: %w", id, err)
	}
	var r models.Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("getting report %s: parsing YAML: %w", id, err)
	}
	return &r, nil
}

// List returns a summary of every stored report, sorted by ID. Files that
// fail to parse are skipped.
func (s *fileReportStore) List() ([]models.ReportSummary, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	var out []models.ReportSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		r, err := s.Get(strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			continue
		}
		out = append(out, models.ReportSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Dataset:   r.Dataset,
			Design:    r.Design.Kind,
			Response:  r.Design.Response,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fileReportStore) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if err := os.Remove(s.reportPath(id)); err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	return nil
}
