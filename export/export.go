// Package export turns one engine.Result into report artifacts.
//
// Output layout (Dir):
//
//	weekly_claims.csv           current-week claims
//	summary.csv                 Metric/Value rows in report order
//	anomalies.csv               anomalous claims with z_score
//	top_contributors.csv        top-percent claims by cost
//	missing_data_detail.csv     per-column null counts
//	summary.json / .yaml        machine-readable report document
//	report.db                   every table above in one SQLite file
//
// Bundles are pure values; only Export touches the filesystem. Two exports
// of the same bundle produce byte-identical CSV, JSON and YAML files.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/claimlens/engine"
)

// Artifact names, in bundle order.
const (
	ArtifactWeeklyClaims    = "weekly_claims"
	ArtifactSummary         = "summary"
	ArtifactAnomalies       = "anomalies"
	ArtifactTopContributors = "top_contributors"
	ArtifactMissingData     = "missing_data_detail"
)

// Supported formats.
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// ErrUnknownFormat is returned for an export format with no exporter.
var ErrUnknownFormat = errors.New("unknown export format")

// Bundle holds everything one run can export.
type Bundle struct {
	RunID       string
	GeneratedAt time.Time
	Result      *engine.Result
	Tables      []*engine.TableData // fixed order, see Artifact* constants
}

// NewBundle renders the tables of a finished run.
func NewBundle(runID string, generatedAt time.Time, result *engine.Result) Bundle {
	b := Bundle{RunID: runID, GeneratedAt: generatedAt.UTC(), Result: result}
	if result == nil {
		return b
	}

	current := result.Windows.CurrentWeek
	if current == nil {
		current = engine.NewSliceView(nil)
	}
	top := result.Concentration.Top
	if top == nil {
		top = engine.NewSliceView(nil)
	}

	b.Tables = []*engine.TableData{
		engine.BuildClaimTable(ArtifactWeeklyClaims, current),
		engine.BuildSummaryTable(ArtifactSummary, result.Summary),
		engine.BuildAnomalyTable(ArtifactAnomalies, result.Anomalies),
		engine.BuildClaimTable(ArtifactTopContributors, top),
		engine.BuildMissingTable(ArtifactMissingData, result.Quality),
	}
	return b
}

// Table looks up a bundle table by artifact name.
func (b Bundle) Table(name string) (*engine.TableData, bool) {
	for _, t := range b.Tables {
		if t.Title == name {
			return t, true
		}
	}
	return nil, false
}

// Artifact describes one written file (or table inside a file).
type Artifact struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
}

// Exporter writes a bundle somewhere.
type Exporter interface {
	Export(ctx context.Context, b Bundle) ([]Artifact, error)
}

// New returns the exporter for one format writing under dir.
func New(format, dir string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return &CSVExporter{Dir: dir}, nil
	case FormatJSON:
		return &DocumentExporter{Dir: dir, Format: FormatJSON}, nil
	case FormatYAML, "yml":
		return &DocumentExporter{Dir: dir, Format: FormatYAML}, nil
	case FormatSQLite, "db":
		return &SQLiteExporter{Path: filepath.Join(dir, "report.db")}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FromFormats combines one exporter per format, in the order given.
func FromFormats(formats []string, dir string) (Exporter, error) {
	var all Multi
	for _, f := range formats {
		e, err := New(f, dir)
		if err != nil {
			return nil, err
		}
		all = append(all, e)
	}
	return all, nil
}

// Multi runs exporters in order and stops at the first failure.
type Multi []Exporter

// Export implements Exporter.
func (m Multi) Export(ctx context.Context, b Bundle) ([]Artifact, error) {
	var out []Artifact
	for _, e := range m {
		arts, err := e.Export(ctx, b)
		out = append(out, arts...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// SortArtifacts orders artifacts by path for stable listings.
func SortArtifacts(arts []Artifact) {
	sort.SliceStable(arts, func(i, j int) bool {
		if arts[i].Path != arts[j].Path {
			return arts[i].Path < arts[j].Path
		}
		return arts[i].Name < arts[j].Name
	})
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
