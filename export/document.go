package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/claimlens/engine"
)

// Document is the machine-readable report written as summary.json / summary.yaml.
type Document struct {
	RunID         string               `json:"run_id" yaml:"run_id"`
	GeneratedAt   string               `json:"generated_at" yaml:"generated_at"`
	Today         string               `json:"today" yaml:"today"`
	Records       int                  `json:"records" yaml:"records"`
	Summary       []engine.Metric      `json:"summary" yaml:"summary"`
	Quality       QualitySection       `json:"quality" yaml:"quality"`
	Anomalies     AnomalySection       `json:"anomalies" yaml:"anomalies"`
	Concentration ConcentrationSection `json:"concentration" yaml:"concentration"`
}

// QualitySection mirrors engine.DataQualityReport.
type QualitySection struct {
	MissingValues int            `json:"missing_values" yaml:"missing_values"`
	NegativeCosts int            `json:"negative_costs" yaml:"negative_costs"`
	FutureDates   int            `json:"future_dates" yaml:"future_dates"`
	MissingByCol  map[string]int `json:"missing_by_column" yaml:"missing_by_column"`
}

// AnomalySection carries the distribution the z-scores were computed from.
type AnomalySection struct {
	Count      int     `json:"count" yaml:"count"`
	Mean       float64 `json:"mean" yaml:"mean"`
	StdDev     float64 `json:"std_dev" yaml:"std_dev"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
	Degenerate bool    `json:"degenerate" yaml:"degenerate"`
}

// ConcentrationSection is the Pareto cut; Share is "NA" when undefined.
type ConcentrationSection struct {
	TopPercent int     `json:"top_percent" yaml:"top_percent"`
	K          int     `json:"k" yaml:"k"`
	TopCost    float64 `json:"top_cost" yaml:"top_cost"`
	TotalCost  float64 `json:"total_cost" yaml:"total_cost"`
	Share      string  `json:"share" yaml:"share"`
}

// NewDocument flattens a bundle into its document form.
func NewDocument(b Bundle) Document {
	doc := Document{
		RunID:       b.RunID,
		GeneratedAt: b.GeneratedAt.Format(time.RFC3339),
	}
	r := b.Result
	if r == nil {
		return doc
	}

	doc.Today = r.Today.Format(engine.DateLayout)
	doc.Records = r.Records
	doc.Summary = r.Summary.Metrics()

	doc.Quality = QualitySection{
		MissingValues: r.Quality.MissingValues,
		NegativeCosts: r.Quality.NegativeCosts,
		FutureDates:   r.Quality.FutureDates,
		MissingByCol:  make(map[string]int, len(r.Quality.MissingByColumn)),
	}
	for _, c := range r.Quality.MissingByColumn {
		doc.Quality.MissingByCol[c.Column] = c.Count
	}

	doc.Anomalies = AnomalySection{
		Count:      r.Anomalies.Count(),
		Mean:       engine.RoundTo2(r.Anomalies.Mean),
		StdDev:     engine.RoundTo2(r.Anomalies.StdDev),
		Threshold:  r.Anomalies.Threshold,
		Degenerate: r.Anomalies.Degenerate,
	}

	doc.Concentration = ConcentrationSection{
		TopPercent: r.Concentration.TopPercent,
		K:          r.Concentration.K,
		TopCost:    engine.RoundTo2(r.Concentration.TopCost),
		TotalCost:  engine.RoundTo2(r.Concentration.TotalCost),
		Share:      engine.FormatPercent(r.Concentration.Ratio),
	}
	return doc
}

// DocumentExporter writes the report document as JSON or YAML.
type DocumentExporter struct {
	Dir    string
	Format string // FormatJSON or FormatYAML
}

// Export implements Exporter.
func (e *DocumentExporter) Export(ctx context.Context, b Bundle) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := NewDocument(b)
	data, err := EncodeDocument(doc, e.Format)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(e.Dir, ArtifactSummary+"."+e.Format)
	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	return []Artifact{{Name: ArtifactSummary, Format: e.Format, Path: path, Rows: len(doc.Summary)}}, nil
}

// EncodeDocument serialises a document in the given format.
func EncodeDocument(doc Document, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
