package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"

	"github.com/spektr-org/claimlens/engine"
)

// CSVExporter writes one CSV file per bundle table.
type CSVExporter struct {
	Dir string
}

// Export implements Exporter.
func (e *CSVExporter) Export(ctx context.Context, b Bundle) ([]Artifact, error) {
	arts := make([]Artifact, 0, len(b.Tables))
	for _, t := range b.Tables {
		if err := ctx.Err(); err != nil {
			return arts, err
		}
		data, err := EncodeCSV(t)
		if err != nil {
			return arts, fmt.Errorf("encode %s: %w", t.Title, err)
		}
		path := filepath.Join(e.Dir, t.Title+".csv")
		if err := writeFile(path, data); err != nil {
			return arts, err
		}
		arts = append(arts, Artifact{Name: t.Title, Format: FormatCSV, Path: path, Rows: len(t.Rows)})
	}
	return arts, nil
}

// EncodeCSV renders a table with its column keys as the header row.
func EncodeCSV(t *engine.TableData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Keys()); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
