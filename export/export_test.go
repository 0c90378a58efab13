package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/claimlens/engine"
)

var (
	testToday     = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	testGenerated = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
)

func rec(id, date string, cost float64, hasCost bool) engine.ClaimRecord {
	c := engine.ClaimRecord{Attributes: map[string]string{"claim_id": id}}
	if date != "" {
		t, _ := time.Parse(engine.DateLayout, date)
		c.AdmissionDate = sql.NullTime{Time: t, Valid: true}
	}
	if hasCost {
		c.ClaimCost = sql.NullFloat64{Float64: cost, Valid: true}
	}
	return c
}

func testBundle(t *testing.T) Bundle {
	t.Helper()
	ledger := &engine.Ledger{
		Columns: []string{"claim_id", engine.ColumnAdmissionDate, engine.ColumnClaimCost},
		Claims: []engine.ClaimRecord{
			rec("C-01", "2024-03-14", 100, true),
			rec("C-02", "2024-03-13", 200, true),
			rec("C-03", "2024-03-12", 300, true),
			rec("C-04", "2024-03-05", 400, true),
			rec("C-05", "2024-03-04", 500, true),
			rec("C-06", "2024-02-20", 600, true),
			rec("C-07", "2024-01-10", 700, true),
			rec("C-08", "", 800, true),
			rec("C-09", "2024-03-10", 0, false),
			rec("C-10", "2024-03-09", 1000, true),
		},
	}
	res, err := engine.Run(context.Background(), engine.NewSliceView(ledger), testToday)
	require.NoError(t, err)
	return NewBundle("run-1", testGenerated, res)
}

func TestNewBundle(t *testing.T) {
	b := testBundle(t)
	require.Len(t, b.Tables, 5)

	names := make([]string, len(b.Tables))
	for i, tbl := range b.Tables {
		names[i] = tbl.Title
	}
	assert.Equal(t, []string{
		ArtifactWeeklyClaims, ArtifactSummary, ArtifactAnomalies, ArtifactTopContributors, ArtifactMissingData,
	}, names)

	weekly, ok := b.Table(ArtifactWeeklyClaims)
	require.True(t, ok)
	assert.Len(t, weekly.Rows, 5)

	top, ok := b.Table(ArtifactTopContributors)
	require.True(t, ok)
	require.Len(t, top.Rows, 1)
	assert.Equal(t, []string{"C-10", "2024-03-09", "1000.00"}, top.Rows[0])

	_, ok = b.Table("nope")
	assert.False(t, ok)

	empty := NewBundle("run-2", testGenerated, nil)
	assert.Empty(t, empty.Tables)
}

func TestCSVExporter(t *testing.T) {
	dir := t.TempDir()
	b := testBundle(t)

	arts, err := (&CSVExporter{Dir: dir}).Export(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, arts, 5)

	data, err := os.ReadFile(filepath.Join(dir, "weekly_claims.csv"))
	require.NoError(t, err)
	assert.Equal(t, "claim_id,admission_date,claim_cost\n"+
		"C-01,2024-03-14,100.00\n"+
		"C-02,2024-03-13,200.00\n"+
		"C-03,2024-03-12,300.00\n"+
		"C-09,2024-03-10,\n"+
		"C-10,2024-03-09,1000.00\n", string(data))

	missing, err := os.ReadFile(filepath.Join(dir, "missing_data_detail.csv"))
	require.NoError(t, err)
	assert.Equal(t, "column,missing_count\nclaim_id,0\nadmission_date,1\nclaim_cost,1\n", string(missing))

	anomalies, err := os.ReadFile(filepath.Join(dir, "anomalies.csv"))
	require.NoError(t, err)
	assert.Equal(t, "claim_id,admission_date,claim_cost,z_score\n", string(anomalies))
}

func TestCSVExporterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	b := testBundle(t)
	exp := &CSVExporter{Dir: dir}

	_, err := exp.Export(context.Background(), b)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	require.NoError(t, err)

	_, err = exp.Export(context.Background(), b)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDocumentExporterJSON(t *testing.T) {
	dir := t.TempDir()
	arts, err := (&DocumentExporter{Dir: dir, Format: FormatJSON}).Export(context.Background(), testBundle(t))
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, filepath.Join(dir, "summary.json"), arts[0].Path)
	assert.Equal(t, 15, arts[0].Rows)

	data, err := os.ReadFile(arts[0].Path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, "2024-03-15T09:30:00Z", doc.GeneratedAt)
	assert.Equal(t, "2024-03-15", doc.Today)
	assert.Equal(t, 10, doc.Records)
	assert.Equal(t, 1, doc.Quality.MissingByCol[engine.ColumnClaimCost])
	assert.Equal(t, 1, doc.Concentration.K)
	assert.Equal(t, 1000.0, doc.Concentration.TopCost)
	assert.Equal(t, 0, doc.Anomalies.Count)
	assert.False(t, doc.Anomalies.Degenerate)
	require.Len(t, doc.Summary, 15)
	assert.Equal(t, engine.MetricClaimsThisWeek, doc.Summary[0].Name)
	assert.Equal(t, "5", doc.Summary[0].Value)
}

func TestDocumentExporterYAML(t *testing.T) {
	dir := t.TempDir()
	exp, err := New("yml", dir)
	require.NoError(t, err)

	arts, err := exp.Export(context.Background(), testBundle(t))
	require.NoError(t, err)
	require.Len(t, arts, 1)

	data, err := os.ReadFile(filepath.Join(dir, "summary.yaml"))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 2, doc.Quality.MissingValues)
	assert.Equal(t, 3.0, doc.Anomalies.Threshold)
}

func TestEncodeDocumentUnknownFormat(t *testing.T) {
	_, err := EncodeDocument(Document{}, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSQLiteExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.db")
	exp := &SQLiteExporter{Path: path}
	b := testBundle(t)

	// Exporting twice must leave exactly one run behind.
	_, err := exp.Export(context.Background(), b)
	require.NoError(t, err)
	arts, err := exp.Export(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, arts, 5)
	for _, a := range arts {
		assert.Equal(t, FormatSQLite, a.Format)
		assert.Equal(t, path, a.Path)
	}

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	count := func(table string) int {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+quoteIdent(table)).Scan(&n))
		return n
	}
	assert.Equal(t, 1, count("runs"))
	assert.Equal(t, 5, count(ArtifactWeeklyClaims))
	assert.Equal(t, 15, count(ArtifactSummary))
	assert.Equal(t, 0, count(ArtifactAnomalies))
	assert.Equal(t, 1, count(ArtifactTopContributors))
	assert.Equal(t, 3, count(ArtifactMissingData))

	var total float64
	require.NoError(t, db.QueryRow(`SELECT SUM(claim_cost) FROM weekly_claims`).Scan(&total))
	assert.Equal(t, 1600.0, total)

	var nulls int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM weekly_claims WHERE claim_cost IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)

	var runID, today string
	require.NoError(t, db.QueryRow(`SELECT run_id, today FROM runs`).Scan(&runID, &today))
	assert.Equal(t, "run-1", runID)
	assert.Equal(t, "2024-03-15", today)
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New("xlsx", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = FromFormats([]string{"csv", "pdf"}, t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestMultiExport(t *testing.T) {
	dir := t.TempDir()
	exp, err := FromFormats([]string{"csv", "json", "sqlite"}, dir)
	require.NoError(t, err)

	arts, err := exp.Export(context.Background(), testBundle(t))
	require.NoError(t, err)
	assert.Len(t, arts, 11)

	SortArtifacts(arts)
	assert.Equal(t, filepath.Join(dir, "anomalies.csv"), arts[0].Path)
	for i := 1; i < len(arts); i++ {
		assert.LessOrEqual(t, arts[i-1].Path, arts[i].Path)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := testBundle(t)
	dir := t.TempDir()

	for _, f := range []string{FormatCSV, FormatJSON, FormatSQLite} {
		exp, err := New(f, dir)
		require.NoError(t, err)
		_, err = exp.Export(ctx, b)
		assert.ErrorIs(t, err, context.Canceled, f)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
