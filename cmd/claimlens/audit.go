package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/helpers"
	"github.com/spektr-org/claimlens/schema"
)

type auditOutput struct {
	Path    string                   `json:"path"`
	Today   string                   `json:"today"`
	Records int                      `json:"records"`
	Schema  schema.Config            `json:"schema"`
	Columns []schema.ColumnProfile   `json:"columns,omitempty"`
	Quality engine.DataQualityReport `json:"quality"`
}

func newAuditCommand(a *app) *cobra.Command {
	var discover bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Profile a ledger and count data quality issues",
		Long: `Count missing values, negative costs and future admission dates without
running the rest of the report. With --discover the date and cost columns are
guessed from the data instead of taken from the config.`,
		Example: `  claimlens audit --input claims.csv
  claimlens audit --input export.csv --discover --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAudit(discover)
		},
	}
	cmd.Flags().BoolVar(&discover, "discover", false, "guess the date and cost columns from the data")
	return cmd
}

func (a *app) runAudit(discover bool) error {
	a.noExport, a.noNotify = true, true
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := a.newLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Input.Path == "" {
		return fmt.Errorf("%w: no input path", helpers.ErrNoInput)
	}
	data, err := os.ReadFile(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Input.Path, err)
	}

	out := auditOutput{Path: cfg.Input.Path, Schema: cfg.Input.Schema}
	if discover {
		profile, err := schema.Discover(data, schema.DiscoverOptions{SampleSize: 1000, Base: cfg.Input.Schema})
		if err != nil {
			return err
		}
		out.Schema = profile.Schema
		out.Columns = profile.Columns
		logger.Info("schema discovered",
			zap.String("date_column", profile.Schema.DateColumn),
			zap.String("cost_column", profile.Schema.CostColumn),
			zap.Int("columns", len(profile.Columns)),
		)
	}

	ledger, err := helpers.ParseCSV(data, out.Schema)
	if err != nil {
		return err
	}
	today, err := cfg.ReferenceDate(a.now())
	if err != nil {
		return err
	}
	report, err := engine.Audit(engine.NewSliceView(ledger), today, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	out.Today = today.Format(engine.DateLayout)
	out.Records = len(ledger.Claims)
	out.Quality = report

	if a.format == formatJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return renderAudit(a.out, out)
}

// profileTable lists discovered columns for text output.
func profileTable(cols []schema.ColumnProfile) *engine.TableData {
	t := &engine.TableData{
		Title: "Columns",
		Columns: []engine.Column{
			{Key: "key", Label: "Column", Type: "text", Align: "left"},
			{Key: "type", Label: "Type", Type: "text", Align: "left"},
			{Key: "nulls", Label: "Nulls", Type: "number", Align: "right"},
			{Key: "unique", Label: "Unique", Type: "number", Align: "right"},
		},
	}
	for _, c := range cols {
		t.Rows = append(t.Rows, []string{c.Key, c.Type, strconv.Itoa(c.NullCount), strconv.Itoa(c.UniqueCount)})
	}
	return t
}
