package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/claimlens"
	"github.com/spektr-org/claimlens/internal/config"
	"github.com/spektr-org/claimlens/internal/logging"
)

// Output formats for stdout.
const (
	formatText = "text"
	formatJSON = "json"
)

// app carries flags and IO shared by the subcommands.
type app struct {
	configPath string
	input      string
	today      string
	outDir     string
	format     string
	noNotify   bool
	noExport   bool

	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, now: time.Now}

	cmd := &cobra.Command{
		Use:           "claimlens",
		Short:         "Weekly analytics for a claims ledger",
		Long:          "claimlens audits a claims export, selects weekly, monthly and yearly windows, flags cost anomalies, measures cost concentration and delivers a summary report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       claimlens.Version,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a claimlens YAML config (default ./claimlens.yaml when present)")
	cmd.PersistentFlags().StringVar(&a.input, "input", "", "path to the claims CSV (overrides input.path)")
	cmd.PersistentFlags().StringVar(&a.today, "today", "", "reference date YYYY-MM-DD (overrides report.today)")
	cmd.PersistentFlags().StringVar(&a.format, "format", formatText, "stdout format: text or json")

	cmd.AddCommand(
		newReportCommand(a),
		newAuditCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the claimlens version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.out, "claimlens %s\n", claimlens.Version)
			return err
		},
	}
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.input != "" {
		cfg.Input.Path = a.input
	}
	if a.today != "" {
		cfg.Report.Today = a.today
	}
	if a.outDir != "" {
		cfg.Export.Dir = a.outDir
	}
	if a.noExport {
		cfg.Export.Enabled = false
	}
	if a.noNotify {
		cfg.Notify.Enabled = false
	}
	if a.format != formatText && a.format != formatJSON {
		return nil, fmt.Errorf("unknown --format %q (want text or json)", a.format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the zap logger writing to stderr.
func (a *app) newLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, closer, err := logging.New(cfg.Logging, a.errOut)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
		_ = closer.Close()
	}
	return logger, cleanup, nil
}
