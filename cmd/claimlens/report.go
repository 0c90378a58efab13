package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/export"
	"github.com/spektr-org/claimlens/helpers"
	"github.com/spektr-org/claimlens/internal/config"
	"github.com/spektr-org/claimlens/internal/metrics"
	"github.com/spektr-org/claimlens/notify"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the weekly claims report",
		Long: `Load the ledger, run the quality audit, window selection, anomaly detection
and concentration analysis, print the summary, write the artifacts and send
the weekly notification.`,
		Example: `  claimlens report --input claims.csv
  claimlens report --input claims.csv --today 2024-03-15 --out reports/ --no-notify
  claimlens report --config claimlens.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.outDir, "out", "", "artifact directory (overrides export.dir)")
	cmd.Flags().BoolVar(&a.noExport, "no-export", false, "skip writing artifacts")
	cmd.Flags().BoolVar(&a.noNotify, "no-notify", false, "skip the notification")
	return cmd
}

func (a *app) runReport(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := a.newLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	started := a.now()

	// ── Load ──────────────────────────────────────────────────────────────
	ledger, err := helpers.LoadCSV(cfg.Input.Path, cfg.Input.Schema)
	if err != nil {
		logger.Error("failed to load ledger", zap.String("path", cfg.Input.Path), zap.Error(err))
		return err
	}
	logger.Info("ledger loaded", zap.String("path", cfg.Input.Path), zap.Int("records", len(ledger.Claims)))

	today, err := cfg.ReferenceDate(started)
	if err != nil {
		return err
	}

	// ── Analyse ───────────────────────────────────────────────────────────
	view := engine.NewSliceView(ledger)
	opts := append(cfg.EngineOptions(), engine.WithLogger(logger))
	result, err := engine.Run(ctx, view, today, opts...)
	if err != nil {
		return err
	}
	bundle := export.NewBundle(runID, started, result)

	// ── Print ─────────────────────────────────────────────────────────────
	if err := a.printReport(view, bundle); err != nil {
		return err
	}

	// ── Export ────────────────────────────────────────────────────────────
	var artifacts []export.Artifact
	if cfg.Export.Enabled {
		artifacts, err = exportBundle(ctx, cfg, bundle, logger)
		if err != nil {
			return err
		}
	}

	// ── Metrics ───────────────────────────────────────────────────────────
	if cfg.Metrics.Textfile != "" {
		m := metrics.NewRun()
		finished := a.now()
		m.Observe(result, finished, finished.Sub(started))
		m.ExportedFiles.Set(float64(len(artifacts)))
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	// ── Notify ────────────────────────────────────────────────────────────
	if cfg.Notify.Enabled {
		if err := sendNotification(ctx, cfg, bundle, logger); err != nil {
			logger.Error("notification failed", zap.String("transport", cfg.Notify.Transport), zap.Error(err))
			return err
		}
	}

	logger.Info("report complete", zap.Duration("took", a.now().Sub(started)))
	return nil
}

func exportBundle(ctx context.Context, cfg *config.Config, bundle export.Bundle, logger *zap.Logger) ([]export.Artifact, error) {
	exp, err := export.FromFormats(cfg.Export.Formats, cfg.Export.Dir)
	if err != nil {
		return nil, err
	}
	artifacts, err := exp.Export(ctx, bundle)
	if err != nil {
		logger.Error("export failed", zap.String("dir", cfg.Export.Dir), zap.Error(err))
		return nil, fmt.Errorf("export: %w", err)
	}
	export.SortArtifacts(artifacts)
	for _, art := range artifacts {
		logger.Info("artifact written",
			zap.String("name", art.Name),
			zap.String("format", art.Format),
			zap.String("path", art.Path),
			zap.Int("rows", art.Rows),
		)
	}
	return artifacts, nil
}

func sendNotification(ctx context.Context, cfg *config.Config, bundle export.Bundle, logger *zap.Logger) error {
	msg, err := notify.RenderSummary(bundle, cfg.Notify.Signature)
	if err != nil {
		return err
	}
	n, err := notify.New(cfg.Notify.Config)
	if err != nil {
		return err
	}
	if c, ok := n.(interface{ Close() error }); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := n.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	logger.Info("notification sent",
		zap.String("transport", cfg.Notify.Transport),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

// printReport writes the summary to stdout in the selected format.
func (a *app) printReport(view engine.ClaimView, bundle export.Bundle) error {
	if a.format == formatJSON {
		data, err := export.EncodeDocument(export.NewDocument(bundle), export.FormatJSON)
		if err != nil {
			return err
		}
		_, err = a.out.Write(data)
		return err
	}
	text := engine.BuildText(notify.Subject(bundle.Result.Today), view, bundle.Result)
	summary, _ := bundle.Table(export.ArtifactSummary)
	return renderText(a.out, text, summary)
}
