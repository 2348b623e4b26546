package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/notas/internal/config"
	"github.com/jackzampolin/notas/internal/filestate"
	"github.com/jackzampolin/notas/internal/home"
	"github.com/jackzampolin/notas/internal/metrics"
	"github.com/jackzampolin/notas/internal/ocr"
	"github.com/jackzampolin/notas/internal/output"
	"github.com/jackzampolin/notas/internal/pipeline"
	"github.com/jackzampolin/notas/internal/raster"
	"github.com/jackzampolin/notas/internal/runlog"
)

var (
	runWorkers int
	runTimeout time.Duration
	runDPI     int
	runAll     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "OCR and rename every invoice in the input directory",
	Long: `Process every PDF in the input directory concurrently.

Each document is rendered page by page, recognized by a pool of Tesseract
engines, and renamed to "<customer> - Nota <invoice> - Pedido <order>.pdf".
Documents that fail at any step are renamed with the failure prefix and
logged to the failure log. The command exits 0 even when documents fail;
only setup errors (config, directories, OCR engines) are fatal.

Examples:
  notas run                          # Process ./arquivos with 50 engines
  notas run --workdir /srv/notas     # Use another workspace
  notas run --workers 8 --dpi 300    # Fewer engines, sharper pages
  notas run -o json --all            # Report every document as JSON

Ctrl+C stops the batch: documents already recognized are finished, the rest
keep their original names and are picked up by the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyRunFlags(cmd, mgr); err != nil {
			return err
		}
		cfg := mgr.Get()

		var level slog.LevelVar
		lvl, _ := cfg.Level()
		level.Set(lvl)
		logger := newLogger(&level)

		mgr.OnChange(func(c *config.Config) {
			if l, err := c.Level(); err == nil && l != level.Level() {
				level.Set(l)
				logger.Info("log level changed", "level", l)
			}
		})
		if mgr.File() != "" {
			mgr.WatchConfig()
		}

		h, err := home.New(cfg.Workdir, home.Layout{
			InputDir:   cfg.InputDir,
			ScratchDir: cfg.ScratchDir,
			SuccessLog: cfg.SuccessLog,
			FailureLog: cfg.FailureLog,
		})
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		docs, err := pipeline.Scan(h.InputPath(), cfg.FileSuffix, cfg.FailedPrefix)
		if err != nil {
			return err
		}

		runID := uuid.New().String()
		logger = logger.With("run_id", runID)
		logger.Info("documents found", "count", len(docs), "input", h.InputPath())

		runLog, err := runlog.Open(h.SuccessLogPath(), h.FailureLogPath())
		if err != nil {
			return err
		}
		defer runLog.Close()

		timeout, err := cfg.JobTimeout()
		if err != nil {
			return err
		}

		recorder := metrics.NewRecorder(runID)

		start := time.Now()
		pool, err := ocr.NewPool(ctx, ocr.PoolConfig{
			Name:       "tesseract",
			Logger:     logger,
			Metrics:    recorder,
			Size:       cfg.OCR.Workers,
			Language:   cfg.OCR.Language,
			JobTimeout: timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to start ocr engines: %w", err)
		}
		logger.Info("ocr engines ready", "workers", pool.Size(), "duration", time.Since(start))

		processor, err := pipeline.NewProcessor(pipeline.ProcessorConfig{
			OCR: pool,
			Rasterizer: raster.NewPoppler(raster.PopplerConfig{
				Command: cfg.Raster.Command,
				DPI:     cfg.Raster.DPI,
				Workers: cfg.Raster.Workers,
				Logger:  logger,
			}),
			Machine:     filestate.New(cfg.FailedPrefix),
			Log:         runLog,
			InputDir:    h.InputPath(),
			ScratchPath: h.ScratchImagePath,
			Logger:      logger,
		})
		if err != nil {
			_ = pool.Shutdown()
			return err
		}

		batch, err := pipeline.NewBatch(pipeline.BatchConfig{
			RunID:     runID,
			Processor: processor,
			Pool:      pool,
			Metrics:   recorder,
			Logger:    logger,
		})
		if err != nil {
			_ = pool.Shutdown()
			return err
		}

		summary, err := batch.Run(ctx, docs)
		if err != nil {
			logger.Error("batch teardown failed", "error", err)
		}

		if summary.Interrupted > 0 {
			logger.Warn("batch interrupted; remaining documents kept their names", "pending", summary.Interrupted)
		}
		if !runAll {
			summary.Outcomes = append(summary.Failed(), summary.Pending()...)
		}
		return output.Print(summary)
	},
}

// applyRunFlags lets explicit flags win over the config file.
func applyRunFlags(cmd *cobra.Command, mgr *config.Manager) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		if err := mgr.Set("ocr.workers", runWorkers); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if err := mgr.Set("ocr.job_timeout", runTimeout.String()); err != nil {
			return err
		}
	}
	if flags.Changed("dpi") {
		if err := mgr.Set("raster.dpi", runDPI); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 50, "number of OCR engines")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "per-page OCR timeout (0 disables)")
	runCmd.Flags().IntVar(&runDPI, "dpi", 216, "page render resolution")
	runCmd.Flags().BoolVar(&runAll, "all", false, "list every document in the report, not only failures")

	rootCmd.AddCommand(runCmd)
}
