package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/notas/internal/config"
	"github.com/jackzampolin/notas/internal/output"
	"github.com/jackzampolin/notas/version"
)

var (
	cfgFile      string
	workDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "notas",
	Short: "Rename scanned NF-e invoices after the data printed on them",
	Long: `Notas OCRs a directory of scanned NF-e (Brazilian electronic invoice) PDFs
and renames each one after its customer, invoice number and order number:

  JOÃO DA SILVA - Nota 3911 - Pedido 4521.pdf

Documents whose fields cannot be read are renamed with a "FALHOU - " prefix
instead, so nothing is silently skipped. Every document gets one line in
out.log or falhas.log with the recognized text.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./notas.yaml or ~/.notas/notas.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&workDir, "workdir", "", "workspace holding arquivos/, tmp/ and the logs (default: config workdir or .)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		f, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		output.SetFormat(f)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads <workdir>/.env and the config file, then applies --workdir.
func loadConfig() (*config.Manager, error) {
	dir := workDir
	if dir == "" {
		dir = "."
	}
	if err := config.LoadEnvFile(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	if workDir != "" {
		if err := mgr.Set("workdir", workDir); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

// newLogger logs to stderr so stdout stays parseable.
func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
