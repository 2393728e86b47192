package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rezonia/efactura-editor/internal/config"
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/logger"
	"github.com/rezonia/efactura-editor/internal/numfmt"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configDir    string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "efactura",
	Short: "Edit and check Romanian e-Factura (UBL 2.1 / CIUS-RO) invoices",
	Long: `efactura loads, recomputes and writes Romanian e-Factura invoices.

Supports:
  - UBL 2.1 Invoice documents with the CIUS-RO customization
  - VAT categories S, AE, O, Z, E and K
  - Storno (sign-flipped) invoices
  - An HTTP API for browser based editors

Examples:
  # Check invoices before upload
  efactura validate factura.xml

  # Compare stored totals with a fresh computation
  efactura totals factura.xml

  # Produce the storno of an invoice
  efactura storno factura.xml -o storno.xml

  # Start the API server
  efactura serve`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding .env or config/config.* files")
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadFrom(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	if outputFormat != "json" && outputFormat != "table" {
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr}
	if verbose {
		logCfg.Level = "debug"
	} else if cmd.Name() != "serve" {
		// One-shot commands stay quiet unless something goes wrong
		logCfg.Level = "warn"
	}
	log, err = logger.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	return nil
}

func newSession() *editor.Session {
	return editor.NewSession(
		editor.WithLogger(logger.WithComponent("editor")),
		editor.WithDefaultCurrency(cfg.Editor.DefaultCurrency),
		editor.WithStandardRate(cfg.Editor.DefaultVATRate),
		editor.WithClearOverridesOnLineEdit(cfg.Editor.ClearOverridesOnLineEdit),
	)
}

func newFormatter() *numfmt.Formatter {
	return numfmt.New(cfg.Editor.Locale)
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
