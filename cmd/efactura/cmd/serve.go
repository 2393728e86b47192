package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/efactura-editor/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for editing invoices.

The server keeps no invoice between requests. Clients post the state
returned by a previous call and receive the updated state.

The API provides endpoints for:
  - GET  /api/v1/catalogs            - Code lists for the form
  - POST /api/v1/invoice/new         - Empty invoice template
  - POST /api/v1/invoice/import      - Load a UBL XML document
  - POST /api/v1/invoice/totals      - Recompute totals
  - POST /api/v1/invoice/apply       - Run editing actions
  - POST /api/v1/invoice/storno      - Flip every sign
  - POST /api/v1/invoice/export      - Validate and download the XML
  - GET  /api/v1/invoice/temp/:name  - Load a server hosted temp file once
  - GET  /health                     - Health check

Examples:
  # Start server on the configured HTTP_HOST:HTTP_PORT
  efactura serve

  # Start on a custom address in debug mode
  efactura serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default HTTP_HOST:HTTP_PORT)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serverAddr
	if addr == "" {
		addr = cfg.HTTP.Addr()
	}

	if err := os.MkdirAll(cfg.Editor.TempDir, 0o750); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	config := &server.Config{
		Address:                  addr,
		ReadTimeout:              cfg.HTTP.ReadTimeout,
		WriteTimeout:             cfg.HTTP.WriteTimeout,
		Debug:                    serverDebug || cfg.IsDevelopment(),
		Locale:                   cfg.Editor.Locale,
		DefaultCurrency:          cfg.Editor.DefaultCurrency,
		DefaultVATRate:           cfg.Editor.DefaultVATRate,
		ClearOverridesOnLineEdit: cfg.Editor.ClearOverridesOnLineEdit,
		TempDir:                  cfg.Editor.TempDir,
		Logger:                   log,
	}

	srv := server.NewServer(config)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down server")
		os.Exit(0)
	}()

	log.Info().
		Str("address", addr).
		Str("env", cfg.App.Env).
		Str("temp_dir", cfg.Editor.TempDir).
		Msg("starting server")

	return srv.Run()
}
