package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/snippetexec/internal/server"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the snippetexec HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST /v1/execute
  GET  /v1/functions[?q=...&limit=...]
  GET  /v1/functions/{id}[?detail=full]
  GET  /healthz

Examples:
  snippetexec serve
  snippetexec serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)

	engine, err := cfg.NewEngine(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	addr := cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}
	srv := server.New(engine, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
