package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"knockoutgames/gateway/internal/api"
	"knockoutgames/gateway/internal/commit"
	"knockoutgames/gateway/internal/config"
	"knockoutgames/gateway/internal/engine"
	"knockoutgames/gateway/internal/journal"
	"knockoutgames/gateway/internal/ledger"
	"knockoutgames/gateway/internal/secret"
)

const shutdownGrace = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "kogd",
		Short: "Knockout gateway daemon",
		Long:  "kogd bridges game UIs to the knockout ledger: commitment building, reveal preparation, and event-driven instance state reconciliation.",
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	logger := log.NewLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	deriver, err := secret.NewDeriver(cfg.MasterSecret, logger)
	if err != nil {
		return err
	}

	var jrnl *journal.Store
	if cfg.JournalPath != "" {
		jrnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = jrnl.Close() }()
	} else {
		logger.Info("journal disabled")
	}

	comet, err := ledger.DialComet(cfg.CometRPC, logger)
	if err != nil {
		return fmt.Errorf("dial ledger: %w", err)
	}
	defer func() { _ = comet.Close() }()

	var store ledger.EventStore
	if jrnl != nil {
		store = jrnl
	}
	deduper := ledger.NewDeduper(store, logger)
	manager := engine.NewManager(comet, comet, deduper, logger)
	defer manager.Close(context.Background())

	srv := api.NewServer(
		commit.NewBuilder(deriver, logger),
		commit.NewCoordinator(deriver, logger),
		manager, comet, jrnl, logger,
	)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddr, "ledger", cfg.CometRPC)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
