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

	"github.com/spf13/cobra"

	graphql "github.com/Protocol-Lattice/slingql"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   `serve`,
		Short: `Serve - Start the GraphQL HTTP and WebSocket server`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	flags := cmd.Flags()
	flags.StringVar(&listen, `listen`, ``, `address to listen on; overrides the config file`)
	flags.StringVar(&schemaPath, `schema`, ``, `path to the SDL schema; overrides the config file`)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	p, err := newPools(cfg, logger)
	if err != nil {
		return err
	}
	sdl, err := os.ReadFile(cfg.Schema)
	if err != nil {
		return fmt.Errorf("failed to read schema %q: %w", cfg.Schema, err)
	}
	svc, err := graphql.Build(string(sdl),
		graphql.WithFetchers(p.fetchers),
		graphql.WithScalars(p.scalars),
		graphql.WithFallback(p.scripts),
		graphql.WithResolveOptions(cfg.ResolveOptions()...),
		graphql.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to bind schema %q: %w", cfg.Schema, err)
	}

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: svc.Routes(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("GraphQL server is running", "listen", cfg.Listen, "rule", cfg.Namespace.String())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on %s: %w", cfg.Listen, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exiting")
	return nil
}
