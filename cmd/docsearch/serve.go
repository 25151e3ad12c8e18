package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MissionSquad/missionsquad-docs/internal/proxy"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the credential-hiding streaming proxy",
		Long:  `Runs the edge proxy that forwards /api/embed and /api/ask to the upstream provider, injecting the server-held credential and streaming SSE responses back to the browser.`,
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Bool("dev-rewrite", false, "Scrub Referer/Origin on upstream requests (local dev)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	key, err := cfg.APIKey()
	if err != nil {
		return err
	}

	addr := cfg.Proxy.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}
	devRewrite := cfg.Proxy.DevRewrite
	if v, _ := cmd.Flags().GetBool("dev-rewrite"); v {
		devRewrite = true
	}

	srv, err := proxy.NewServer(proxy.Config{
		Addr:       addr,
		BaseURL:    cfg.Upstream.BaseURL,
		APIKey:     key,
		DevRewrite: devRewrite,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
