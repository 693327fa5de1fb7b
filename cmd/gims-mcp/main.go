// Command gims-mcp serves GIMS automation platform operations as MCP tools
// over stdio. Stdout carries the protocol, so all logging goes to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gimsops/gims-mcp/config"
	"github.com/gimsops/gims-mcp/gims"
	"github.com/gimsops/gims-mcp/govern"
	"github.com/gimsops/gims-mcp/tools"
)

const (
	serverName    = "gims-automation"
	serverVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gims-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := gims.NewClient(gims.Config{
		URL:          cfg.URL,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		VerifySSL:    cfg.VerifySSL,
	})
	if err != nil {
		return err
	}

	srv, err := tools.New(tools.Config{
		Client:           client,
		Limiter:          govern.NewLimiter(cfg.MaxResponseSizeKB),
		Logger:           logger,
		LogStreamTimeout: cfg.LogStreamTimeout,
		Name:             serverName,
		Version:          serverVersion,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting MCP server", "instance", client.BaseURL(), "verify_ssl", cfg.VerifySSL)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
