// Package main provides the gamedef-mcp binary, an MCP server for AI agents.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/gamedef/pkg/config"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	gmcp "github.com/ormasoftchile/gamedef/pkg/mcp"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/source"
	"github.com/ormasoftchile/gamedef/pkg/telemetry"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr.
	logger, err := telemetry.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(context.Background(), cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	catalog := registry.Default()
	if cfg.RegistryDir != "" {
		catalog = registry.OpenDir(cfg.RegistryDir)
	}
	var ruleset []rules.Rule
	if cfg.Ruleset != "" {
		if ruleset, err = rules.LoadRuleset(cfg.Ruleset); err != nil {
			return err
		}
	}

	h := &gmcp.Handlers{
		Loader: &gamedef.Preprocessor{Fetcher: source.New(cfg.FetchTimeout), Logger: logger},
		Options: validate.Options{
			Catalog:     catalog,
			Ruleset:     ruleset,
			Policy:      cfg.Policy(),
			Concurrency: cfg.Concurrency,
			Logger:      logger,
		},
	}
	logger.Info("serving MCP over stdio", "registry", catalog.Name(), "version", version)
	return server.ServeStdio(gmcp.NewServer(version, h))
}
