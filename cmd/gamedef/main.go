package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/gamedef/pkg/config"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/source"
	"github.com/ormasoftchile/gamedef/pkg/telemetry"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// errInvalid signals a completed validation that did not pass. The report has
// already been printed, so main only sets the exit status.
var errInvalid = errors.New("validation failed")

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: .env: %v\n", err)
	}
	root, a := newRootCmd()
	err := root.Execute()
	// Runs even when a command failed; cobra skips post-run hooks on error.
	if cerr := a.close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error: telemetry shutdown: %v\n", cerr)
	}
	if err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, built once per invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	catalog  *registry.Registry
	loader   *gamedef.Preprocessor
	ruleset  []rules.Rule
	shutdown func(context.Context) error

	// persistent flags
	registryDir string
	rulesetPath string
	logLevel    string
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "gamedef",
		Short:         "Game definition validator",
		Long:          "gamedef checks game definition documents: structure, id references and semantic rules.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.registryDir, "registry", "", "Registry directory (overrides GAMEDEF_REGISTRY_DIR; default: embedded registry)")
	root.PersistentFlags().StringVar(&a.rulesetPath, "ruleset", "", "Extra declarative rules file (overrides GAMEDEF_RULESET)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides GAMEDEF_LOG_LEVEL)")

	root.AddCommand(
		newValidateCmd(a),
		newPreprocessCmd(a),
		newSchemaCmd(),
		newDiagramCmd(a),
		newInspectCmd(a),
		newReplCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.registryDir != "" {
		cfg.RegistryDir = a.registryDir
	}
	if a.rulesetPath != "" {
		cfg.Ruleset = a.rulesetPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logger, err = telemetry.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.shutdown, err = telemetry.Setup(cmd.Context(), cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	a.catalog = registry.Default()
	if cfg.RegistryDir != "" {
		a.catalog = registry.OpenDir(cfg.RegistryDir)
	}
	a.loader = &gamedef.Preprocessor{Fetcher: source.New(cfg.FetchTimeout), Logger: a.logger}

	if cfg.Ruleset != "" {
		a.ruleset, err = rules.LoadRuleset(cfg.Ruleset)
		if err != nil {
			return err
		}
	}
	a.logger.Debug("configured", "registry", a.catalog.Name(), "ruleset", cfg.Ruleset, "concurrency", cfg.Concurrency)
	return nil
}

func (a *app) close() error {
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}

// options is the validation configuration derived from env and flags.
func (a *app) options() validate.Options {
	return validate.Options{
		Catalog:     a.catalog,
		Ruleset:     a.ruleset,
		Policy:      a.cfg.Policy(),
		Concurrency: a.cfg.Concurrency,
		Logger:      a.logger,
	}
}

func (a *app) load(ctx context.Context, input string) (*gamedef.Document, error) {
	return a.loader.Preprocess(ctx, input)
}

// displayName shortens a document location for headings.
func displayName(input string) string {
	if source.IsURL(input) {
		return source.Redact(input)
	}
	if _, err := os.Stat(input); err == nil {
		return filepath.Base(input)
	}
	return "<inline>"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gamedef %s (build: %s)\n", version, commit)
		},
	}
}
