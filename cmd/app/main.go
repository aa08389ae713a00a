package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docsauthor/internal"
	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/console"
	"github.com/starford/docsauthor/internal/template"
	pkgconfig "github.com/starford/docsauthor/pkg/config"
)

var version = "dev"

// loadConfig applies the optional config file and the global flags to the
// defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Workspace.Root = root
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

// openTerminal wires the application for a one-shot command: progress goes to
// the console and only warnings are logged unless --verbose is set.
func openTerminal(cmd *cli.Command) (*internal.App, *console.Reporter, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelWarn
	if cmd.Bool("verbose") {
		level = cfg.App.LogLevel
	}
	rep := console.NewReporter(os.Stderr)
	app, err := internal.New(
		internal.WithConfig(cfg),
		internal.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))),
		internal.WithPublisher(console.NewPublisher(rep)),
	)
	if err != nil {
		return nil, nil, err
	}
	return app, rep, nil
}

// openService wires the application for long-running commands with JSON
// logs on stderr.
func openService(cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.New(internal.WithConfig(cfg))
}

// reportError prints err as a single line. Errors the author can act on are
// shown as is; anything else is logged as a tool failure.
func reportError(err error) {
	rep := console.NewReporter(os.Stderr)
	var connErr *template.ConnectError
	switch {
	case errors.Is(err, console.ErrCancelled):
		return
	case errors.As(err, &connErr):
		rep.Warn(connErr.Error())
	case apperr.IsUserError(err),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrManifestCorrupt),
		errors.Is(err, console.ErrNotATerminal):
		rep.Error(err.Error())
	default:
		slog.Error("application error", slog.String("error", err.Error()))
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "docsauthor",
		Usage:   "Authoring tools for docs repositories: redirect manifest, Markdown snippets and article templates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Repository root; overrides workspace.root",
				Sources: cli.EnvVars("DOCSAUTHOR_ROOT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			redirectCommand(),
			snippetCommand(),
			templateCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		reportError(err)
		os.Exit(1)
	}
}
