package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/docsauthor/internal"
	"github.com/starford/docsauthor/internal/mcpserver"
)

func templateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Manage the article templates in the authoring home directory",
		Commands: []*cli.Command{
			{
				Name:   "download",
				Usage:  "Download the template repository",
				Action: runTemplateDownload,
			},
			{
				Name:  "clean",
				Usage: "Delete downloaded template files",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "templates", Usage: "Clean the templates folder instead of the home directory"},
				},
				Action: runTemplateClean,
			},
		},
	}
}

func runTemplateDownload(ctx context.Context, cmd *cli.Command) error {
	app, rep, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service().DownloadTemplates(ctx)
	if err != nil {
		return err
	}
	rep.Success(fmt.Sprintf("Downloaded %d files from %s to %s", len(res.Files), res.Repo, res.Dir))
	return nil
}

func runTemplateClean(_ context.Context, cmd *cli.Command) error {
	app, rep, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	removed, err := app.Service().CleanTemplates(cmd.Bool("templates"))
	for _, p := range removed {
		rep.Progress("Deleted " + p)
	}
	if err != nil {
		return err
	}
	rep.Success(fmt.Sprintf("Removed %d files", len(removed)))
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API with live redirect plans over SSE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the authoring tools over MCP on stdin/stdout",
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, err := openService(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return mcpserver.New(app.Service(), strings.TrimPrefix(version, "v")).ServeStdio()
		},
	}
}
