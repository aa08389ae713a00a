package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/console"
	"github.com/starford/docsauthor/internal/history"
)

func redirectCommand() *cli.Command {
	return &cli.Command{
		Name:  "redirect",
		Usage: "Maintain the master redirection file",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Merge documents with a redirect_url into the master redirection file and archive them",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report the merge without writing or moving anything"},
				},
				Action: runGenerate,
			},
			{
				Name:   "watch",
				Usage:  "Print the pending redirect plan whenever Markdown files change",
				Action: runWatch,
			},
			{
				Name:   "manifest",
				Usage:  "Print the master redirection file",
				Action: runManifest,
			},
			{
				Name:  "history",
				Usage: "List recorded runs, one run, or the outcomes for one document",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum number of runs"},
					&cli.IntFlag{Name: "run", Usage: "Show the entries of one run"},
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Show every outcome for a source path"},
				},
				Action: runHistory,
			},
		},
	}
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	app, rep, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	dryRun := cmd.Bool("dry-run")
	report, err := app.Service().GenerateRedirects(ctx, "", dryRun)
	var archErr *apperr.ArchiveError
	if report == nil || (err != nil && !errors.As(err, &archErr)) {
		return err
	}
	for _, a := range report.Archived {
		if a.Error != "" {
			rep.Warn(fmt.Sprintf("Could not move %s: %s", a.SourcePath, a.Error))
		}
	}
	if dryRun {
		rep.Info(fmt.Sprintf("Dry run: %d to add, %d already present. Nothing was written.",
			len(report.Added), len(report.Existing)))
	}
	return err
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	app, err := openService(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := console.NewReporter(os.Stdout)
	return app.Watch(ctx, "", rep.Plan)
}

func runManifest(ctx context.Context, cmd *cli.Command) error {
	app, _, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Service().Manifest(ctx, "")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(m)
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	app, _, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out := console.NewReporter(os.Stdout)
	svc := app.Service()

	if p := cmd.String("path"); p != "" {
		entries, err := svc.DocumentHistory(ctx, p)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			out.Info("No recorded runs for " + p)
		}
		printEntries(out, entries)
		return nil
	}

	if id := int64(cmd.Int("run")); id > 0 {
		run, err := svc.Run(ctx, id)
		if err != nil {
			return err
		}
		printRun(out, *run)
		printEntries(out, run.Entries)
		return nil
	}

	runs, err := svc.History(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		out.Info("No recorded runs.")
	}
	for _, r := range runs {
		printRun(out, r)
	}
	return nil
}

func printRun(out *console.Reporter, r history.Run) {
	out.Printf("#%d  %s  added %d  existing %d  failed %d  %s",
		r.ID, r.StartedAt.Local().Format(time.DateTime), r.Added, r.Existing, r.Failed, r.Root)
}

func printEntries(out *console.Reporter, entries []history.Entry) {
	for _, e := range entries {
		line := fmt.Sprintf("  %-8s %s -> %s", e.Status, e.SourcePath, e.RedirectURL)
		if e.ArchivedTo != "" {
			line += "  (" + e.ArchivedTo + ")"
		}
		if e.Error != "" {
			line += "  error: " + e.Error
		}
		out.Printf("%s", line)
	}
}
