package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/starford/docsauthor/internal"
	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/console"
	"github.com/starford/docsauthor/internal/snippet"
)

func insertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "insert", Aliases: []string{"i"}, Usage: "Insert the snippet at `LINE:COL` instead of printing it"},
		&cli.StringFlag{Name: "file", Usage: "Document to insert into; defaults to --from"},
	}
}

func snippetCommand() *cli.Command {
	return &cli.Command{
		Name:  "snippet",
		Usage: "Build Markdown for videos, links and images",
		Commands: []*cli.Command{
			{
				Name:   "video",
				Usage:  "Embed a video",
				Flags:  append([]cli.Flag{&cli.StringFlag{Name: "url", Usage: "Video URL"}}, insertFlags()...),
				Action: snippetAction(snippet.KindVideo),
			},
			{
				Name:  "url",
				Usage: "Link to an external URL",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "http:// or https:// URL"},
					&cli.StringFlag{Name: "text", Usage: "Link text; defaults to the URL"},
				}, insertFlags()...),
				Action: snippetAction(snippet.KindURL),
			},
			{
				Name:  "link",
				Usage: "Link to another document of the repository",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Document the link is written in"},
					&cli.StringFlag{Name: "target", Usage: "Linked document"},
					&cli.StringFlag{Name: "text", Usage: "Link text; defaults to the target's first heading"},
				}, insertFlags()...),
				Action: snippetAction(snippet.KindLink),
			},
			{
				Name:  "image",
				Usage: "Reference an image of the repository",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Document the image is shown in"},
					&cli.StringFlag{Name: "target", Usage: "Image file"},
					&cli.StringFlag{Name: "alt", Usage: "Alt text; defaults to the file name"},
				}, insertFlags()...),
				Action: snippetAction(snippet.KindImage),
			},
			{
				Name:  "pick",
				Usage: "Choose the link or media type interactively",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "media", Usage: "Choose between image and video instead of external and internal link"},
					&cli.StringFlag{Name: "from", Usage: "Document being edited"},
				}, insertFlags()...),
				Action: runPick,
			},
		},
	}
}

func snippetAction(kind snippet.Kind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return runSnippet(ctx, cmd, kind)
	}
}

func runPick(ctx context.Context, cmd *cli.Command) error {
	types, title := snippet.LinkTypes, "Select link type"
	if cmd.Bool("media") {
		types, title = snippet.MediaTypes, "Select media type"
	}
	label, err := console.NewPrompter().Select(title, types)
	if err != nil {
		return err
	}
	kind, ok := snippet.KindFor(label)
	if !ok {
		return apperr.Invalid(fmt.Errorf("unknown type %q", label))
	}
	return runSnippet(ctx, cmd, kind)
}

func runSnippet(ctx context.Context, cmd *cli.Command, kind snippet.Kind) error {
	app, rep, err := openTerminal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	root := app.Config().Workspace.Root
	req := snippet.Request{
		Kind:   kind,
		URL:    cmd.String("url"),
		Text:   cmd.String("text"),
		From:   repoPath(root, cmd.String("from")),
		Target: repoPath(root, cmd.String("target")),
		Alt:    cmd.String("alt"),
	}
	if err := complete(ctx, app, console.NewPrompter(), &req); err != nil {
		return err
	}

	var pos *snippet.Position
	if at := cmd.String("insert"); at != "" {
		p, err := snippet.ParsePosition(at)
		if err != nil {
			return err
		}
		pos = &p
	}

	res, err := app.Service().BuildSnippet(ctx, "", req, repoPath(root, cmd.String("file")), pos)
	if err != nil {
		return err
	}
	if pos == nil {
		fmt.Fprintln(os.Stdout, res.Markdown)
		return nil
	}
	rep.Success(fmt.Sprintf("Inserted into %s at %d:%d", res.File, pos.Line, pos.Column))
	return nil
}

// complete asks for the values the author did not pass as flags. Optional
// values are only asked for on a terminal.
func complete(ctx context.Context, app *internal.App, p console.Prompter, req *snippet.Request) error {
	interactive := console.IsTerminal(os.Stdin)
	var err error
	switch req.Kind {
	case snippet.KindVideo:
		if req.URL == "" {
			req.URL, err = p.Input("Enter URL for video", "https://www.youtube.com/embed/...", snippet.ValidateVideoURL)
		}
	case snippet.KindURL:
		if req.URL == "" {
			req.URL, err = p.Input("Enter URL", "https://docs.microsoft.com/...", snippet.ValidateHTTPURL)
		}
		if err == nil && req.Text == "" && interactive {
			req.Text, err = p.Input("Enter link text", "Defaults to the URL", nil)
		}
	case snippet.KindLink, snippet.KindImage:
		image := req.Kind == snippet.KindImage
		if req.From == "" {
			// Building fails with "not saved"; there is nothing to pick from.
			return nil
		}
		if req.Target == "" {
			req.Target, err = pickTarget(ctx, app, p, image)
		}
		if err == nil && image && req.Alt == "" && interactive {
			req.Alt, err = p.Input("Enter alt text", "Defaults to the file name", snippet.ValidateAlt)
		}
	}
	return err
}

func pickTarget(ctx context.Context, app *internal.App, p console.Prompter, image bool) (string, error) {
	targets, err := app.Service().LinkTargets(ctx, "", image)
	if err != nil {
		return "", err
	}
	options := make([]string, len(targets))
	for i, t := range targets {
		options[i] = t.Path
	}
	title := "Select a file to link to"
	if image {
		title = "Select an image"
	}
	return p.Select(title, options)
}

// repoPath converts an absolute path below root to a repository-relative
// one. Relative paths are taken as repository-relative already.
func repoPath(root, p string) string {
	if p == "" || !filepath.IsAbs(p) || root == "" {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
