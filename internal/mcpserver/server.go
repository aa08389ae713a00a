// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the authoring tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docsauthor/internal/authoring"
	"github.com/starford/docsauthor/internal/snippet"
)

const redirectFormatURI = "docsauthor://redirect-format"

// Server wraps the MCP server with the authoring tools.
type Server struct {
	mcp *server.MCPServer
	svc *authoring.Service
}

// New creates a new MCP server with all authoring tools registered.
func New(svc *authoring.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docsauthor",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_redirects",
		mcp.WithDescription("Collect documents with a redirect_url in their front matter, merge them into "+
			"the master redirection file and archive the documents. Read the redirect format first via "+
			"get_redirect_format or the "+redirectFormatURI+" resource."),
		mcp.WithString("root", mcp.Description("Repository root; defaults to the configured workspace")),
		mcp.WithBoolean("dry_run", mcp.Description("Report the merge without writing or moving anything")),
	), s.generateRedirects)

	s.mcp.AddTool(mcp.NewTool("read_manifest",
		mcp.WithDescription("Read the master redirection file (.openpublishing.redirection.json)."),
		mcp.WithString("root", mcp.Description("Repository root; defaults to the configured workspace")),
	), s.readManifest)

	s.mcp.AddTool(mcp.NewTool("redirect_history",
		mcp.WithDescription("List recent redirect runs, or every recorded outcome for one source path."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
		mcp.WithString("path", mcp.Description("Source path to look up instead of listing runs")),
	), s.redirectHistory)

	s.mcp.AddTool(mcp.NewTool("build_snippet",
		mcp.WithDescription("Build a Markdown snippet: a video embed, an external URL, an internal link "+
			"or an image. Optionally insert it at LINE:COL."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("video", "url", "link", "image")),
		mcp.WithString("url", mcp.Description("Video or external URL")),
		mcp.WithString("text", mcp.Description("Link text; internal links default to the target's first heading")),
		mcp.WithString("from", mcp.Description("Document the link is written in, relative to the root")),
		mcp.WithString("target", mcp.Description("Linked document or image, relative to the root")),
		mcp.WithString("alt", mcp.Description("Image alt text (up to 70 characters); defaults to the file name")),
		mcp.WithString("insert", mcp.Description("LINE:COL to insert the snippet at")),
		mcp.WithString("file", mcp.Description("Document to insert into; defaults to from")),
		mcp.WithString("root", mcp.Description("Repository root; defaults to the configured workspace")),
	), s.buildSnippet)

	s.mcp.AddTool(mcp.NewTool("list_link_targets",
		mcp.WithDescription("List the Markdown documents, or images, that can be linked."),
		mcp.WithBoolean("image", mcp.Description("List images instead of documents")),
		mcp.WithString("root", mcp.Description("Repository root; defaults to the configured workspace")),
	), s.listLinkTargets)

	s.mcp.AddTool(mcp.NewTool("download_templates",
		mcp.WithDescription("Download the article template repository into the authoring home directory."),
	), s.downloadTemplates)

	s.mcp.AddTool(mcp.NewTool("get_redirect_format",
		mcp.WithDescription("Returns how documents are redirected and the master redirection file format."),
	), s.getRedirectFormat)

	s.mcp.AddResource(
		mcp.NewResource(redirectFormatURI, "Redirect Format Contract",
			mcp.WithResourceDescription("How redirect_url front matter and the master redirection file work."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRedirectFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generateRedirects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.GenerateRedirects(ctx, req.GetString("root", ""), req.GetBool("dry_run", false))
	if err != nil && report == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		// Archive failures: the manifest was written; the report lists them.
		res, _ := jsonResult(report)
		res.IsError = true
		return res, nil
	}
	return jsonResult(report)
}

func (s *Server) readManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.svc.Manifest(ctx, req.GetString("root", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m)
}

func (s *Server) redirectHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path := req.GetString("path", ""); path != "" {
		entries, err := s.svc.DocumentHistory(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entries)
	}
	runs, err := s.svc.History(ctx, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(runs)
}

func (s *Server) buildSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var pos *snippet.Position
	if at := req.GetString("insert", ""); at != "" {
		p, err := snippet.ParsePosition(at)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		pos = &p
	}
	res, err := s.svc.BuildSnippet(ctx, req.GetString("root", ""), snippet.Request{
		Kind:   snippet.Kind(kind),
		URL:    req.GetString("url", ""),
		Text:   req.GetString("text", ""),
		From:   req.GetString("from", ""),
		Target: req.GetString("target", ""),
		Alt:    req.GetString("alt", ""),
	}, req.GetString("file", ""), pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if pos == nil {
		return mcp.NewToolResultText(res.Markdown), nil
	}
	return jsonResult(res)
}

func (s *Server) listLinkTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targets, err := s.svc.LinkTargets(ctx, req.GetString("root", ""), req.GetBool("image", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(targets)
}

func (s *Server) downloadTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.DownloadTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getRedirectFormat(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RedirectFormatContract), nil
}

func (s *Server) readRedirectFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      redirectFormatURI,
			MIMEType: "text/markdown",
			Text:     RedirectFormatContract,
		},
	}, nil
}
