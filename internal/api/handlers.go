package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/authoring"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *authoring.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *authoring.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// GenerateRedirects handles POST /api/redirects.
//
//	@Summary		Reconcile the master redirection file
//	@Tags			redirects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateRequest	false	"Run options"
//	@Success		200		{object}	redirect.Report
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/redirects [post]
func (h *Handler) GenerateRedirects(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	report, err := h.svc.GenerateRedirects(r.Context(), req.Root, req.DryRun)
	if err != nil {
		var archErr *apperr.ArchiveError
		if report != nil && errors.As(err, &archErr) {
			// The manifest is written; failed moves are listed in the report.
			writeJSON(w, http.StatusMultiStatus, report)
			return
		}
		writeError(w, "generate redirects", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Manifest handles GET /api/redirects/manifest.
//
//	@Summary		Read the master redirection file
//	@Tags			redirects
//	@Produce		json
//	@Param			root	query		string	false	"Repository root"
//	@Success		200		{object}	models.Manifest
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/redirects/manifest [get]
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Manifest(r.Context(), r.URL.Query().Get("root"))
	if err != nil {
		writeError(w, "read manifest", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// History handles GET /api/redirects/history.
//
//	@Summary		List recorded redirect runs
//	@Tags			redirects
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/redirects/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs})
}

// Run handles GET /api/redirects/history/{id}.
//
//	@Summary		Get one recorded run with its entries
//	@Tags			redirects
//	@Produce		json
//	@Param			id	path		int	true	"Run ID"
//	@Success		200	{object}	history.Run
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/redirects/history/{id} [get]
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be an integer"))
		return
	}
	run, err := h.svc.Run(r.Context(), id)
	if err != nil {
		writeError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DocumentHistory handles GET /api/redirects/documents?path=.
//
//	@Summary		Recorded outcomes for one source path
//	@Tags			redirects
//	@Produce		json
//	@Param			path	query		string	true	"Source path"
//	@Success		200		{array}		history.Entry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/redirects/documents [get]
func (h *Handler) DocumentHistory(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	entries, err := h.svc.DocumentHistory(r.Context(), path)
	if err != nil {
		writeError(w, "document history", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// BuildSnippet handles POST /api/snippets/{kind}.
//
//	@Summary		Build a Markdown snippet, optionally inserting it
//	@Tags			snippets
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string			true	"Snippet kind"	Enums(video, url, link, image)
//	@Param			body	body		SnippetRequest	true	"Snippet input"
//	@Success		200		{object}	authoring.SnippetResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{kind} [post]
func (h *Handler) BuildSnippet(w http.ResponseWriter, r *http.Request) {
	var req SnippetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.BuildSnippet(r.Context(), req.Root, req.snippet(chi.URLParam(r, "kind")), req.File, req.Insert)
	if err != nil {
		writeError(w, "build snippet", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LinkTargets handles GET /api/snippets/targets.
//
//	@Summary		List link or image targets
//	@Tags			snippets
//	@Produce		json
//	@Param			root	query		string	false	"Repository root"
//	@Param			image	query		bool	false	"List images instead of documents"
//	@Success		200		{object}	TargetsResponse
//	@Security		BearerAuth
//	@Router			/snippets/targets [get]
func (h *Handler) LinkTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	image, _ := strconv.ParseBool(q.Get("image"))
	targets, err := h.svc.LinkTargets(r.Context(), q.Get("root"), image)
	if err != nil {
		writeError(w, "list targets", err)
		return
	}
	writeJSON(w, http.StatusOK, TargetsResponse{Targets: targets})
}

// DownloadTemplates handles POST /api/templates/download.
//
//	@Summary		Download the template repository
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	template.Result
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/download [post]
func (h *Handler) DownloadTemplates(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DownloadTemplates(r.Context())
	if err != nil {
		writeError(w, "download templates", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CleanTemplates handles POST /api/templates/clean.
//
//	@Summary		Delete downloaded template files
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CleanRequest	false	"Clean options"
//	@Success		200		{object}	CleanResponse
//	@Security		BearerAuth
//	@Router			/templates/clean [post]
func (h *Handler) CleanTemplates(w http.ResponseWriter, r *http.Request) {
	var req CleanRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	removed, err := h.svc.CleanTemplates(req.Templates)
	if err != nil {
		writeError(w, "clean templates", err)
		return
	}
	writeJSON(w, http.StatusOK, CleanResponse{Removed: removed})
}
