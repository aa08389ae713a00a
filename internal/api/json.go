package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/template"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps err to a status code. Author-facing errors carry their
// message; anything else is logged and reported as an internal error.
func writeError(w http.ResponseWriter, op string, err error) {
	var connErr *template.ConnectError
	switch {
	case apperr.IsUserError(err):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrManifestCorrupt):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.As(err, &connErr):
		writeJSON(w, http.StatusBadGateway, errorBody(connErr.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
