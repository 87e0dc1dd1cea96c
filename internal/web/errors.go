package web

// errors.go turns errors into responses.
//
// Every error is logged with its technical detail and request id, then
// mapped through core.MapError to a message and support code. HTMX requests
// get an alert fragment, API clients get JSON, anything else plain text.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/csvio"
	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/logging"
	"github.com/JonMunkholm/setdecoder/internal/workbook"
	"github.com/JonMunkholm/setdecoder/internal/workspace"
	"github.com/JonMunkholm/setdecoder/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for err, or fallback when nothing specific applies.
func statusFor(err error, fallback int) int {
	var (
		schemaErr *core.SchemaError
		maxBytes  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &schemaErr), errors.Is(err, workbook.ErrMissingSheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrOrderNotFound), errors.Is(err, history.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotLoaded),
		errors.Is(err, workspace.ErrNoMaster),
		errors.Is(err, workspace.ErrNoPendingChanges),
		errors.Is(err, workspace.ErrChangesPending):
		return http.StatusConflict
	case errors.As(err, new(*RequestError)), errors.Is(err, csvio.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return fallback
}

// respondError logs err and writes a user-facing error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	msg := core.MapError(err)

	logger := logging.Enrich(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err, "code", msg.Code)
	} else {
		logger.Warn("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err, "code", msg.Code)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, msg, status)
	case wantsJSON(r):
		body := ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			body.Fields = reqErr.Fields
		}
		respondErrorJSON(w, body, status)
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, body ErrorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// renderErrorPartial renders an alert fragment into #alerts.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("HX-Retarget", "#alerts")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes default to it.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
