package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/setdecoder/internal/workbook"
	"github.com/JonMunkholm/setdecoder/internal/web/templates"
	"github.com/google/uuid"
)

// ExportFileName is the download name of the processed orders.
const ExportFileName = "processed_orders.csv"

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := templates.DashboardData{
		Status:         s.ws.Status(),
		Presets:        presetNames(),
		HistoryEnabled: s.runs != nil,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(data).Render(r.Context(), w); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Status  string       `json:"status"`
		Uploads UploadStatus `json:"uploads"`
	}{"ok", s.uploads.status()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ws.Status()
	s.respond(w, r, status, templates.StatusPanel(status))
}

// handleDownloadTemplate returns the blank master workbook.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, workbook.TemplateFileName))
	if err := workbook.WriteTemplate(w); err != nil {
		// Headers are already sent.
		s.logger.Error("write master template", "error", err)
	}
}

// handleListOrders returns the working table before expansion.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	table, err := s.ws.Table()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, tableWindow(r, table))
}

// handlePreviewExpansion returns the expanded table without exporting it.
func (s *Server) handlePreviewExpansion(w http.ResponseWriter, r *http.Request) {
	res, err := s.ws.Expand(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct {
		TableResponse
		Stats   any `json:"stats"`
		Summary any `json:"summary"`
	}{tableWindow(r, res.Table), res.Stats, res.Summary})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	report, err := s.ws.Review()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.respond(w, r, report, templates.ReviewPanel(report))
}

// handleExport expands the orders and returns the CSV download. The run is
// recorded when history is enabled.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	res, err := s.ws.Export(r.Context(), &buf)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFileName))
	if res.RunID != uuid.Nil {
		w.Header().Set("X-Run-Id", res.RunID.String())
	}
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write export", "error", err)
	}
}
