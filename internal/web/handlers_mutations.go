package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/web/templates"
)

// AddLineRequest is the body of POST /api/lines.
type AddLineRequest struct {
	OrderID  string `json:"orderId" validate:"required,max=100"`
	SKU      string `json:"sku" validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"min=1,max=100000"`
}

// handlePreviewIdentifiers generates SKUs for lines without one and holds
// them until confirmed or cancelled.
func (s *Server) handlePreviewIdentifiers(w http.ResponseWriter, r *http.Request) {
	changes, err := s.ws.PreviewIdentifiers()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.respond(w, r, map[string]any{"changes": changes, "count": len(changes)}, templates.IdentifierPreview(changes))
}

func (s *Server) handleConfirmIdentifiers(w http.ResponseWriter, r *http.Request) {
	n, err := s.ws.ConfirmIdentifiers()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.respond(w, r, map[string]int{"applied": n}, templates.StatusPanel(s.ws.Status()))
}

func (s *Server) handleCancelIdentifiers(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.CancelIdentifiers(); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.respond(w, r, map[string]bool{"cancelled": true}, templates.StatusPanel(s.ws.Status()))
}

// handleAddLine appends a manual line to an existing order. It accepts a
// JSON body or an HTML form.
func (s *Server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSONBody(r, &req); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	} else {
		req.OrderID = r.FormValue("orderId")
		req.SKU = r.FormValue("sku")
		if q := r.FormValue("quantity"); q != "" {
			n, err := strconv.Atoi(strings.TrimSpace(q))
			if err != nil {
				s.respondError(w, r, &RequestError{Fields: map[string]string{"quantity": "is invalid"}, Err: err}, http.StatusBadRequest)
				return
			}
			req.Quantity = n
		}
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.SKU = strings.TrimSpace(req.SKU)

	if err := s.validateStruct(req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.ws.AddLine(req.OrderID, req.SKU, req.Quantity); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.respondStatus(w, r, http.StatusCreated, req, templates.StatusPanel(s.ws.Status()))
}
