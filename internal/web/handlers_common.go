package web

// handlers_common.go holds request decoding and response helpers shared by
// the handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 5000
)

// RequestError is a request body that failed to decode or validate.
type RequestError struct {
	Fields map[string]string
	Err    error
}

func (e *RequestError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msg := range e.Fields {
			parts = append(parts, field+" "+msg)
		}
		return "invalid request: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeJSONBody decodes a JSON body into dest, rejecting unknown fields.
func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &RequestError{Err: err}
	}
	return nil
}

// validateStruct runs the validator and converts failures to a RequestError.
func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Err: err}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &RequestError{Fields: fields, Err: err}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// clientIP returns the host part of r.RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// TableResponse is a window of an order table.
type TableResponse struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated"`
}

// tableWindow returns the first ?limit= rows of table.
func tableWindow(r *http.Request, table core.OrderTable) TableResponse {
	limit := parseIntParam(r, "limit", defaultRowLimit)
	if limit > maxRowLimit {
		limit = maxRowLimit
	}
	rs := table.Records()
	resp := TableResponse{Columns: rs.Header, Rows: rs.Rows, Total: len(rs.Rows)}
	if len(resp.Rows) > limit {
		resp.Rows = resp.Rows[:limit]
		resp.Truncated = true
	}
	if resp.Rows == nil {
		resp.Rows = [][]string{}
	}
	return resp
}

// respond writes a fragment for HTMX requests and JSON for everything else.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, fragment templ.Component) {
	s.respondStatus(w, r, http.StatusOK, v, fragment)
}

func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, status int, v any, fragment templ.Component) {
	if isHTMX(r) && fragment != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := fragment.Render(r.Context(), w); err != nil {
			s.logger.Error("render fragment", "path", r.URL.Path, "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
