package web

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/csvio"
	"github.com/JonMunkholm/setdecoder/internal/web/templates"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// multipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// parseUpload bounds the body and parses the multipart form.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return fmt.Errorf("%w: %v", ErrFileTooLarge, err)
		}
		return &RequestError{Err: err}
	}
	return nil
}

// uploadContext bounds a load by the configured upload timeout.
func (s *Server) uploadContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
}

// withUploadSlot wraps an upload handler so it runs only while holding a slot.
func (s *Server) withUploadSlot(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.uploads.acquire(r.Context()); err != nil {
			w.Header().Set("Retry-After", "5")
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		defer s.uploads.release()
		next(w, r)
	}
}

// handleLoadMaster loads the master workbook from the "file" form field.
func (s *Server) handleLoadMaster(w http.ResponseWriter, r *http.Request) {
	if err := s.parseUpload(w, r, s.cfg.Upload.MaxFileSize); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx, cancel := s.uploadContext(r)
	defer cancel()

	info, err := s.ws.LoadMaster(ctx, file, header.Filename)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.respond(w, r, info, templates.StatusPanel(s.ws.Status()))
}

// handleLoadOrders loads one or more order CSVs from the "files" (or
// "file") form field. The optional "preset" field picks the column mapping.
func (s *Server) handleLoadOrders(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Upload.MaxFileSize * int64(s.cfg.Upload.MaxFiles)
	if err := s.parseUpload(w, r, limit); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		s.respondError(w, r, &RequestError{
			Fields: map[string]string{"files": fmt.Sprintf("must be at most %d", s.cfg.Upload.MaxFiles)},
		}, http.StatusBadRequest)
		return
	}

	sources, closeAll, err := s.openSources(headers)
	defer closeAll()
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := s.uploadContext(r)
	defer cancel()

	info, err := s.ws.LoadOrders(ctx, sources, r.FormValue("preset"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.respond(w, r, info, templates.StatusPanel(s.ws.Status()))
}

// openSources opens every uploaded file. The returned close func is always safe to call.
func (s *Server) openSources(headers []*multipart.FileHeader) ([]csvio.Source, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	sources := make([]csvio.Source, 0, len(headers))
	for _, h := range headers {
		if h.Size > s.cfg.Upload.MaxFileSize {
			return nil, closeAll, fmt.Errorf("%w: %s", ErrFileTooLarge, h.Filename)
		}
		f, err := h.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		files = append(files, f)
		sources = append(sources, csvio.Source{Name: h.Filename, Reader: f})
	}
	return sources, closeAll, nil
}
