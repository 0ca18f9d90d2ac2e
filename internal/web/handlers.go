package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvlint/internal/logging"
	"github.com/JonMunkholm/csvlint/internal/service"
	"github.com/JonMunkholm/csvlint/internal/web/views"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartOverhead allows for form boundaries and part headers on top
	// of the file itself.
	multipartOverhead = 1 << 20

	defaultListLimit = 50
	maxListLimit     = 500
)

// handleValidate validates an uploaded file and returns the stored report.
//
// The file is read either from the multipart form field "file" or, for
// text/csv and text/plain bodies, from the request body itself (the name
// then comes from ?name=). Query parameters separator, header and profile
// override the server defaults.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := uploadOptions(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	body, name, err := uploadBody(r)
	if err != nil {
		err = s.bodyError(err)
		respondError(w, r, err, statusFor(err))
		return
	}
	defer body.Close()

	req.FileName = name
	req.Reader = body
	if mediaType(r) != "multipart/form-data" && r.ContentLength > 0 {
		req.Size = r.ContentLength
	}

	stored, err := s.service.ValidateUpload(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		err = s.bodyError(err)
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Location", "/api/reports/"+stored.ID.String())
	writeJSON(w, http.StatusCreated, stored)
}

// uploadOptions reads the dialect overrides from the query string.
func uploadOptions(r *http.Request) (service.UploadRequest, error) {
	q := r.URL.Query()
	req := service.UploadRequest{
		Separator:   q.Get("separator"),
		ProfileName: q.Get("profile"),
	}
	if h := q.Get("header"); h != "" {
		v, err := strconv.ParseBool(h)
		if err != nil {
			return req, fmt.Errorf("%w: header must be true or false, got %q", service.ErrInvalidOptions, h)
		}
		req.HasHeader = &v
	}
	return req, nil
}

// uploadBody returns the file stream and its name.
func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	switch mediaType(r) {
	case "multipart/form-data":
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", service.ErrNoFile, err)
		}
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, "", service.ErrNoFile
			}
			if err != nil {
				return nil, "", fmt.Errorf("read form: %w", err)
			}
			if part.FormName() == "file" {
				return part, part.FileName(), nil
			}
			part.Close()
		}
	case "text/csv", "text/plain", "application/octet-stream":
		return r.Body, r.URL.Query().Get("name"), nil
	default:
		return nil, "", service.ErrNoFile
	}
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// bodyError reports an oversized request body as ErrFileTooLarge.
func (s *Server) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", service.ErrFileTooLarge, s.cfg.Upload.MaxFileSize)
	}
	return err
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListReports(r.Context(), listLimit(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Profiles())
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Profile(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleIndex lists recent reports as HTML.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListReports(r.Context(), listLimit(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.renderPage(w, r, views.ReportList(list))
}

// handleReportPage renders a single report as HTML.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.renderPage(w, r, views.ReportPage(report))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"validations": s.service.LimiterStatus(),
		"profiles":    len(s.service.Profiles()),
	})
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// listLimit parses ?limit= with a default and an upper bound.
func listLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
