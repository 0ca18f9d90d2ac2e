package web

// errors.go maps errors to HTTP responses.
//
// The technical error is logged with the request ID. The client gets the
// user message from service.MapError, as JSON for API routes and as an HTML
// page elsewhere.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/logging"
	"github.com/JonMunkholm/csvlint/internal/profile"
	"github.com/JonMunkholm/csvlint/internal/service"
	"github.com/JonMunkholm/csvlint/internal/store"
	"github.com/JonMunkholm/csvlint/internal/web/views"
)

// ErrorResponse is the JSON body of API error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := service.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if errors.Is(err, service.ErrTooManyValidations) {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{Error: userMsg.Message, Action: userMsg.Action, Code: userMsg.Code})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := views.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); err != nil {
		log.Error("render error page", "error", err)
	}
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoFile),
		errors.Is(err, service.ErrInvalidOptions),
		errors.Is(err, service.ErrInvalidReportID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvcheck.ErrInvalidEncoding),
		errors.Is(err, csvcheck.ErrLineTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrReportNotFound),
		errors.Is(err, profile.ErrUnknownProfile):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManyValidations):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
