package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yousuf64/shift"
)

// HTTPError is an error that carries the HTTP status it should be reported with
type HTTPError struct {
	Status int
	Kind   string
	Err    error

	// UpstreamStatus is the status the audited site answered with, if any
	UpstreamStatus int
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError wraps err with a response status and an error kind
func NewHTTPError(status int, kind string, err error) *HTTPError {
	return &HTTPError{Status: status, Kind: kind, Err: err}
}

// ErrorResponse is the JSON body written for failed requests
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// CORSMiddleware handles CORS requests with default settings
func CORSMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")
		return next(w, r, route)
	}
}

// ErrorMiddleware logs handler errors and writes them as JSON.
// Errors without an HTTPError in their chain are reported as 500.
func ErrorMiddleware(logger *slog.Logger) func(shift.HandlerFunc) shift.HandlerFunc {
	return func(next shift.HandlerFunc) shift.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
			err := next(w, r, route)
			if err == nil {
				return nil
			}

			status := http.StatusInternalServerError
			resp := ErrorResponse{Error: err.Error()}

			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Status
				resp.Kind = httpErr.Kind
				resp.StatusCode = httpErr.UpstreamStatus
			}

			logger.Error("Request error",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Any("error", err))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(resp)
			return err
		}
	}
}

// OptionsHandler handles OPTIONS requests for CORS preflight
// This can be used as a route handler for "/*wildcard" OPTIONS routes
func OptionsHandler(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	w.WriteHeader(http.StatusOK)
	return nil
}
