// Package errors escribe las respuestas de error del servicio.
//
// Dos formatos conviven:
//   - OAuth (RFC 6749 §5.2): {"error", "error_description"} en /oauth2/*
//   - genérico: {"code", "message"} para el resto (auth bearer, rate limit, 5xx)
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/hellodesk/internal/auth/grants"
)

var (
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrTokenMissing        = &HTTPError{Code: "token_missing", Message: "Missing bearer token", Status: http.StatusUnauthorized}
	ErrTokenInvalid        = &HTTPError{Code: "token_invalid", Message: "Invalid or expired token", Status: http.StatusUnauthorized}
	ErrForbidden           = &HTTPError{Code: "forbidden", Message: "Forbidden", Status: http.StatusForbidden}
	ErrTooManyRequests     = &HTTPError{Code: "rate_limited", Message: "Too many requests", Status: http.StatusTooManyRequests}
	ErrInternalServerError = &HTTPError{Code: "internal_error", Message: "Internal server error", Status: http.StatusInternalServerError}
	ErrServiceUnavailable  = &HTTPError{Code: "service_unavailable", Message: "Service unavailable", Status: http.StatusServiceUnavailable}
)

// HTTPError es un error de API genérico.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// WithDetail devuelve una copia con detalle.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WriteError escribe err; cualquier cosa que no sea *HTTPError es 500.
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = ErrInternalServerError
	}
	WriteJSON(w, httpErr.Status, httpErr)
}

// OAuthError es el cuerpo de error del token endpoint.
type OAuthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteOAuthError escribe el error público de un grant, siempre no-store.
func WriteOAuthError(w http.ResponseWriter, p grants.Public) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	WriteJSON(w, p.Status, OAuthError{Error: p.Code, Description: p.Description})
}

// WriteJSON serializa v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
