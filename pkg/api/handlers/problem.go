// Package handlers provides the HTTP handlers for the KyberChat REST API:
// account registration and login, the refresh token lifecycle, user search
// and public key lookup, encrypted attachment transfer, and health probes.
package handlers

import (
	"encoding/json"
	"net/http"
)

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 "problem details" body. Every error the API
// returns is one of these.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type identifies the problem class; "about:blank" means the status
	// code says it all.
	Type string `json:"type,omitempty"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status echoes the HTTP status code.
	Status int `json:"status"`

	// Detail explains this particular occurrence.
	Detail string `json:"detail,omitempty"`
}

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	writeBody(w, ContentTypeProblemJSON, status, &Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// fail writes a problem whose title is the standard status text.
func fail(w http.ResponseWriter, status int, detail string) {
	WriteProblem(w, status, http.StatusText(status), detail)
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail string) { fail(w, http.StatusBadRequest, detail) }

// Unauthorized writes a 401 problem response.
func Unauthorized(w http.ResponseWriter, detail string) { fail(w, http.StatusUnauthorized, detail) }

// Forbidden writes a 403 problem response.
func Forbidden(w http.ResponseWriter, detail string) { fail(w, http.StatusForbidden, detail) }

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail string) { fail(w, http.StatusNotFound, detail) }

// InternalServerError writes a 500 problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	fail(w, http.StatusInternalServerError, detail)
}

// ServiceUnavailable writes a 503 problem response.
func ServiceUnavailable(w http.ResponseWriter, detail string) {
	fail(w, http.StatusServiceUnavailable, detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeBody(w, "application/json", status, data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

func writeBody(w http.ResponseWriter, contentType string, status int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
