// Package httputil provides JSON:API response helpers shared by the mock
// server and the CLI.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// MediaTypeJSONAPI is the JSON:API media type.
const MediaTypeJSONAPI = "application/vnd.api+json"

// WriteJSON writes data as JSON with the given status and content type.
// A nil data writes only the status.
func WriteJSON(w http.ResponseWriter, status int, contentType string, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteDocument writes a JSON:API document.
func WriteDocument(w http.ResponseWriter, status int, doc any) {
	WriteJSON(w, status, MediaTypeJSONAPI, doc)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	Status string         `json:"status"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title"`
	Detail string         `json:"detail,omitempty"`
	Source *ErrorSource   `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// ErrorSource points at the part of the request that caused an error.
type ErrorSource struct {
	Pointer string `json:"pointer,omitempty"`
}

// ErrorDocument is the top-level JSON:API error document.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// WriteErrors writes a JSON:API error document with the given status.
func WriteErrors(w http.ResponseWriter, status int, errs ...ErrorObject) {
	for i := range errs {
		if errs[i].Status == "" {
			errs[i].Status = strconv.Itoa(status)
		}
		if errs[i].Title == "" {
			errs[i].Title = http.StatusText(status)
		}
	}
	WriteDocument(w, status, ErrorDocument{Errors: errs})
}

// WriteError writes err as a JSON:API error document. The status comes
// from a StatusCode() int method anywhere in the error chain, defaulting
// to 500; a Hint() string method is copied into the error meta.
func WriteError(w http.ResponseWriter, code string, err error) {
	status := StatusOf(err)
	obj := ErrorObject{Code: code, Detail: err.Error()}

	var hinter interface{ Hint() string }
	if errors.As(err, &hinter) {
		obj.Meta = map[string]any{"hint": hinter.Hint()}
	}
	WriteErrors(w, status, obj)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return http.StatusInternalServerError
}

// WriteBadRequest writes a 400 Bad Request error document.
func WriteBadRequest(w http.ResponseWriter, code, detail string) {
	WriteErrors(w, http.StatusBadRequest, ErrorObject{Code: code, Detail: detail})
}

// WriteNotFound writes a 404 Not Found error document.
func WriteNotFound(w http.ResponseWriter, code, detail string) {
	WriteErrors(w, http.StatusNotFound, ErrorObject{Code: code, Detail: detail})
}
