package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getmockd/sidepost/pkg/httputil"
)

// ResponseError is returned when the server answers with a non-2xx status.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	// Errors holds the JSON:API error objects of the response, if any.
	Errors []httputil.ErrorObject
	// Body is the raw response body when it was not an error document.
	Body string
}

func (e *ResponseError) Error() string {
	var details []string
	for _, obj := range e.Errors {
		detail := obj.Detail
		if detail == "" {
			detail = obj.Title
		}
		if obj.Source != nil && obj.Source.Pointer != "" {
			detail = obj.Source.Pointer + ": " + detail
		}
		details = append(details, detail)
	}
	if len(details) == 0 && e.Body != "" {
		details = append(details, e.Body)
	}

	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}
	return msg
}

// Code returns the code of the first error object.
func (e *ResponseError) Code() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Code
}

// Hint returns the server's hint for the first error, if it sent one.
func (e *ResponseError) Hint() string {
	for _, obj := range e.Errors {
		if hint, ok := obj.Meta["hint"].(string); ok {
			return hint
		}
	}
	return ""
}

// ConnectionError is returned when the server cannot be reached.
type ConnectionError struct {
	BaseURL string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.BaseURL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ConnectionError) Hint() string {
	return "Check that the server is running, e.g. with 'sidepost serve'."
}
