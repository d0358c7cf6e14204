package mockserver

import (
	"fmt"
	"net/http"
)

// NotFoundError is returned when a type or record does not exist.
type NotFoundError struct {
	Type string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s record %q not found", e.Type, e.ID)
	}
	return fmt.Sprintf("resource type %q not found", e.Type)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	if e.ID != "" {
		return fmt.Sprintf("Check that %s %q exists. Use GET /%s to list records.", e.Type, e.ID, e.Type)
	}
	return fmt.Sprintf("Declare a model whose type is %q, or create a record of it first.", e.Type)
}

// ValidationError is returned when a request document is malformed.
type ValidationError struct {
	Message string
	// Pointer is the JSON pointer of the offending value, if known.
	Pointer string
}

func (e *ValidationError) Error() string {
	if e.Pointer != "" {
		return fmt.Sprintf("invalid document at %s: %s", e.Pointer, e.Message)
	}
	return "invalid document: " + e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	return "Send a JSON:API document whose relationship linkage carries a method and whose created records have a temp-id."
}

// ConflictError is returned when a request targets a different record than
// its URL, e.g. a PATCH whose primary data has another id.
type ConflictError struct {
	Type string
	ID   string
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("primary data is not of type %q", e.Type)
	}
	return fmt.Sprintf("primary data does not match %s %q", e.Type, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ConflictError) Hint() string {
	return "The type and id of the primary data must match the request URL."
}

// PayloadTooLargeError is returned when a request body exceeds the limit.
type PayloadTooLargeError struct {
	MaxSize int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("request body too large: max %d bytes allowed", e.MaxSize)
}

// StatusCode returns the HTTP status code for this error.
func (e *PayloadTooLargeError) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *PayloadTooLargeError) Hint() string {
	return fmt.Sprintf("Reduce request body size to under %d bytes.", e.MaxSize)
}
