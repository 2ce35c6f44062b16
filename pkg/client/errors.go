package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of edge proxy failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses: rejected origins,
	// unauthorized purges, unrouted paths.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses from the proxy itself,
	// such as missing configuration.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUpstream represents 502 responses: the proxy could not
	// reach its backend.
	ErrorClassUpstream ErrorClass = "upstream"

	// ErrorClassNetwork represents transport failures reaching the proxy.
	ErrorClassNetwork ErrorClass = "network"
)

// EdgeError represents an edge proxy error with additional context.
type EdgeError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *EdgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("edge %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("edge %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *EdgeError) Unwrap() error {
	return e.Err
}

// EdgeError interprets an error-status response as a typed error. It
// returns nil for statuses below 400. The proxy's JSON error body
// supplies the message when present.
func (r *Response) EdgeError() *EdgeError {
	if r.StatusCode < 400 {
		return nil
	}

	message := http.StatusText(r.StatusCode)
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	return &EdgeError{
		StatusCode: r.StatusCode,
		ErrorClass: classifyStatus(r.StatusCode),
		Message:    message,
	}
}

// classifyStatus maps a response status to its error class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusBadGateway:
		return ErrorClassUpstream
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
