// Package errors defines the error types returned by the stats client.
package errors

import (
	"fmt"
	"strings"
)

// Stages reported by DataGetError.
const (
	StageGetToken = "Get Token"
	StageGetPosts = "Get Posts"
)

// Reasons shared by the token and posts stages.
const (
	ReasonUnreadableJSON = "Could not read json from response"
)

// DataGetError reports a failure while retrieving data from the remote API.
// Stage tells which step failed, Reason is the human readable cause.
type DataGetError struct {
	// Stage is StageGetToken or StageGetPosts
	Stage string
	// Reason describes what went wrong
	Reason string
	// Err contains the underlying transport error if available
	Err error
}

// Error returns "Error during stage: <Stage>. <Reason>".
func (e *DataGetError) Error() string {
	return fmt.Sprintf("Error during stage: %s. %s", e.Stage, e.Reason)
}

func (e *DataGetError) Unwrap() error {
	return e.Err
}

// UnexpectedStatus builds the error used for any non-200 response.
func UnexpectedStatus(stage string, status int) *DataGetError {
	return &DataGetError{Stage: stage, Reason: fmt.Sprintf("Unexpected response status: %d", status)}
}

// UnreadableJSON builds the error used when a response body is not valid JSON.
func UnreadableJSON(stage string, err error) *DataGetError {
	return &DataGetError{Stage: stage, Reason: ReasonUnreadableJSON, Err: err}
}

// MissingParameter builds the error used when an expected JSON path is absent.
// The path is rendered as a tuple, e.g. ('data', 'posts').
func MissingParameter(stage string, path ...string) *DataGetError {
	quoted := make([]string, len(path))
	for i, p := range path {
		quoted[i] = "'" + p + "'"
	}
	return &DataGetError{
		Stage:  stage,
		Reason: fmt.Sprintf("Parameter (%s) not found in received json response", strings.Join(quoted, ", ")),
	}
}

// RequestFailed wraps a transport-level failure.
func RequestFailed(stage string, err error) *DataGetError {
	return &DataGetError{Stage: stage, Reason: "Request failed: " + err.Error(), Err: err}
}

// ConfigError indicates a problem with the client configuration.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}
