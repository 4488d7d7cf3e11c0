package catalogsync

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error codes produced on the client side. Backend codes (DUPLICATE_KEY,
// PARENT_NOT_FOUND, INVALID_OPERATION, ...) are passed through unchanged.
const (
	CodeNetworkError    = "NETWORK_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeOperationFailed = "OPERATION_FAILED"
)

// ErrorDetail is the {code, message} pair of an OperationError.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OperationError is one entry of a failed batch: either a backend per-operation result
// or a synthesized batch-wide record.
type OperationError struct {
	Status     string      `json:"status"`
	Operation  string      `json:"operation"`
	Collection string      `json:"collection"`
	ID         string      `json:"id"`
	Error      ErrorDetail `json:"error"`
}

func (e *OperationError) UnmarshalJSON(b []byte) error {
	var raw struct {
		Status     flexString `json:"status"`
		Operation  flexString `json:"operation"`
		Collection flexString `json:"collection"`
		ID         flexString `json:"id"`
		Error      *struct {
			Code    flexString `json:"code"`
			Message flexString `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = OperationError{
		Status:     string(raw.Status),
		Operation:  string(raw.Operation),
		Collection: string(raw.Collection),
		ID:         string(raw.ID),
	}
	if raw.Error != nil {
		e.Error = ErrorDetail{Code: string(raw.Error.Code), Message: string(raw.Error.Message)}
	}
	return nil
}

func batchError(code, message string) OperationError {
	return OperationError{
		Status:     "ERROR",
		Operation:  "BATCH",
		Collection: "multiple",
		ID:         "batch",
		Error:      ErrorDetail{Code: code, Message: message},
	}
}

// SyncError is the Go error form of a failed Result.
type SyncError struct {
	Errors []OperationError
}

func (e *SyncError) Error() string {
	failed := e.failures()
	if len(failed) == 0 {
		return "batch rejected"
	}
	first := failed[0].Error
	msg := first.Code
	if first.Message != "" {
		msg += ": " + first.Message
	}
	if len(failed) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(failed)-1)
	}
	return "batch rejected: " + msg
}

// Codes lists the distinct error codes, in order of appearance.
func (e *SyncError) Codes() []string {
	var out []string
	seen := map[string]bool{}
	for _, oe := range e.failures() {
		if oe.Error.Code == "" || seen[oe.Error.Code] {
			continue
		}
		seen[oe.Error.Code] = true
		out = append(out, oe.Error.Code)
	}
	return out
}

// failures drops per-operation entries the backend reported as successful.
func (e *SyncError) failures() []OperationError {
	var out []OperationError
	for _, oe := range e.Errors {
		if strings.EqualFold(oe.Status, "SUCCESS") && oe.Error.Code == "" {
			continue
		}
		out = append(out, oe)
	}
	return out
}
