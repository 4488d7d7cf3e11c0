package catalogsync

import (
	"bytes"
	"encoding/json"
)

const defaultFailure = "error saving changes"

// submitResponse covers both the standard batch envelope and the framework error
// envelope the backend platform emits on unhandled failures.
type submitResponse struct {
	Success    bool            `json:"success"`
	Error      json.RawMessage `json:"error"`
	Data       json.RawMessage `json:"data"`
	DataRes    json.RawMessage `json:"dataRes"`
	MessageUSR flexString      `json:"messageUSR"`
	MessageDEV flexString      `json:"messageDEV"`
}

type frameworkError struct {
	Code       flexString `json:"code"`
	Message    flexString `json:"message"`
	InnerError *struct {
		Data       json.RawMessage `json:"data"`
		DataRes    json.RawMessage `json:"dataRes"`
		MessageUSR flexString      `json:"messageUSR"`
		MessageDEV flexString      `json:"messageDEV"`
	} `json:"innererror"`
}

// classify turns a decoded JSON submit response into a Result.
func classify(resp submitResponse) Result {
	if present(resp.Error) {
		return Result{Errors: frameworkErrors(resp.Error)}
	}
	if !resp.Success {
		if errs, ok := firstDataRes(resp.Data); ok {
			return Result{Errors: errs}
		}
		if errs, ok := errorList(resp.DataRes); ok {
			return Result{Errors: errs}
		}
		return Result{Errors: []OperationError{
			batchError(CodeOperationFailed, firstNonEmpty(string(resp.MessageUSR), string(resp.MessageDEV), defaultFailure)),
		}}
	}
	return Result{Success: true}
}

func frameworkErrors(raw json.RawMessage) []OperationError {
	var fe frameworkError
	if err := json.Unmarshal(raw, &fe); err != nil {
		// Not an object: the envelope still means failure; use whatever text it has.
		var msg flexString
		_ = json.Unmarshal(raw, &msg)
		return []OperationError{batchError(CodeOperationFailed, firstNonEmpty(string(msg), defaultFailure))}
	}
	code := firstNonEmpty(string(fe.Code), CodeOperationFailed)
	if inner := fe.InnerError; inner != nil {
		if errs, ok := firstDataRes(inner.Data); ok {
			return errs
		}
		if errs, ok := errorList(inner.DataRes); ok {
			return errs
		}
		return []OperationError{batchError(code, firstNonEmpty(
			string(inner.MessageUSR), string(inner.MessageDEV), string(fe.Message), defaultFailure,
		))}
	}
	return []OperationError{batchError(code, firstNonEmpty(string(fe.Message), defaultFailure))}
}

// firstDataRes reads data[0].dataRes.
func firstDataRes(raw json.RawMessage) ([]OperationError, bool) {
	if !present(raw) {
		return nil, false
	}
	var items []struct {
		DataRes json.RawMessage `json:"dataRes"`
	}
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return errorList(items[0].DataRes)
}

func errorList(raw json.RawMessage) ([]OperationError, bool) {
	if !present(raw) {
		return nil, false
	}
	var errs []OperationError
	if err := json.Unmarshal(raw, &errs); err != nil {
		return nil, false
	}
	if errs == nil {
		errs = []OperationError{}
	}
	return errs, true
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("false"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
