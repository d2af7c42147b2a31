// Package jsonrpc defines the JSON-RPC 2.0 request/response envelope and
// the Ethereum-convention error-object shape this node's transport layer
// speaks, grounded on original_source/crates/edr_rpc_client's request/
// response structs and the teacher's console/web3ext dispatch pattern for
// mapping a method name to a handler.
package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the only JSON-RPC version this server accepts.
const Version = "2.0"

// Request is one JSON-RPC 2.0 call. ID is raw JSON so it round-trips
// whether the caller used a number, string, or (for a notification) omits
// it entirely.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no ID (a
// fire-and-forget call with no expected response).
func (r *Request) IsNotification() bool { return len(r.ID) == 0 }

// Response is one JSON-RPC 2.0 reply: exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error codes following Ethereum JSON-RPC convention (spec §6), layered
// on top of the base JSON-RPC 2.0 reserved range.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeInvalidInput   = -32000
	CodeRevert         = 3
)

// Error is the {code, message, data?} error object the spec requires.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewError returns an Error with no attached data.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithData returns an Error carrying data, marshaled to JSON (a
// revert's raw return data, or a structured validation detail).
func NewErrorWithData(code int, message string, data any) (*Error, error) {
	enc, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Error{Code: code, Message: message, Data: enc}, nil
}

// NewResponse wraps a successful result for id.
func NewResponse(id json.RawMessage, result any) (*Response, error) {
	enc, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{JSONRPC: Version, ID: id, Result: enc}, nil
}

// NewErrorResponse wraps err for id.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: err}
}

// DecodeParams unmarshals r.Params into v; a request with no params
// decodes into v's zero value.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 {
		return nil
	}
	return json.Unmarshal(r.Params, v)
}

// StrictUnmarshal decodes data into v, rejecting any field not present on
// v — the spec's "strict unknown-field rejection for hardhat-namespace
// methods" requirement.
func StrictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
