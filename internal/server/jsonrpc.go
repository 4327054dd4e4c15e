// Package server exposes the tool catalog and executor over JSON-RPC 2.0 on
// two transports: line-delimited stdio and HTTP.
package server

import "encoding/json"

const jsonrpcVersion = "2.0"

// Standard JSON-RPC codes plus the protocol-specific range.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeToolError     = -32000
	CodeResourceError = -32001
	CodeSecurityError = -32002
	CodeTimeoutError  = -32003
)

// Request is one inbound JSON-RPC message.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is one outbound JSON-RPC message.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func resultResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: jsonrpcVersion, ID: normalizeID(id), Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: jsonrpcVersion, ID: normalizeID(id), Error: &Error{Code: code, Message: message}}
}

// normalizeID keeps the id field present even for notifications and parse
// errors, which must carry an explicit null id.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
