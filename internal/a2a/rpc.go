package a2a

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC methods every agent endpoint understands.
const (
	MethodMessageSend   = "message/send"
	MethodMessageStream = "message/stream"
	MethodTasksGet      = "tasks/get"
)

// Error codes used on the wire.
const (
	CodeInvalidParams = -32602
	CodeUpstream      = -32000
	CodeTaskNotFound  = 404
	CodeBadMethod     = 400
)

// MessageSendParams is the params object for message/send and message/stream.
type MessageSendParams struct {
	Message       Message            `json:"message"`
	Configuration *SendConfiguration `json:"configuration,omitempty"`
}

// TaskQueryParams is the params object for tasks/get.
type TaskQueryParams struct {
	ID string `json:"id"`
}

// Request is the generic JSON-RPC request envelope. Params stays raw until
// the method is known.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// SendParams decodes the request params as MessageSendParams.
func (r *Request) SendParams() (*MessageSendParams, error) {
	var p MessageSendParams
	if err := json.Unmarshal(r.Params, &p); err != nil {
		return nil, fmt.Errorf("decode send params: %w", err)
	}
	return &p, nil
}

// TaskParams decodes the request params as TaskQueryParams.
func (r *Request) TaskParams() (*TaskQueryParams, error) {
	var p TaskQueryParams
	if err := json.Unmarshal(r.Params, &p); err != nil {
		return nil, fmt.Errorf("decode task params: %w", err)
	}
	return &p, nil
}

// RPCError is the structured error object carried in responses and pushed
// into gateway streams.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response is the JSON-RPC response envelope. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string    `json:"jsonrpc,omitempty"`
	ID      string    `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// NewResultResponse wraps a result value.
func NewResultResponse(id string, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// NewErrorResponse wraps an error object.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
}

// NewSendRequest builds a message/send request with a fresh request ID.
func NewSendRequest(params MessageSendParams) (Request, error) {
	return newRequest(MethodMessageSend, params)
}

// NewStreamRequest builds a message/stream request with a fresh request ID.
func NewStreamRequest(params MessageSendParams) (Request, error) {
	return newRequest(MethodMessageStream, params)
}

func newRequest(method string, params MessageSendParams) (Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, fmt.Errorf("encode params: %w", err)
	}
	return Request{JSONRPC: "2.0", ID: NewID(), Method: method, Params: raw}, nil
}
