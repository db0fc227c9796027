package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RpcContext carries per-request state into method handlers.
type RpcContext struct {
	Context  context.Context
	ClientIP string
}

// RpcError is the error object returned inside a failed response. For
// drop operations the code mirrors the engine's result code.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message"`
}

func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{Code: code, ErrorString: errorString, Message: message}
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorString, e.Code, e.Message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(-32601, "unknownCmd", fmt.Sprintf("Unknown method: %s", method))
}

func RpcErrorInvalidParams(detail string) *RpcError {
	return NewRpcError(-32602, "invalidParams", detail)
}

func RpcErrorInternal(detail string) *RpcError {
	return NewRpcError(-32603, "internal", detail)
}

// MethodHandler executes one RPC method.
type MethodHandler func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)

// MethodRegistry maps method names to handlers. Registration happens at
// server construction; lookups are concurrent.
type MethodRegistry struct {
	mu      sync.RWMutex
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]MethodHandler)}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.methods[name]
	return h, ok
}

func (r *MethodRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

// Request is the JSON-RPC request body:
// {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// WebSocketCommand is one inbound WebSocket message. Method parameters
// sit at the top level next to command and id.
type WebSocketCommand struct {
	Command string
	ID      interface{}
	Params  json.RawMessage
}

// WebSocketResponse is the reply to a WebSocket command.
type WebSocketResponse struct {
	Type   string      `json:"type"`
	ID     interface{} `json:"id,omitempty"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
}
