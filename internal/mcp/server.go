// In file: internal/mcp/server.go
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dileep-u-k/hn-gateway/internal/tools"

	"github.com/sirupsen/logrus"
)

// ToolRegistry is what the server needs from the tool manager.
type ToolRegistry interface {
	GetDefinitions() []tools.Tool
	Execute(ctx context.Context, name, arguments string) (tools.Result, error)
}

// Server dispatches JSON-RPC requests. It holds no per-session state.
type Server struct {
	info  ServerInfo
	tools ToolRegistry
	log   logrus.FieldLogger
}

func NewServer(name, version string, registry ToolRegistry, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		info:  ServerInfo{Name: name, Version: version},
		tools: registry,
		log:   log,
	}
}

// Info returns the advertised server name and version.
func (s *Server) Info() ServerInfo { return s.info }

// HandleMessage decodes and dispatches one raw message. It returns nil when no
// response should be written (notifications).
func (s *Server) HandleMessage(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, CodeParseError, "Parse error: "+err.Error())
	}
	return s.Handle(ctx, &req)
}

// Handle dispatches a decoded request.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request: method is required")
	}

	s.log.WithFields(logrus.Fields{"method": req.Method, "id": string(req.ID)}).Debug("mcp request")

	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      s.info,
		}, nil
	case "ping", "notifications/initialized", "notifications/cancelled":
		return struct{}{}, nil
	case "tools/list":
		return s.listTools(), nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method '%s' not found", req.Method)}
	}
}

func (s *Server) listTools() ToolsListResult {
	defs := s.tools.GetDefinitions()
	out := ToolsListResult{Tools: make([]ToolDef, 0, len(defs))}
	for _, d := range defs {
		out.Tools = append(out.Tools, ToolDef{
			Name:        d.Function.Name,
			Description: d.Function.Description,
			InputSchema: d.Function.Parameters,
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, rawParams json.RawMessage) (any, *RPCError) {
	var params CallToolParams
	if len(rawParams) == 0 {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: name is required"}
	}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: " + err.Error()}
	}
	if params.Name == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: name is required"}
	}

	res, err := s.tools.Execute(ctx, params.Name, string(params.Arguments))
	if errors.Is(err, tools.ErrToolNotFound) {
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found", params.Name)}
	}
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "Internal error: " + err.Error()}
	}

	return CallToolResult{
		Content: []Content{{Type: "text", Text: res.Text}},
		IsError: res.IsError,
	}, nil
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}
