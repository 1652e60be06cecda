package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/sdsgate/internal/errors"
	"github.com/example/sdsgate/internal/logging"
)

// Handler executes one tool call. The returned bytes are the tool's JSON
// payload, passed to the client verbatim.
type Handler func(ctx context.Context, args map[string]any) (json.RawMessage, error)

// Registry holds the server identity and the registered tools, and
// serves the JSON-RPC endpoint. Registration happens once at startup;
// serving is read-only and safe for concurrent requests.
type Registry struct {
	name         string
	version      string
	instructions string
	tools        []Tool
	handlers     map[string]Handler
}

// NewRegistry creates an empty tool registry.
func NewRegistry(name, version, instructions string) *Registry {
	return &Registry{
		name:         name,
		version:      version,
		instructions: instructions,
		handlers:     make(map[string]Handler),
	}
}

// Register adds a tool and its handler.
func (r *Registry) Register(tool Tool, h Handler) {
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = h
}

// Tools returns the registered tool descriptors.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// ServeHTTP handles one JSON-RPC request per POST body (stateless
// streamable HTTP transport, no session tracking).
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rpc Request
	if err := json.NewDecoder(req.Body).Decode(&rpc); err != nil {
		// The request id could not be read, so the response carries
		// an explicit null id.
		writeResponse(w, &Response{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &Error{Code: CodeParseError, Message: "parse error"},
		})
		return
	}
	if rpc.JSONRPC != "2.0" || rpc.Method == "" {
		id := rpc.ID
		if id == nil {
			id = json.RawMessage("null")
		}
		writeResponse(w, &Response{
			JSONRPC: "2.0",
			ID:      id,
			Error:   &Error{Code: CodeInvalidRequest, Message: "invalid request"},
		})
		return
	}

	// Notifications get acknowledged without a body.
	if rpc.ID == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	writeResponse(w, r.dispatch(req.Context(), &rpc))
}

func (r *Registry) dispatch(ctx context.Context, rpc *Request) *Response {
	resp := &Response{JSONRPC: "2.0", ID: rpc.ID}

	switch rpc.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: r.name, Version: r.version},
			Instructions:    r.instructions,
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = listToolsResult{Tools: r.tools}
	case "tools/call":
		resp.Result = r.call(ctx, rpc.Params)
	default:
		resp.Error = &Error{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", rpc.Method),
		}
	}
	return resp
}

func (r *Registry) call(ctx context.Context, params json.RawMessage) *CallResult {
	var cp CallParams
	if err := json.Unmarshal(params, &cp); err != nil {
		return TextResult("invalid tool call parameters", true)
	}

	h, ok := r.handlers[cp.Name]
	if !ok {
		return TextResult(fmt.Sprintf("unknown tool: %s", cp.Name), true)
	}

	payload, err := h(ctx, cp.Arguments)
	if err != nil {
		return errorResult(cp.Name, err)
	}

	return &CallResult{
		Content: []TextContent{{Type: "text", Text: string(payload)}},
	}
}

// errorResult renders a failed tool call. Backend failures carry the
// backend's status and body through unchanged; transport failures become
// a generic message.
func errorResult(tool string, err error) *CallResult {
	if be, ok := errors.AsBackendError(err); ok {
		return TextResult(
			fmt.Sprintf("backend error: status %d: %s", be.Status, be.Body), true)
	}
	if _, ok := errors.AsTransportError(err); ok {
		return TextResult("backend unreachable, please try again", true)
	}

	logging.Error("Tool call failed", zap.String("tool", tool), zap.Error(err))
	return TextResult(fmt.Sprintf("tool %s failed: %v", tool, err), true)
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn("Failed to encode JSON-RPC response", zap.Error(err))
	}
}
