package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agenterr"
	"github.com/wardenlabs/warden/internal/tool"
)

const protocolVersion = "2024-11-05"

// Handler dispatches JSON-RPC methods onto the tool registry and executor.
// It is shared by both transports and safe for concurrent use.
type Handler struct {
	registry *tool.Registry
	executor *tool.Executor
	metrics  *Metrics
	name     string
	version  string
	log      *zap.Logger
}

func NewHandler(registry *tool.Registry, executor *tool.Executor, metrics *Metrics, name, version string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		executor: executor,
		metrics:  metrics,
		name:     name,
		version:  version,
		log:      log.Named("rpc"),
	}
}

// Handle processes one request and always produces a response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	var resp Response

	switch req.Method {
	case "initialize":
		resp = h.initialize(req)
	case "tools/list":
		resp = h.toolsList(req)
	case "tools/call":
		resp = h.toolsCall(ctx, req)
	case "resources/list":
		resp = resultResponse(req.ID, map[string]any{"resources": []any{}})
	default:
		resp = errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}

	h.metrics.RecordRequest(time.Since(start), resp.Error != nil)
	h.log.Debug("request handled",
		zap.String("method", req.Method),
		zap.Bool("is_error", resp.Error != nil),
		zap.Duration("elapsed", time.Since(start)))
	return resp
}

func (h *Handler) initialize(req Request) Response {
	return resultResponse(req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    h.name,
			"version": h.version,
		},
	})
}

// toolEntry is one catalog item in tools/list.
type toolEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func (h *Handler) toolsList(req Request) Response {
	tools := h.registry.List()
	entries := make([]toolEntry, 0, len(tools))
	for _, t := range tools {
		entries = append(entries, toolEntry{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return resultResponse(req.ID, map[string]any{"tools": entries})
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// contentBlock is the MCP text content shape.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (h *Handler) toolsCall(ctx context.Context, req Request) Response {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "tools/call requires params {name, arguments}")
	}

	h.metrics.RecordToolCall(params.Name)
	result, err := h.executor.Execute(ctx, tool.Invocation{
		ToolName:  params.Name,
		Arguments: params.Arguments,
	}, nil)
	if err != nil {
		return errorResponse(req.ID, codeForError(err), err.Error())
	}

	return resultResponse(req.ID, map[string]any{
		"content": []contentBlock{{Type: "text", Text: result.Text()}},
		"isError": result.IsError(),
	})
}

// codeForError maps the error taxonomy onto the wire codes.
func codeForError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeoutError
	}
	switch agenterr.KindOf(err) {
	case agenterr.KindPathTraversal, agenterr.KindSymlink, agenterr.KindSafetyViolation:
		return CodeSecurityError
	case agenterr.KindFileNotFound, agenterr.KindWorkspace, agenterr.KindSizeLimitExceeded:
		return CodeResourceError
	case agenterr.KindToolNotFound, agenterr.KindToolArgument, agenterr.KindInvalidArgument, agenterr.KindInvalidMode:
		return CodeInvalidParams
	case agenterr.KindToolExecution, agenterr.KindRateLimit:
		return CodeToolError
	default:
		return CodeInternalError
	}
}
