package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/tool/builtin"
	"github.com/wardenlabs/warden/internal/workspace"
)

func newTestHandler(t *testing.T) (*Handler, *workspace.Workspace, *Metrics) {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), workspace.Options{RateLimit: 1000})
	require.NoError(t, err)

	registry := tool.NewRegistry(nil)
	registry.Register(builtin.NewListFilesTool(ws))
	registry.Register(builtin.NewListAllTool(ws))
	registry.Register(builtin.NewReadFileTool(ws))
	registry.Register(builtin.NewWriteFileTool(ws))
	registry.Register(builtin.NewDeleteFileTool(ws))
	registry.Freeze()

	metrics := NewMetrics()
	executor := tool.NewExecutor(registry, ws, nil)
	return NewHandler(registry, executor, metrics, "warden", "1.0.0", nil), ws, metrics
}

func call(h *Handler, method string, params any) Response {
	var raw json.RawMessage
	if params != nil {
		raw, _ = json.Marshal(params)
	}
	return h.Handle(context.Background(), Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  raw,
	})
}

func TestHandleInitialize(t *testing.T) {
	h, _, _ := newTestHandler(t)
	resp := call(h, "initialize", nil)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "warden", info["name"])
	caps := result["capabilities"].(map[string]any)
	assert.Contains(t, caps, "tools")
	assert.Contains(t, caps, "resources")
}

func TestHandleToolsList(t *testing.T) {
	h, _, _ := newTestHandler(t)
	resp := call(h, "tools/list", nil)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	entries := result["tools"].([]toolEntry)
	require.Len(t, entries, 5)
	assert.Equal(t, "delete_file", entries[0].Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(entries[0].InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestHandleToolsCall(t *testing.T) {
	h, ws, _ := newTestHandler(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root(), "a.txt"), []byte("hello"), 0o644))

	resp := call(h, "tools/call", map[string]any{
		"name":      "read_file",
		"arguments": map[string]any{"filename": "a.txt"},
	})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, false, result["isError"])
	content := result["content"].([]contentBlock)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0].Type)
	assert.Equal(t, "hello", content[0].Text)
}

func TestHandleToolsCallSoftError(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := call(h, "tools/call", map[string]any{
		"name":      "read_file",
		"arguments": map[string]any{"filename": "ghost.txt"},
	})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, true, result["isError"])
}

func TestHandleToolsCallSecurityCode(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := call(h, "tools/call", map[string]any{
		"name":      "read_file",
		"arguments": map[string]any{"filename": "../../etc/passwd"},
	})
	// Path traversal surfaces as the tool's soft error: the workspace check
	// happens inside the tool, which reports it through ToolResult.
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, true, result["isError"])
}

func TestHandleToolsCallInvalidParams(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := call(h, "tools/call", map[string]any{"arguments": map[string]any{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp = call(h, "tools/call", map[string]any{
		"name":      "read_file",
		"arguments": map[string]any{},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandleToolsCallUnknownTool(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := call(h, "tools/call", map[string]any{
		"name":      "teleport",
		"arguments": map[string]any{},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandleResourcesList(t *testing.T) {
	h, _, _ := newTestHandler(t)
	resp := call(h, "resources/list", nil)

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Empty(t, result["resources"])
}

func TestHandleUnknownMethod(t *testing.T) {
	h, _, _ := newTestHandler(t)
	resp := call(h, "tools/destroy", nil)

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestHandleRecordsMetrics(t *testing.T) {
	h, _, metrics := newTestHandler(t)

	call(h, "tools/list", nil)
	call(h, "tools/call", map[string]any{"name": "list_files", "arguments": map[string]any{}})
	call(h, "no/such/method", nil)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, int64(1), snap.ToolCallsByName["list_files"])
	assert.GreaterOrEqual(t, snap.AverageResponseTimeSeconds, 0.0)
}
