package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/workspace"
)

// ── read_file ──

type ReadFileTool struct {
	ws *workspace.Workspace
}

func NewReadFileTool(ws *workspace.Workspace) *ReadFileTool { return &ReadFileTool{ws: ws} }

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the content of a file in the workspace. Pass LATEST_FILE as the filename to read the most recently modified file. Use a relative path to reach files in subdirectories."
}
func (t *ReadFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: "Name of the file to read, or a workspace-relative path", Required: true},
	)
}
func (t *ReadFileTool) Examples() []string {
	return []string{
		`read_file {"filename": "notes.txt"}`,
		`read_file {"filename": "LATEST_FILE"}`,
	}
}

func (t *ReadFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: "invalid arguments: " + err.Error()}, nil
	}

	var content string
	var err error
	if strings.ContainsRune(a.Filename, '/') {
		content, err = t.ws.ReadFileByPath(a.Filename)
	} else {
		content, err = t.ws.ReadFile(a.Filename)
	}
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: content}, nil
}

// ── write_file ──

type WriteFileTool struct {
	ws *workspace.Workspace
}

func NewWriteFileTool(ws *workspace.Workspace) *WriteFileTool { return &WriteFileTool{ws: ws} }

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Write text content to a file in the workspace. Mode \"overwrite\" creates or replaces the file; mode \"append\" concatenates."
}
func (t *WriteFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: "Name of the file to write", Required: true},
		tool.SchemaParam{Name: "content", Type: "string", Description: "Text content to write", Required: true},
		tool.SchemaParam{Name: "mode", Type: "string", Description: "Write mode", Enum: []string{"overwrite", "append"}},
	)
}
func (t *WriteFileTool) Examples() []string {
	return []string{`write_file {"filename": "notes.txt", "content": "hello", "mode": "overwrite"}`}
}

func (t *WriteFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
		Mode     string `json:"mode"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: "invalid arguments: " + err.Error()}, nil
	}
	mode := workspace.WriteMode(a.Mode)
	if a.Mode == "" {
		mode = workspace.ModeOverwrite
	}
	if err := t.ws.WriteFile(a.Filename, a.Content, mode); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("wrote %s (%d bytes, %s)", a.Filename, len(a.Content), mode)}, nil
}

// ── delete_file ──

type DeleteFileTool struct {
	ws *workspace.Workspace
}

func NewDeleteFileTool(ws *workspace.Workspace) *DeleteFileTool { return &DeleteFileTool{ws: ws} }

func (t *DeleteFileTool) Name() string { return "delete_file" }
func (t *DeleteFileTool) Description() string {
	return "Delete a file from the workspace. Directories cannot be deleted."
}
func (t *DeleteFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: "Name of the file to delete", Required: true},
	)
}
func (t *DeleteFileTool) Examples() []string {
	return []string{`delete_file {"filename": "obsolete.txt"}`}
}

func (t *DeleteFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: "invalid arguments: " + err.Error()}, nil
	}
	if err := t.ws.DeleteFile(a.Filename); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: "deleted " + a.Filename}, nil
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
