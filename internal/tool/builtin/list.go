// Package builtin implements the workspace-backed tools surfaced through the
// protocol adapter and the reasoning loop. Every tool delegates path safety,
// size caps and rate limiting to the workspace; failures come back as
// ToolResult.Error so the agent can observe them and plan recovery.
package builtin

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/workspace"
)

// ── list_files ──

type ListFilesTool struct {
	ws *workspace.Workspace
}

func NewListFilesTool(ws *workspace.Workspace) *ListFilesTool { return &ListFilesTool{ws: ws} }

func (t *ListFilesTool) Name() string { return "list_files" }
func (t *ListFilesTool) Description() string {
	return "List the files in the workspace, newest first. Directories are not included."
}
func (t *ListFilesTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *ListFilesTool) Examples() []string {
	return []string{`list_files {}`}
}

func (t *ListFilesTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	files, err := t.ws.ListFiles()
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(files) == 0 {
		return tool.ToolResult{Output: "(no files in workspace)"}, nil
	}
	return tool.ToolResult{Output: strings.Join(files, "\n")}, nil
}

// ── list_directories ──

type ListDirectoriesTool struct {
	ws *workspace.Workspace
}

func NewListDirectoriesTool(ws *workspace.Workspace) *ListDirectoriesTool {
	return &ListDirectoriesTool{ws: ws}
}

func (t *ListDirectoriesTool) Name() string { return "list_directories" }
func (t *ListDirectoriesTool) Description() string {
	return "List the directories in the workspace, newest first."
}
func (t *ListDirectoriesTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *ListDirectoriesTool) Examples() []string {
	return []string{`list_directories {}`}
}

func (t *ListDirectoriesTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	dirs, err := t.ws.ListDirectories()
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(dirs) == 0 {
		return tool.ToolResult{Output: "(no directories in workspace)"}, nil
	}
	return tool.ToolResult{Output: strings.Join(dirs, "\n")}, nil
}

// ── list_all ──

type ListAllTool struct {
	ws *workspace.Workspace
}

func NewListAllTool(ws *workspace.Workspace) *ListAllTool { return &ListAllTool{ws: ws} }

func (t *ListAllTool) Name() string { return "list_all" }
func (t *ListAllTool) Description() string {
	return "List both files and directories in the workspace, newest first. Directories carry a trailing slash. Use this when the user wants a complete listing."
}
func (t *ListAllTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *ListAllTool) Examples() []string {
	return []string{`list_all {}`}
}

func (t *ListAllTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	items, err := t.ws.ListAll()
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(items) == 0 {
		return tool.ToolResult{Output: "(workspace is empty)"}, nil
	}
	return tool.ToolResult{Output: strings.Join(items, "\n")}, nil
}

// ── list_tree ──

type ListTreeTool struct {
	ws *workspace.Workspace
}

func NewListTreeTool(ws *workspace.Workspace) *ListTreeTool { return &ListTreeTool{ws: ws} }

func (t *ListTreeTool) Name() string { return "list_tree" }
func (t *ListTreeTool) Description() string {
	return "Render the workspace as an ASCII tree: directories first, then files, alphabetically. Hidden directories are excluded."
}
func (t *ListTreeTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *ListTreeTool) Examples() []string {
	return []string{`list_tree {}`}
}

func (t *ListTreeTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	tree, err := t.ws.ListTree()
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: tree}, nil
}

// ── find_file_by_name ──

type FindFileTool struct {
	ws *workspace.Workspace
}

func NewFindFileTool(ws *workspace.Workspace) *FindFileTool { return &FindFileTool{ws: ws} }

func (t *FindFileTool) Name() string { return "find_file_by_name" }
func (t *FindFileTool) Description() string {
	return "Search the workspace recursively for files with an exact name and return their relative paths."
}
func (t *FindFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "filename", Type: "string", Description: "Exact filename to search for", Required: true},
	)
}
func (t *FindFileTool) Examples() []string {
	return []string{`find_file_by_name {"filename": "notes.txt"}`}
}

func (t *FindFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: "invalid arguments: " + err.Error()}, nil
	}
	matches, err := t.ws.FindFileByName(a.Filename)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(matches) == 0 {
		return tool.ToolResult{Output: "no file named \"" + a.Filename + "\" found"}, nil
	}
	return tool.ToolResult{Output: strings.Join(matches, "\n")}, nil
}

// ── find_largest_file ──

type FindLargestFileTool struct {
	ws *workspace.Workspace
}

func NewFindLargestFileTool(ws *workspace.Workspace) *FindLargestFileTool {
	return &FindLargestFileTool{ws: ws}
}

func (t *FindLargestFileTool) Name() string { return "find_largest_file" }
func (t *FindLargestFileTool) Description() string {
	return "Find the largest file in the workspace and report its name and size."
}
func (t *FindLargestFileTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *FindLargestFileTool) Examples() []string {
	return []string{`find_largest_file {}`}
}

func (t *FindLargestFileTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	name, size, err := t.ws.FindLargestFile()
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: name + " (" + formatSize(size) + ")"}, nil
}
