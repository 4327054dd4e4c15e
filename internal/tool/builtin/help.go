package builtin

import (
	"context"
	"encoding/json"

	"github.com/wardenlabs/warden/internal/tool"
)

const helpText = `I can work with the files in your workspace. Things you can ask me to do:

  1. List files and directories (e.g. "list all files", "show the tree")
  2. Read a file (e.g. "read notes.txt", "show me the latest file")
  3. Create or update a file (e.g. "create todo.txt with ...")
  4. Delete a file (e.g. "delete obsolete.txt")
  5. Ask questions about file contents (e.g. "which files mention the API?")

Tell me what you'd like to do.`

// HelpTool is the safe default the tool selector falls back to when no other
// tool matches. It never touches the workspace.
type HelpTool struct{}

func NewHelpTool() *HelpTool { return &HelpTool{} }

func (t *HelpTool) Name() string { return "help" }
func (t *HelpTool) Description() string {
	return "Explain what this agent can do. Safe fallback when no other tool fits the request."
}
func (t *HelpTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *HelpTool) Examples() []string {
	return []string{`help {}`}
}

func (t *HelpTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	return tool.ToolResult{Output: helpText}, nil
}
