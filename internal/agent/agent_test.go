package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/llm"
	"github.com/wardenlabs/warden/internal/reason"
	"github.com/wardenlabs/warden/internal/supervisor"
	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/tool/builtin"
	"github.com/wardenlabs/warden/internal/workspace"
)

// scriptedClient replays a sequence of replies and counts calls.
type scriptedClient struct {
	replies []string
	calls   int
}

func (c *scriptedClient) CallLLM(_ context.Context, _ []llm.Message) (llm.Message, error) {
	c.calls++
	idx := c.calls - 1
	if idx >= len(c.replies) {
		idx = len(c.replies) - 1
	}
	return llm.Message{Role: llm.RoleAssistant, Content: c.replies[idx]}, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

func newTestAgent(t *testing.T, reasoner llm.Client, debug bool) (*Agent, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), workspace.Options{RateLimit: 1000})
	require.NoError(t, err)

	registry := tool.NewRegistry(nil)
	registry.Register(builtin.NewListFilesTool(ws))
	registry.Register(builtin.NewListAllTool(ws))
	registry.Register(builtin.NewReadFileTool(ws))
	registry.Register(builtin.NewHelpTool())
	registry.Freeze()

	loop := reason.NewLoop(reason.Options{
		Client:        reasoner,
		Executor:      tool.NewExecutor(registry, ws, nil),
		Registry:      registry,
		WorkspacePath: ws.Root(),
	})

	sup := supervisor.New(nil, nil)
	return New(sup, loop, debug, nil), ws
}

func TestProcessQueryAssignsConversationID(t *testing.T) {
	client := &scriptedClient{replies: []string{`{
		"thinking": "answering",
		"tool_name": null,
		"continue_reasoning": false,
		"final_response": "No files yet.",
		"confidence": 0.9
	}`}}
	a, _ := newTestAgent(t, client, false)

	resp := a.ProcessQuery(context.Background(), "list all files", "")
	assert.NotEmpty(t, resp.ConversationID)
	assert.True(t, resp.Success)
	assert.Equal(t, "No files yet.", resp.Response)

	resp2 := a.ProcessQuery(context.Background(), "list all files", "fixed-id")
	assert.Equal(t, "fixed-id", resp2.ConversationID)
}

func TestProcessQueryRejectsTraversal(t *testing.T) {
	client := &scriptedClient{replies: []string{"should not run"}}
	a, _ := newTestAgent(t, client, false)

	resp := a.ProcessQuery(context.Background(), "read ../../etc/passwd", "")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Response, "🚫 Request rejected")
	assert.Empty(t, resp.ToolsUsed)
	assert.Zero(t, client.calls)
}

func TestProcessQueryRunsToolChain(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{
			"thinking": "list first",
			"tool_name": "list_files",
			"tool_args": {},
			"continue_reasoning": true,
			"final_response": "",
			"confidence": 0.8
		}`,
		`{
			"thinking": "done",
			"goal": "List all files in the workspace",
			"tool_name": null,
			"continue_reasoning": false,
			"final_response": "The workspace contains hello.txt.",
			"confidence": 0.9
		}`,
	}}
	a, ws := newTestAgent(t, client, false)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root(), "hello.txt"), []byte("hi"), 0o644))

	resp := a.ProcessQuery(context.Background(), "list all files", "")
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"list_files"}, resp.ToolsUsed)
	assert.Contains(t, resp.Response, "hello.txt")
	require.NotNil(t, resp.GoalCompliance)
	assert.True(t, resp.GoalCompliance.IsCompliant())
	assert.Empty(t, resp.ReasoningSteps)
}

func TestProcessQueryDebugIncludesSteps(t *testing.T) {
	client := &scriptedClient{replies: []string{`{
		"thinking": "answering directly",
		"tool_name": null,
		"continue_reasoning": false,
		"final_response": "done",
		"confidence": 0.9
	}`}}
	a, _ := newTestAgent(t, client, true)

	resp := a.ProcessQuery(context.Background(), "list all files", "")
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ReasoningSteps)
	assert.Equal(t, reason.PhaseThink, resp.ReasoningSteps[0].Phase)
}

func TestProcessQueryClarification(t *testing.T) {
	client := &scriptedClient{replies: []string{"unused"}}
	a, _ := newTestAgent(t, client, false)

	resp := a.ProcessQuery(context.Background(), "help", "")
	assert.True(t, resp.Success)
	assert.Zero(t, client.calls)
	assert.Contains(t, resp.Response, "🤔")
	assert.Contains(t, resp.Response, "list files")
	assert.Contains(t, resp.Response, "delete a file")
}
