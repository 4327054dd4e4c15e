package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/agenterr"
)

type fakeLister struct {
	files []string
	err   error
	calls int
}

func (f *fakeLister) ListFiles() ([]string, error) {
	f.calls++
	return f.files, f.err
}

func newExecutorWith(tools ...Tool) (*Executor, *fakeLister) {
	r := NewRegistry(nil)
	for _, t := range tools {
		r.Register(t)
	}
	r.Freeze()
	lister := &fakeLister{}
	return NewExecutor(r, lister, nil), lister
}

func TestExecuteUnknownTool(t *testing.T) {
	exec, _ := newExecutorWith()
	_, err := exec.Execute(context.Background(), Invocation{ToolName: "nope"}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindToolNotFound))
}

func TestExecuteMissingRequiredParam(t *testing.T) {
	read := newFakeTool("read_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
	)
	exec, _ := newExecutorWith(read)

	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "read_file",
		Arguments: json.RawMessage(`{}`),
	}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindToolArgument))
}

func TestExecuteSchemaViolation(t *testing.T) {
	write := newFakeTool("write_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
		SchemaParam{Name: "mode", Type: "string", Description: "mode", Enum: []string{"overwrite", "append"}},
	)
	exec, _ := newExecutorWith(write)

	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "write_file",
		Arguments: json.RawMessage(`{"filename": "a.txt", "mode": "replace"}`),
	}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindToolArgument))
}

func TestExecuteNonObjectArguments(t *testing.T) {
	tool := newFakeTool("help")
	exec, _ := newExecutorWith(tool)

	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "help",
		Arguments: json.RawMessage(`"just a string"`),
	}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindToolArgument))
}

func TestExecuteEmptyArgumentsDefaultToObject(t *testing.T) {
	var seen json.RawMessage
	tool := newFakeTool("list_files")
	tool.execute = func(_ context.Context, args json.RawMessage) (ToolResult, error) {
		seen = args
		return ToolResult{Output: "a.txt"}, nil
	}
	exec, _ := newExecutorWith(tool)

	_, err := exec.Execute(context.Background(), Invocation{ToolName: "list_files"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(seen))
}

func TestExecuteResolvesLatestFile(t *testing.T) {
	var seen string
	read := newFakeTool("read_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
	)
	read.execute = func(_ context.Context, args json.RawMessage) (ToolResult, error) {
		var a struct {
			Filename string `json:"filename"`
		}
		_ = json.Unmarshal(args, &a)
		seen = a.Filename
		return ToolResult{Output: "content of " + a.Filename}, nil
	}
	exec, lister := newExecutorWith(read)
	lister.files = []string{"newest.txt", "older.txt"}

	res, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "read_file",
		Arguments: json.RawMessage(`{"filename": "LATEST_FILE"}`),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "newest.txt", seen)
	assert.Equal(t, "content of newest.txt", res.Output)
	assert.Equal(t, 1, lister.calls)
}

func TestExecuteLatestFileEmptyWorkspace(t *testing.T) {
	read := newFakeTool("read_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
	)
	exec, _ := newExecutorWith(read)

	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "read_file",
		Arguments: json.RawMessage(`{"filename": "LATEST_FILE"}`),
	}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindFileNotFound))
}

func TestExecuteLatestFileLeavesOtherNamesAlone(t *testing.T) {
	var seen string
	read := newFakeTool("read_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
	)
	read.execute = func(_ context.Context, args json.RawMessage) (ToolResult, error) {
		var a struct {
			Filename string `json:"filename"`
		}
		_ = json.Unmarshal(args, &a)
		seen = a.Filename
		return ToolResult{Output: "ok"}, nil
	}
	exec, lister := newExecutorWith(read)
	lister.files = []string{"newest.txt"}

	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "read_file",
		Arguments: json.RawMessage(`{"filename": "notes.txt"}`),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", seen)
	assert.Zero(t, lister.calls)
}

func TestExecuteWrapsToolGoError(t *testing.T) {
	tool := newFakeTool("help")
	tool.execute = func(_ context.Context, _ json.RawMessage) (ToolResult, error) {
		return ToolResult{}, errors.New("disk on fire")
	}
	exec, _ := newExecutorWith(tool)

	_, err := exec.Execute(context.Background(), Invocation{ToolName: "help"}, nil)
	require.Error(t, err)
	assert.True(t, agenterr.IsKind(err, agenterr.KindToolExecution))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestExecuteAppliesDeadline(t *testing.T) {
	var hadDeadline bool
	tool := newFakeTool("help")
	tool.execute = func(ctx context.Context, _ json.RawMessage) (ToolResult, error) {
		_, hadDeadline = ctx.Deadline()
		return ToolResult{Output: "ok"}, nil
	}
	exec, _ := newExecutorWith(tool)

	_, err := exec.Execute(context.Background(), Invocation{ToolName: "help"}, nil)
	require.NoError(t, err)
	assert.True(t, hadDeadline)
}

func TestExecuteUpdatesChainFromListing(t *testing.T) {
	list := newFakeTool("list_all")
	list.execute = func(_ context.Context, _ json.RawMessage) (ToolResult, error) {
		return ToolResult{Output: "report.txt\ndocs/\nnotes.txt"}, nil
	}
	exec, _ := newExecutorWith(list)

	chain := NewChainContext()
	_, err := exec.Execute(context.Background(), Invocation{ToolName: "list_all"}, chain)
	require.NoError(t, err)

	assert.Equal(t, []string{"report.txt", "notes.txt"}, chain.DiscoveredFiles)
	assert.Len(t, chain.History, 1)
}

func TestExecuteUpdatesChainFromRead(t *testing.T) {
	read := newFakeTool("read_file",
		SchemaParam{Name: "filename", Type: "string", Description: "file", Required: true},
	)
	read.execute = func(_ context.Context, _ json.RawMessage) (ToolResult, error) {
		return ToolResult{Output: "hello world"}, nil
	}
	exec, _ := newExecutorWith(read)

	chain := NewChainContext()
	_, err := exec.Execute(context.Background(), Invocation{
		ToolName:  "read_file",
		Arguments: json.RawMessage(`{"filename": "notes.txt"}`),
	}, chain)
	require.NoError(t, err)

	assert.Equal(t, "hello world", chain.FileCache["notes.txt"])
}

func TestExecuteChainSkipsErrorResults(t *testing.T) {
	list := newFakeTool("list_files")
	list.execute = func(_ context.Context, _ json.RawMessage) (ToolResult, error) {
		return ToolResult{Error: "rate limit exceeded"}, nil
	}
	exec, _ := newExecutorWith(list)

	chain := NewChainContext()
	res, err := exec.Execute(context.Background(), Invocation{ToolName: "list_files"}, chain)
	require.NoError(t, err)
	assert.True(t, res.IsError())

	assert.Empty(t, chain.DiscoveredFiles)
	assert.Len(t, chain.History, 1)
	assert.Contains(t, chain.History[0], "rate limit exceeded")
}

func TestExecuteChainSkipsPlaceholderLines(t *testing.T) {
	list := newFakeTool("list_files")
	list.execute = func(_ context.Context, _ json.RawMessage) (ToolResult, error) {
		return ToolResult{Output: "(no files in workspace)"}, nil
	}
	exec, _ := newExecutorWith(list)

	chain := NewChainContext()
	_, err := exec.Execute(context.Background(), Invocation{ToolName: "list_files"}, chain)
	require.NoError(t, err)
	assert.Empty(t, chain.DiscoveredFiles)
}
