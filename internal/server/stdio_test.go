package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeStdioRoundTrip(t *testing.T) {
	h, _, _ := newTestHandler(t)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n"
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), h, strings.NewReader(in), &out, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2.0", first.JSONRPC)
	assert.Equal(t, json.RawMessage(`1`), first.ID)
	assert.Nil(t, first.Error)
}

func TestServeStdioParseErrorContinues(t *testing.T) {
	h, _, _ := newTestHandler(t)

	in := "this is not json\n" +
		`{"jsonrpc":"2.0","id":7,"method":"tools/list"}` + "\n"
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), h, strings.NewReader(in), &out, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var parseErr Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &parseErr))
	require.NotNil(t, parseErr.Error)
	assert.Equal(t, CodeParseError, parseErr.Error.Code)
	assert.Equal(t, json.RawMessage(`null`), parseErr.ID)

	var second Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second.Error)
	assert.Equal(t, json.RawMessage(`7`), second.ID)
}

func TestServeStdioMaxSizeWritePayload(t *testing.T) {
	h, ws, _ := newTestHandler(t)

	// 10 MiB of newlines escapes to a ~20 MiB JSON line.
	content := strings.Repeat("\n", 10<<20)
	line, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "write_file",
			"arguments": map[string]any{"filename": "big.txt", "content": content},
		},
	})
	require.NoError(t, err)

	in := io.MultiReader(
		bytes.NewReader(line),
		strings.NewReader("\n"+`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`+"\n"),
	)
	var out bytes.Buffer
	require.NoError(t, ServeStdio(context.Background(), h, in, &out, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Nil(t, first.Error)

	info, err := os.Stat(filepath.Join(ws.Root(), "big.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(10<<20), info.Size())
}

func TestServeStdioOversizedLineAnswersAndContinues(t *testing.T) {
	h, _, _ := newTestHandler(t)

	chunk := bytes.Repeat([]byte("x"), 1<<20)
	readers := make([]io.Reader, 0, 67)
	for i := 0; i < 66; i++ {
		readers = append(readers, bytes.NewReader(chunk))
	}
	readers = append(readers, strings.NewReader("\n"+`{"jsonrpc":"2.0","id":3,"method":"tools/list"}`+"\n"))

	var out bytes.Buffer
	require.NoError(t, ServeStdio(context.Background(), h, io.MultiReader(readers...), &out, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotNil(t, first.Error)
	assert.Equal(t, CodeParseError, first.Error.Code)
	assert.Equal(t, json.RawMessage(`null`), first.ID)

	var second Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second.Error)
	assert.Equal(t, json.RawMessage(`3`), second.ID)
}

func TestServeStdioSkipsBlankLines(t *testing.T) {
	h, _, _ := newTestHandler(t)

	in := "\n\n" + `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), h, strings.NewReader(in), &out, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 1)
}
