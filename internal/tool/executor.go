package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agenterr"
)

// DefaultToolDeadline is applied to tool calls whose context has none.
const DefaultToolDeadline = 30 * time.Second

// latestFilePlaceholder in read_file arguments resolves to the newest file.
const latestFilePlaceholder = "LATEST_FILE"

// FileLister is the narrow view of the workspace the executor needs for
// LATEST_FILE resolution.
type FileLister interface {
	ListFiles() ([]string, error)
}

// Executor invokes tools by name with validated arguments. Argument payloads
// are checked against each tool's compiled JSON Schema before dispatch.
type Executor struct {
	registry *Registry
	lister   FileLister
	schemas  map[string]*jsonschema.Schema
	log      *zap.Logger
}

// NewExecutor compiles the InputSchema of every registered tool. Tools whose
// schema fails to compile fall back to required-parameter checking only.
func NewExecutor(registry *Registry, lister FileLister, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	schemas := make(map[string]*jsonschema.Schema)
	for _, t := range registry.List() {
		compiler := jsonschema.NewCompiler()
		url := "tool://" + t.Name() + "/schema.json"
		if err := compiler.AddResource(url, bytes.NewReader(t.InputSchema())); err != nil {
			log.Warn("schema resource rejected", zap.String("tool", t.Name()), zap.Error(err))
			continue
		}
		sch, err := compiler.Compile(url)
		if err != nil {
			log.Warn("schema compile failed", zap.String("tool", t.Name()), zap.Error(err))
			continue
		}
		schemas[t.Name()] = sch
	}
	return &Executor{
		registry: registry,
		lister:   lister,
		schemas:  schemas,
		log:      log.Named("executor"),
	}
}

// Execute resolves and runs an invocation, then updates the chain context.
// Tool-level failures come back as ToolResult with IsError()=true; only
// infrastructure problems (unknown tool, invalid arguments) return a Go
// error.
func (e *Executor) Execute(ctx context.Context, inv Invocation, chain *ChainContext) (ToolResult, error) {
	t, ok := e.registry.Get(inv.ToolName)
	if !ok {
		return ToolResult{}, agenterr.Newf(agenterr.KindToolNotFound, "unknown tool %q", inv.ToolName).
			WithSuggestions("Call tools/list to see the available tools")
	}

	args := inv.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	args, err := e.resolveLatestFile(inv.ToolName, args)
	if err != nil {
		return ToolResult{}, err
	}

	if err := e.validateArgs(t, args); err != nil {
		return ToolResult{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultToolDeadline)
		defer cancel()
	}

	start := time.Now()
	result, err := t.Execute(ctx, args)
	if err != nil {
		// Tools report soft failures in ToolResult.Error; a Go error here is
		// infrastructure-level and wrapped accordingly.
		return ToolResult{}, agenterr.Wrap(agenterr.KindToolExecution,
			fmt.Sprintf("tool %q failed", inv.ToolName), err)
	}
	e.log.Debug("tool executed",
		zap.String("tool", inv.ToolName),
		zap.Bool("is_error", result.IsError()),
		zap.Duration("elapsed", time.Since(start)))

	if chain != nil {
		e.updateChain(chain, inv.ToolName, args, result)
	}
	return result, nil
}

// resolveLatestFile substitutes the LATEST_FILE placeholder in read_file
// arguments with the newest filename from a fresh listing.
func (e *Executor) resolveLatestFile(toolName string, args json.RawMessage) (json.RawMessage, error) {
	if toolName != "read_file" || e.lister == nil {
		return args, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return args, nil // argument validation reports this properly
	}
	name, _ := parsed["filename"].(string)
	if name != latestFilePlaceholder {
		return args, nil
	}
	files, err := e.lister.ListFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, agenterr.New(agenterr.KindFileNotFound, "workspace contains no files to resolve LATEST_FILE")
	}
	parsed["filename"] = files[0] // listings are newest-first
	e.log.Debug("resolved LATEST_FILE", zap.String("filename", files[0]))
	return json.Marshal(parsed)
}

// validateArgs checks required parameters and, when available, the compiled
// JSON Schema.
func (e *Executor) validateArgs(t Tool, args json.RawMessage) error {
	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return agenterr.Wrap(agenterr.KindToolArgument,
			fmt.Sprintf("arguments for %q are not a JSON object", t.Name()), err)
	}

	for _, req := range RequiredParams(t.InputSchema()) {
		if _, ok := parsed[req]; !ok {
			return agenterr.Newf(agenterr.KindToolArgument,
				"tool %q requires parameter %q", t.Name(), req).
				WithContext("parameter", req)
		}
	}

	if sch, ok := e.schemas[t.Name()]; ok {
		var doc any
		if err := json.Unmarshal(args, &doc); err == nil {
			if err := sch.Validate(doc); err != nil {
				return agenterr.Wrap(agenterr.KindToolArgument,
					fmt.Sprintf("arguments for %q violate the tool schema", t.Name()), err)
			}
		}
	}
	return nil
}

// updateChain records the result in the tool-chain context: listings feed
// discovered_files, reads feed the file cache, and every call appends to the
// operation history.
func (e *Executor) updateChain(chain *ChainContext, toolName string, args json.RawMessage, result ToolResult) {
	chain.RecordOutput(toolName, result.Text())
	if result.IsError() {
		return
	}

	switch {
	case strings.HasPrefix(toolName, "list_") || toolName == "find_file_by_name":
		for _, line := range strings.Split(result.Output, "\n") {
			name := strings.TrimSpace(line)
			if name == "" || strings.HasPrefix(name, "(") || strings.HasSuffix(name, "/") || strings.ContainsAny(name, "│├└─") {
				continue
			}
			chain.RecordDiscovered(name)
		}
	case toolName == "read_file":
		var parsed struct {
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(args, &parsed); err == nil && parsed.Filename != "" {
			chain.RecordFileContent(parsed.Filename, result.Output)
		}
	}
}
