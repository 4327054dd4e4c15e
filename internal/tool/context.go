package tool

import (
	"fmt"
	"strings"
)

// historyEntryMax bounds the length of a single operation-history entry.
const historyEntryMax = 120

// ChainContext is the per-request scratchpad linking consecutive tool calls:
// discovered filenames, cached file contents, and the last output of each
// tool. Created fresh per top-level request and discarded at request end.
// Not safe for concurrent use; a request is strictly sequential.
type ChainContext struct {
	ToolOutputs     map[string]string
	FileCache       map[string]string
	DiscoveredFiles []string
	History         []string
}

// NewChainContext returns an empty scratchpad.
func NewChainContext() *ChainContext {
	return &ChainContext{
		ToolOutputs: make(map[string]string),
		FileCache:   make(map[string]string),
	}
}

// RecordOutput stores the last output of a tool and appends a trimmed entry
// to the operation history.
func (c *ChainContext) RecordOutput(toolName, output string) {
	c.ToolOutputs[toolName] = output
	entry := toolName + ": " + output
	if len(entry) > historyEntryMax {
		entry = entry[:historyEntryMax] + "…"
	}
	c.History = append(c.History, strings.ReplaceAll(entry, "\n", " "))
}

// RecordDiscovered appends filenames found by a listing, skipping duplicates
// while preserving discovery order.
func (c *ChainContext) RecordDiscovered(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		dup := false
		for _, seen := range c.DiscoveredFiles {
			if seen == name {
				dup = true
				break
			}
		}
		if !dup {
			c.DiscoveredFiles = append(c.DiscoveredFiles, name)
		}
	}
}

// RecordFileContent caches the content of a read file.
func (c *ChainContext) RecordFileContent(name, content string) {
	c.FileCache[name] = content
}

// Summary renders the scratchpad for prompt injection.
func (c *ChainContext) Summary() string {
	if len(c.History) == 0 && len(c.DiscoveredFiles) == 0 {
		return ""
	}
	var sb strings.Builder
	if len(c.DiscoveredFiles) > 0 {
		sb.WriteString("Discovered files: " + strings.Join(c.DiscoveredFiles, ", ") + "\n")
	}
	if len(c.FileCache) > 0 {
		names := make([]string, 0, len(c.FileCache))
		for name := range c.FileCache {
			names = append(names, name)
		}
		sb.WriteString("Cached file contents: " + strings.Join(names, ", ") + "\n")
	}
	if len(c.History) > 0 {
		sb.WriteString(fmt.Sprintf("Operations so far (%d):\n", len(c.History)))
		for _, h := range c.History {
			sb.WriteString("  - " + h + "\n")
		}
	}
	return sb.String()
}
