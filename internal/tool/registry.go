package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry manages registered tools with thread-safe access. It is populated
// at construction and immutable afterwards: Freeze is called once wiring is
// done and later Register calls panic.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	frozen bool
	log    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		tools: make(map[string]Tool),
		log:   log.Named("registry"),
	}
}

// Register adds a tool. Overwriting an existing name logs a warning.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("tool registry is frozen; all tools must be registered at construction")
	}
	if _, exists := r.tools[t.Name()]; exists {
		r.log.Warn("overwriting existing tool", zap.String("tool", t.Name()))
	}
	r.tools[t.Name()] = t
}

// Freeze marks the registry immutable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	r.log.Info("registry frozen", zap.Int("tools", len(r.tools)))
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Names returns all tool names sorted.
func (r *Registry) Names() []string {
	tools := r.List()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}

// CatalogPrompt renders every tool's metadata (description, parameter names,
// examples) for injection into LLM prompts. Nothing here is hard-coded: the
// text comes from the tools themselves.
func (r *Registry) CatalogPrompt() string {
	tools := r.List()
	if len(tools) == 0 {
		return "(no tools available)"
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("\n### %s\n%s\n", t.Name(), t.Description()))
		if params := ParamNames(t.InputSchema()); len(params) > 0 {
			sort.Strings(params)
			required := RequiredParams(t.InputSchema())
			reqSet := make(map[string]bool, len(required))
			for _, p := range required {
				reqSet[p] = true
			}
			sb.WriteString("Parameters: ")
			for i, p := range params {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(p)
				if reqSet[p] {
					sb.WriteString(" (required)")
				}
			}
			sb.WriteString("\n")
		}
		for _, ex := range t.Examples() {
			sb.WriteString("Example: " + ex + "\n")
		}
	}
	return sb.String()
}
