package llm

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agenterr"
	"github.com/wardenlabs/warden/internal/config"
)

// LLMRole names a reasoning channel with its own provider+model binding.
type LLMRole string

const (
	RoleAgent        LLMRole = "agent"         // main reasoning loop
	RoleSupervisor   LLMRole = "supervisor"    // moderation + tool selection (lightweight)
	RoleFileAnalysis LLMRole = "file_analysis" // answer_question_about_files
	RoleOrchestrator LLMRole = "orchestrator"  // reserved
)

// Factory builds a client for a provider+model pair. Swappable in tests.
type Factory func(provider, model string) (Client, error)

// Router resolves roles to clients. Immutable after construction.
type Router struct {
	clients map[LLMRole]Client
}

// NewRouter builds a router from an explicit role→client map.
func NewRouter(clients map[LLMRole]Client) *Router {
	return &Router{clients: clients}
}

// For returns the client bound to role.
func (r *Router) For(role LLMRole) (Client, error) {
	c, ok := r.clients[role]
	if !ok || c == nil {
		return nil, agenterr.Newf(agenterr.KindModelConfig, "no LLM client configured for role %q", string(role)).
			WithSuggestions("Check models.yaml and the provider API key environment variables")
	}
	return c, nil
}

// fallbackOrder is the provider preference when a configured provider's
// credentials are absent: Gemini → Anthropic → OpenAI.
var fallbackOrder = []string{"gemini", "anthropic", "openai"}

// providerKeyEnv maps providers to their API-key environment variables.
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// fallbackModels are the models used when a role falls back to a provider it
// was not originally configured for.
var fallbackModels = map[string]string{
	"gemini":    "gemini-2.0-flash",
	"anthropic": "claude-3-5-haiku-latest",
	"openai":    "gpt-4o-mini",
}

// HasCredentials reports whether provider's API key is configured.
func HasCredentials(provider string) bool {
	env, ok := providerKeyEnv[provider]
	return ok && os.Getenv(env) != ""
}

// ResolveProvider picks the provider+model actually usable for a binding:
// the configured one when its key is present, otherwise the first provider in
// the fallback order with credentials.
func ResolveProvider(pm config.ProviderModel) (config.ProviderModel, error) {
	if HasCredentials(pm.Provider) {
		return pm, nil
	}
	for _, p := range fallbackOrder {
		if p == pm.Provider {
			continue
		}
		if HasCredentials(p) {
			return config.ProviderModel{Provider: p, Model: fallbackModels[p]}, nil
		}
	}
	return config.ProviderModel{}, agenterr.Newf(agenterr.KindModelConfig,
		"no credentials for provider %q and no fallback provider is configured", pm.Provider).
		WithSuggestions("Set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY")
}

// NewRouterFromConfig resolves every role through ResolveProvider and builds
// its client with factory.
func NewRouterFromConfig(roles config.RoleConfig, factory Factory, log *zap.Logger) (*Router, error) {
	bindings := map[LLMRole]config.ProviderModel{
		RoleAgent:        roles.Agent,
		RoleSupervisor:   roles.Supervisor,
		RoleFileAnalysis: roles.FileAnalysis,
		RoleOrchestrator: roles.Orchestrator,
	}

	clients := make(map[LLMRole]Client, len(bindings))
	for role, pm := range bindings {
		resolved, err := ResolveProvider(pm)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		if resolved != pm {
			log.Info("provider fallback",
				zap.String("role", string(role)),
				zap.String("configured", pm.Provider),
				zap.String("using", resolved.Provider))
		}
		client, err := factory(resolved.Provider, resolved.Model)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		clients[role] = client
	}
	return NewRouter(clients), nil
}
