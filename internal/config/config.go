// Package config centralizes runtime configuration: limits for the workspace
// and reasoning loop, server binding, and the role → provider+model mapping
// used to route LLM calls.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for every recognized option.
const (
	DefaultMaxRead           = 10 << 20 // 10 MiB
	DefaultMaxWrite          = 10 << 20 // 10 MiB
	DefaultRateLimit         = 10       // ops per sliding second
	DefaultMaxIterations     = 10
	DefaultMaxFiles          = 10   // answer_question_about_files
	DefaultMaxContentPerFile = 2048 // chars per file in analysis prompt
)

// Config holds all recognized options.
type Config struct {
	WorkspacePath     string
	Host              string
	Port              int
	Workers           int
	Debug             bool
	MaxRead           int64
	MaxWrite          int64
	RateLimit         int
	MaxIterations     int
	MaxFiles          int
	MaxContentPerFile int
	Roles             RoleConfig
}

// ProviderModel binds one LLM role to a provider and model name.
type ProviderModel struct {
	Provider string `yaml:"provider"` // "openai", "anthropic", "gemini"
	Model    string `yaml:"model"`
}

// RoleConfig maps the four core roles to providers.
type RoleConfig struct {
	Agent        ProviderModel `yaml:"agent"`
	Supervisor   ProviderModel `yaml:"supervisor"`
	FileAnalysis ProviderModel `yaml:"file_analysis"`
	Orchestrator ProviderModel `yaml:"orchestrator"` // reserved
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset. The role map comes from models.yaml when present.
func FromEnv() (*Config, error) {
	cfg := &Config{
		WorkspacePath:     getEnvOrDefault("WORKSPACE_PATH", ""),
		Host:              getEnvOrDefault("HOST", "127.0.0.1"),
		Port:              getEnvIntOrDefault("PORT", 8765),
		Workers:           getEnvIntOrDefault("WORKERS", 0),
		Debug:             isTruthy(os.Getenv("DEBUG")),
		MaxRead:           int64(getEnvIntOrDefault("MAX_READ_BYTES", DefaultMaxRead)),
		MaxWrite:          int64(getEnvIntOrDefault("MAX_WRITE_BYTES", DefaultMaxWrite)),
		RateLimit:         getEnvIntOrDefault("RATE_LIMIT", DefaultRateLimit),
		MaxIterations:     getEnvIntOrDefault("MAX_ITERATIONS", DefaultMaxIterations),
		MaxFiles:          getEnvIntOrDefault("MAX_FILES", DefaultMaxFiles),
		MaxContentPerFile: getEnvIntOrDefault("MAX_CONTENT_PER_FILE", DefaultMaxContentPerFile),
		Roles:             DefaultRoles(),
	}

	if path := getEnvOrDefault("MODELS_CONFIG", "models.yaml"); path != "" {
		if _, err := os.Stat(path); err == nil {
			roles, err := LoadRoles(path)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			cfg.Roles = roles
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects nonsensical limit values.
func (c *Config) Validate() error {
	if c.MaxRead <= 0 {
		return fmt.Errorf("MAX_READ_BYTES must be positive, got %d", c.MaxRead)
	}
	if c.MaxWrite <= 0 {
		return fmt.Errorf("MAX_WRITE_BYTES must be positive, got %d", c.MaxWrite)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("MAX_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be 1-65535, got %d", c.Port)
	}
	return nil
}

// DefaultRoles returns the built-in role mapping: a capable model for main
// reasoning, a lightweight model for moderation and selection.
func DefaultRoles() RoleConfig {
	return RoleConfig{
		Agent:        ProviderModel{Provider: "openai", Model: "gpt-4o"},
		Supervisor:   ProviderModel{Provider: "openai", Model: "gpt-4o-mini"},
		FileAnalysis: ProviderModel{Provider: "gemini", Model: "gemini-2.0-flash"},
		Orchestrator: ProviderModel{Provider: "openai", Model: "gpt-4o"},
	}
}

// LoadRoles reads a role mapping from a YAML file. Missing roles keep their
// built-in defaults.
func LoadRoles(path string) (RoleConfig, error) {
	roles := DefaultRoles()
	data, err := os.ReadFile(path)
	if err != nil {
		return roles, err
	}
	var doc struct {
		Roles RoleConfig `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return roles, err
	}
	merge := func(dst *ProviderModel, src ProviderModel) {
		if src.Provider != "" {
			dst.Provider = src.Provider
		}
		if src.Model != "" {
			dst.Model = src.Model
		}
	}
	merge(&roles.Agent, doc.Roles.Agent)
	merge(&roles.Supervisor, doc.Roles.Supervisor)
	merge(&roles.FileAnalysis, doc.Roles.FileAnalysis)
	merge(&roles.Orchestrator, doc.Roles.Orchestrator)
	return roles, nil
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	}
	return false
}
