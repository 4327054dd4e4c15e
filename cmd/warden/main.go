// Command warden runs the sandboxed file-operations agent: an MCP-style
// JSON-RPC server over HTTP or stdio, plus a one-shot query mode for driving
// the full moderation + reasoning pipeline from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agent"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/llm"
	"github.com/wardenlabs/warden/internal/llm/anthropic"
	"github.com/wardenlabs/warden/internal/llm/gemini"
	"github.com/wardenlabs/warden/internal/llm/openai"
	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/reason"
	"github.com/wardenlabs/warden/internal/selector"
	"github.com/wardenlabs/warden/internal/server"
	"github.com/wardenlabs/warden/internal/supervisor"
	"github.com/wardenlabs/warden/internal/tool"
	"github.com/wardenlabs/warden/internal/tool/builtin"
	"github.com/wardenlabs/warden/internal/workspace"
)

const version = "0.3.0"

type rootFlags struct {
	workspace string
	debug     bool
	session   string
	env       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "warden",
		Short:         "Sandboxed file-operations agent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.workspace, "workspace", "", "workspace root directory (default WORKSPACE_PATH or cwd)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging and reasoning traces")
	root.PersistentFlags().StringVar(&flags.session, "session", "", "conversation id, reused to link follow-up queries")
	root.PersistentFlags().StringVar(&flags.env, "env", "", "env profile: load .env.<profile> before .env")

	root.AddCommand(newServeCmd(flags), newStdioCmd(flags), newAskCmd(flags))
	return root
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC over HTTP (/mcp, /health, /metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer app.close()
			app.banner()

			srv := server.NewHTTPServer(app.cfg.Host, app.cfg.Port, app.handler, app.metrics, app.log)
			fmt.Printf("🌐 Listening on http://%s:%d\n", app.cfg.Host, app.cfg.Port)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			app.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newStdioCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve JSON-RPC over stdin/stdout, one message per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer app.close()

			// No banner here: stdout carries the protocol.
			return server.ServeStdio(ctx, app.handler, os.Stdin, os.Stdout, app.log)
		},
	}
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <query>",
		Short: "Run one query through the moderation and reasoning pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, flags)
			if err != nil {
				return err
			}
			defer app.close()

			resp := app.agent.ProcessQuery(ctx, strings.Join(args, " "), flags.session)
			if app.cfg.Debug {
				out, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				fmt.Println(resp.Response)
			}
			if !resp.Success {
				return fmt.Errorf("query failed: %s", resp.ErrorMessage)
			}
			return nil
		},
	}
}

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	ws       *workspace.Workspace
	registry *tool.Registry
	handler  *server.Handler
	metrics  *server.Metrics
	agent    *agent.Agent
}

// buildApp wires the whole pipeline: env → config → workspace → LLM router →
// tools → supervisor/selector/loop → agent → protocol handler. Missing model
// credentials degrade to rule-based moderation and tool-only serving instead
// of failing startup.
func buildApp(ctx context.Context, flags *rootFlags) (*app, error) {
	boot := logging.New(logging.Options{Debug: flags.debug})
	config.LoadEnv(flags.env, boot)

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if flags.workspace != "" {
		cfg.WorkspacePath = flags.workspace
	}
	if flags.debug {
		cfg.Debug = true
	}
	if cfg.WorkspacePath == "" {
		cfg.WorkspacePath, _ = os.Getwd()
	}

	log := logging.New(logging.Options{Debug: cfg.Debug, LogFile: os.Getenv("LOG_FILE")})

	ws, err := workspace.New(cfg.WorkspacePath, workspace.Options{
		MaxRead:   cfg.MaxRead,
		MaxWrite:  cfg.MaxWrite,
		RateLimit: cfg.RateLimit,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	router, err := llm.NewRouterFromConfig(cfg.Roles, clientFactory(ctx, log), log)
	if err != nil {
		log.Warn("no usable LLM provider, running with rule-based moderation only", zap.Error(err))
		router = nil
	}
	agentClient := clientFor(router, llm.RoleAgent, log)
	supervisorClient := clientFor(router, llm.RoleSupervisor, log)
	analysisClient := clientFor(router, llm.RoleFileAnalysis, log)

	analyze := builtin.NewAnalyzeFilesTool(ws, analysisClient, cfg.MaxFiles, cfg.MaxContentPerFile)
	shared := []tool.Tool{
		builtin.NewListFilesTool(ws),
		builtin.NewListDirectoriesTool(ws),
		builtin.NewListAllTool(ws),
		builtin.NewListTreeTool(ws),
		builtin.NewReadFileTool(ws),
		builtin.NewWriteFileTool(ws),
		builtin.NewDeleteFileTool(ws),
		analyze,
	}

	// The reasoning loop gets the full set; the protocol surface stays at the
	// eight published tools.
	registry := tool.NewRegistry(log)
	for _, t := range shared {
		registry.Register(t)
	}
	registry.Register(builtin.NewFindFileTool(ws))
	registry.Register(builtin.NewFindLargestFileTool(ws))
	registry.Register(builtin.NewHelpTool())
	registry.Freeze()

	surface := tool.NewRegistry(log)
	for _, t := range shared {
		surface.Register(t)
	}
	surface.Freeze()

	executor := tool.NewExecutor(registry, ws, log)
	surfaceExecutor := tool.NewExecutor(surface, ws, log)

	sup := supervisor.New(supervisorClient, log)
	sel := selector.New(supervisorClient, registry, log)
	loop := reason.NewLoop(reason.Options{
		Client:        agentClient,
		Executor:      executor,
		Registry:      registry,
		Selector:      sel,
		WorkspacePath: ws.Root(),
		MaxIterations: cfg.MaxIterations,
		Logger:        log,
	})

	metrics := server.NewMetrics()
	handler := server.NewHandler(surface, surfaceExecutor, metrics, "warden", version, log)

	return &app{
		cfg:      cfg,
		log:      log,
		ws:       ws,
		registry: registry,
		handler:  handler,
		metrics:  metrics,
		agent:    agent.New(sup, loop, cfg.Debug, log),
	}, nil
}

func (a *app) close() { _ = a.log.Sync() }

func (a *app) banner() {
	fmt.Println(` ██╗    ██╗ █████╗ ██████╗ ██████╗ ███████╗███╗   ██╗`)
	fmt.Println(` ██║    ██║██╔══██╗██╔══██╗██╔══██╗██╔════╝████╗  ██║`)
	fmt.Println(` ██║ █╗ ██║███████║██████╔╝██║  ██║█████╗  ██╔██╗ ██║`)
	fmt.Println(` ██║███╗██║██╔══██║██╔══██╗██║  ██║██╔══╝  ██║╚██╗██║`)
	fmt.Println(` ╚███╔███╔╝██║  ██║██║  ██║██████╔╝███████╗██║ ╚████║`)
	fmt.Println(`  ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═══╝`)
	fmt.Printf("         sandboxed file agent · v%s\n", version)
	fmt.Printf("📂 Workspace: %s\n", a.ws.Root())
	fmt.Printf("🤖 Agent model: %s/%s\n", a.cfg.Roles.Agent.Provider, a.cfg.Roles.Agent.Model)
	fmt.Printf("🛠️  Tools: %d registered\n", len(a.registry.Names()))
}

// clientFactory builds provider clients from environment credentials.
func clientFactory(ctx context.Context, log *zap.Logger) llm.Factory {
	return func(provider, model string) (llm.Client, error) {
		switch provider {
		case "openai":
			return openai.NewClientFromEnv(model, log)
		case "anthropic":
			return anthropic.NewClientFromEnv(model, log)
		case "gemini":
			return gemini.NewClientFromEnv(ctx, model, log)
		default:
			return nil, fmt.Errorf("unknown LLM provider %q", provider)
		}
	}
}

func clientFor(r *llm.Router, role llm.LLMRole, log *zap.Logger) llm.Client {
	if r == nil {
		return nil
	}
	c, err := r.For(role)
	if err != nil {
		log.Warn("role has no client", zap.String("role", string(role)), zap.Error(err))
		return nil
	}
	return c
}
