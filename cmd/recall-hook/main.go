// Package main implements the recall-hook binary invoked by the host
// assistant's lifecycle hooks.
//
// Each invocation is a short-lived process: read the hook payload from
// stdin, run one injection tier, print the (possibly empty) injection
// block to stdout, and exit 0. Only configuration mistakes exit non-zero;
// every runtime failure degrades to printing nothing so the user-visible
// turn is never blocked.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/injection"
	"github.com/fyrsmithlabs/recalld/internal/logging"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
	"github.com/fyrsmithlabs/recalld/internal/router"
	"github.com/fyrsmithlabs/recalld/internal/session"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recall-hook",
	Short: "Progressive context injection hooks for AI coding assistants",
	Long: `recall-hook is invoked by the host assistant at conversational events.
It reads the hook payload from stdin and prints recalled project context
to stdout, wrapped in <recalled-context> tags, or nothing at all.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/recalld/config.yaml)")
	rootCmd.AddCommand(sessionStartCmd)
	rootCmd.AddCommand(userPromptCmd)
	rootCmd.AddCommand(preCompactCmd)
}

// sessionStartCmd runs Tier 1 at conversation start.
var sessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Inject bootstrap context at conversation start",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHook(cmd, func(e *injection.Engine, in *HookInput) string {
			return e.Bootstrap(cmd.Context(), in.SessionID, in.ProjectID())
		})
	},
}

// userPromptCmd runs Tier 2 for each new user message.
var userPromptCmd = &cobra.Command{
	Use:   "user-prompt",
	Short: "Inject adaptive context for a new user message",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHook(cmd, func(e *injection.Engine, in *HookInput) string {
			return e.InjectForPrompt(cmd.Context(), in.SessionID, in.ProjectID(), in.Prompt)
		})
	},
}

// preCompactCmd clears the dedup window before the assistant compacts its
// context.
var preCompactCmd = &cobra.Command{
	Use:   "pre-compact",
	Short: "Reset the injection dedup window before context compaction",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHook(cmd, func(e *injection.Engine, in *HookInput) string {
			e.HandleCompact(cmd.Context(), in.SessionID)
			return ""
		})
	},
}

// runHook loads config (the one fatal path), assembles the engine, and
// runs one tier. Assembly failures are logged and produce empty output
// with exit 0.
func runHook(cmd *cobra.Command, run func(*injection.Engine, *HookInput) string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	input := ReadHookInput(cmd.InOrStdin(), logger)

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Warn("engine unavailable, skipping injection", zap.Error(err))
		return nil
	}
	defer cleanup()

	fmt.Fprint(cmd.OutOrStdout(), run(engine, input))
	return nil
}

// buildEngine wires the engine's collaborators from config.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*injection.Engine, func(), error) {
	counter, err := retrieval.NewTiktokenCounter("")
	if err != nil {
		return nil, nil, fmt.Errorf("token counter: %w", err)
	}

	embedder := retrieval.NewTEIEmbedder(cfg.Embedding.Endpoint)

	searcher, err := retrieval.NewQdrantSearcher(retrieval.QdrantConfig{
		Host:           cfg.Qdrant.Host,
		Port:           cfg.Qdrant.Port,
		UseTLS:         cfg.Qdrant.UseTLS,
		MaxMessageSize: cfg.Qdrant.MaxMessageSize,
	}, embedder, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("qdrant searcher: %w", err)
	}

	engine, err := injection.NewEngine(
		cfg.Injection,
		session.NewStore(cfg.Session.StateDir, logger),
		searcher,
		embedder,
		counter,
		router.New(nil, logger),
		injection.NewAuditLogger(cfg.Audit.Path, logger),
		logger,
	)
	if err != nil {
		_ = searcher.Close()
		return nil, nil, err
	}

	return engine, func() { _ = searcher.Close() }, nil
}
