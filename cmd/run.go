package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/app"
	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/llm"
	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/quizgen"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive study app (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, builds dependencies, and launches the TUI.
// Progress loads in the background; mutations made before it is ready
// are queued by the store.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	logger, err := newLogger(cmd, logPathFor(dbPath))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ps := progress.New(st.ProgressRepo(), progress.WithLogger(logger))
	ps.Start(ctx)

	svc := &screen.Services{
		Catalog:  cat,
		Progress: ps,
		Logger:   logger,
	}
	if gen := buildGenerator(cmd, st.EventRepo(), logger); gen != nil {
		svc.Generator = gen
	}

	logger.Info("starting app", "db", dbPath, "topics", len(cat.Topics()), "ai_quiz", svc.CanGenerate())
	runErr := app.Run(svc)

	// Let a slow initial load finish so queued mutations are flushed.
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := ps.WaitReady(waitCtx); err != nil {
		logger.Warn("progress not flushed before exit", "status", ps.Status(), "error", err)
	}
	return runErr
}

// buildGenerator returns nil when no LLM provider is configured or the
// configured one cannot be built. The app works without it.
func buildGenerator(cmd *cobra.Command, events store.EventRepo, logger *logging.Logger) *quizgen.LLMGenerator {
	cfg, ok := llm.Resolve()
	if !ok {
		logger.Info("no LLM provider configured; AI quizzes disabled")
		return nil
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg, events, logger)
	if err != nil {
		logger.Warn("LLM provider unavailable; AI quizzes disabled", "provider", cfg.Provider, "error", err)
		return nil
	}
	return quizgen.New(provider, quizgen.DefaultConfig())
}
