package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/config"
	"github.com/tsanders/estimate-ai/pkg/logging"
	"github.com/tsanders/estimate-ai/pkg/pipeline"
	"github.com/tsanders/estimate-ai/pkg/prompt"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/provider/claude"
	"github.com/tsanders/estimate-ai/pkg/provider/openai"
	"github.com/tsanders/estimate-ai/pkg/templates"
	"github.com/tsanders/estimate-ai/pkg/ux"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath   string
	providerName string
	model        string
	templatesDir string
	logLevel     string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "estimate-ai",
		Short: "AI-generated business estimates (견적서)",
		Long: `estimate-ai drafts Korean business estimates from project information.

It asks an LLM for the cost table, overview, schedule and packages, repairs
the numbers so they add up to the budget, and fills an HTML template that
can be edited, saved or exported to PDF.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .estimate-ai.yaml in cwd or home)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "AI provider: openai, claude, or a preset (groq, together, openrouter, ollama, lmstudio)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "AI model to use (provider-specific)")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates", "", "Directory of user HTML templates")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Human-readable debug logging")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newGenerateRawCmd(),
		newEditCmd(),
		newTemplatesCmd(),
		newExportCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ux.PrintError("%v", err)
		os.Exit(1)
	}
}

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// loadApp reads .env, the config file, the environment and the global
// flags, in increasing precedence.
func loadApp() (*app, error) {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if providerName != "" {
		cfg.Provider.Name = providerName
	}
	if model != "" {
		cfg.Provider.Model = model
	}
	if templatesDir != "" {
		cfg.Templates.Dir = templatesDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) templates() (*templates.Store, error) {
	return templates.New(a.cfg.Templates.Dir, a.logger)
}

func (a *app) prompts() (*prompt.Templates, error) {
	return prompt.Load(prompt.Config{
		Provider: a.cfg.Provider.Name,
		Dir:      a.cfg.Templates.PromptsDir,
	})
}

// generator builds the full pipeline with the configured provider.
func (a *app) generator(progress ux.ProgressWriter) (*pipeline.Generator, error) {
	prov, err := createProvider(a.cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	store, err := a.templates()
	if err != nil {
		return nil, err
	}
	prompts, err := a.prompts()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Config{
		Provider:  prov,
		Prompts:   prompts,
		Templates: store,
		Reconcile: a.cfg.Budget,
		LeadDays:  a.cfg.Schedule.LeadDays,
		Logger:    a.logger,
		Progress:  progress,
	})
}

func createProvider(pc config.ProviderConfig) (provider.Provider, error) {
	cfg := provider.Config{
		Name:        pc.Name,
		APIKey:      pc.APIKey(),
		Model:       pc.Model,
		BaseURL:     pc.BaseURL,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
	}

	switch pc.Name {
	case "claude", "anthropic":
		return claude.New(cfg)
	case "openai", "":
		return openai.New(cfg)
	}
	if preset, ok := provider.ApplyPreset(cfg); ok {
		return openai.New(preset)
	}
	return nil, fmt.Errorf("unknown provider: %s", pc.Name)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("estimate-ai %s\n", version)
		},
	}
}
