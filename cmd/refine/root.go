package main

import (
	"fmt"
	"io"

	"github.com/rickchristie/refine/config"
	"github.com/rickchristie/refine/crew"
	"github.com/rickchristie/refine/hooks"
	"github.com/rickchristie/refine/models"
	"github.com/rickchristie/refine/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// flags are the persistent flags shared by every subcommand. Set flags override the config
// file.
type flags struct {
	configPath string
	provider   string
	model      string
	baseURL    string
	threshold  int
	maxIters   int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "refine",
		Short:         "Iteratively draft and review a document with language models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "refine.yaml", "path to the YAML config file")
	pf.StringVar(&f.provider, "provider", "", "model provider: ollama, github, openai, openai-sdk or mock")
	pf.StringVar(&f.model, "model", "", "model name, defaults to the provider's default")
	pf.StringVar(&f.baseURL, "base-url", "", "model endpoint override")
	pf.IntVar(&f.threshold, "threshold", 0, "rating (1-5) that ends a session early")
	pf.IntVar(&f.maxIters, "max-iters", 0, "maximum number of rounds")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newRunCmd(f), newChatCmd(f), newServeCmd(f))
	return root
}

// app is the wiring shared by the subcommands.
type app struct {
	config  *config.Config
	logger  *zap.Logger
	manager *session.Manager
	out     io.Writer
}

// load reads the configuration, applies flags and builds the session manager.
func (f *flags) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("provider") {
		cfg.Model.Provider = f.provider
	}
	if changed("model") {
		cfg.Model.Name = f.model
	}
	if changed("base-url") {
		cfg.Model.BaseURL = f.baseURL
	}
	if changed("threshold") {
		cfg.Refine = cfg.Refine.WithThreshold(f.threshold)
	}
	if changed("max-iters") {
		cfg.Refine = cfg.Refine.WithMaxIters(f.maxIters)
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Refine.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	model, err := models.New(cfg.Model.Settings())
	if err != nil {
		return nil, err
	}
	exec := crew.New(model, model).WithLogger(logger)

	registry := hooks.NewRegistry().Register(hooks.NewLoggerHook(logger))
	manager := session.NewManager(exec).WithHooks(registry).WithLogger(logger)

	logger.Debug("configured",
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", cfg.Model.Name),
		zap.Int("threshold", cfg.Refine.Threshold),
		zap.Int("max_iters", cfg.Refine.MaxIters),
	)
	return &app{config: cfg, logger: logger, manager: manager, out: cmd.OutOrStdout()}, nil
}

// newLogger builds a development logger for "debug" and a production logger otherwise. Both
// write to stderr so stdout carries only session output.
func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
