package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
	"github.com/aescanero/dago-template-bridge/internal/bridges"
	"github.com/aescanero/dago-template-bridge/internal/config"
	"github.com/aescanero/dago-template-bridge/internal/eval/cel"
	"github.com/aescanero/dago-template-bridge/internal/worker"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bridge-render",
		Short: "Render page bridges into block templates",
		Long: `bridge-render renders bridges: page objects bound to block templates that
mirror the document root (htdocs/users/list.php uses templates/users/list.html).

Configuration comes from the environment (DOCUMENT_ROOT, PREFIX_RULES,
BRIDGES_FILE, REDIS_ADDR, ...).

Examples:
  bridge-render render /users/list.php --var title=Users
  bridge-render render /admin/index.php AdminBase AdminMenu --css /admin.css
  bridge-render worker
  bridge-render health`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}

	root.AddCommand(newRenderCmd(), newWorkerCmd(), newHealthCmd())
	return root
}

// app is what every command needs from the environment
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *bridge.Registry
	renderer *worker.Renderer
}

// setup loads configuration, the logger and the bridge registry: the
// built-in bridges for every prefix plus the BRIDGES_FILE manifest
func setup(logOutput string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg.LogLevel, logOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	evaluator := cel.NewEvaluator()
	rules := cfg.Rules()
	manifest := &bridges.Manifest{}
	if cfg.BridgesFile != "" {
		if manifest, err = bridges.LoadManifest(cfg.BridgesFile); err != nil {
			return nil, err
		}
		if err := manifest.Validate(evaluator); err != nil {
			return nil, err
		}
		rules = append(rules, manifest.Prefixes...)
		logger.Debug("manifest loaded",
			zap.String("file", cfg.BridgesFile),
			zap.Int("bridges", len(manifest.Bridges)),
		)
	}

	prefixes := make([]string, 0, len(rules))
	for _, rule := range rules {
		prefixes = append(prefixes, rule.Name())
	}

	registry := bridge.NewRegistry()
	if err := bridges.Register(registry, prefixes...); err != nil {
		return nil, err
	}
	if err := manifest.Register(registry); err != nil {
		return nil, err
	}

	renderer := worker.NewRenderer(worker.RendererConfig{
		Registry:       registry,
		Paths:          cfg.Paths(),
		PrefixRules:    rules,
		Evaluator:      evaluator,
		OpenDelimiter:  cfg.OpenDelimiter,
		CloseDelimiter: cfg.CloseDelimiter,
		Charset:        cfg.OutputCharset,
	}, logger)

	return &app{cfg: cfg, logger: logger, registry: registry, renderer: renderer}, nil
}
