package worker

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
	"github.com/aescanero/dago-template-bridge/internal/template"
)

// RenderRequest asks for one or more bridges rendered for a script
type RenderRequest struct {
	RequestID string                 `json:"request_id"`
	Script    string                 `json:"script"`
	Variables map[string]interface{} `json:"variables"`
	// Bridges defaults to the script's own bridge
	Bridges []string `json:"bridges"`
	// CSS and JS are added to the first bridge
	CSS []string `json:"css"`
	JS  []string `json:"js"`
}

// Output is the markup of one rendered bridge
type Output struct {
	Bridge string `json:"bridge"`
	HTML   string `json:"html"`
}

// RenderResult is published for every rendered request
type RenderResult struct {
	RequestID string    `json:"request_id"`
	Script    string    `json:"script"`
	Outputs   []Output  `json:"outputs"`
	Timestamp time.Time `json:"timestamp"`
}

// RendererConfig holds what every request shares
type RendererConfig struct {
	Registry       *bridge.Registry
	Paths          bridge.Paths
	PrefixRules    []bridge.PrefixRule
	Evaluator      bridge.ConditionEvaluator
	OpenDelimiter  string
	CloseDelimiter string
	Charset        string
}

// Renderer builds a request scoped engine and manager per request. Compiled
// placeholders are cached across requests.
type Renderer struct {
	cfg      RendererConfig
	compiler *template.Compiler
	logger   *zap.Logger
}

// NewRenderer creates a renderer
func NewRenderer(cfg RendererConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		cfg:      cfg,
		compiler: template.NewCompiler(),
		logger:   logger,
	}
}

// Render renders the requested bridges into strings
func (r *Renderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	manager, ids, err := r.prepare(req, io.Discard)
	if err != nil {
		return nil, err
	}

	result := &RenderResult{
		RequestID: req.RequestID,
		Script:    manager.ScriptName(),
		Outputs:   make([]Output, 0, len(ids)),
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := manager.Get(id)
		if err != nil {
			return nil, err
		}
		html, err := b.Store("")
		if err != nil {
			return nil, fmt.Errorf("render bridge %q: %w", id, err)
		}
		result.Outputs = append(result.Outputs, Output{Bridge: id, HTML: html})
	}
	result.Timestamp = time.Now().UTC()

	r.logger.Debug("request rendered",
		zap.String("request_id", req.RequestID),
		zap.String("script", result.Script),
		zap.Int("bridges", len(result.Outputs)),
	)
	return result, nil
}

// Write renders the requested bridges to w, transcoded to the configured
// charset
func (r *Renderer) Write(ctx context.Context, req *RenderRequest, w io.Writer) error {
	manager, ids, err := r.prepare(req, w)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return manager.RenderBridges(ids...)
}

func (r *Renderer) prepare(req *RenderRequest, out io.Writer) (*bridge.Manager, []string, error) {
	if req.Script == "" {
		return nil, nil, fmt.Errorf("%w: request has no script", bridge.ErrConfiguration)
	}

	engine := template.NewEngine(
		template.WithCompiler(r.compiler),
		template.WithLogger(r.logger),
		template.WithCharset(r.cfg.Charset),
	)

	manager, err := bridge.NewManager(engine, r.cfg.Registry, bridge.Options{
		Invoker:        req.Script,
		Paths:          r.cfg.Paths,
		Variables:      req.Variables,
		Output:         out,
		OpenDelimiter:  r.cfg.OpenDelimiter,
		CloseDelimiter: r.cfg.CloseDelimiter,
		PrefixRules:    r.cfg.PrefixRules,
		Evaluator:      r.cfg.Evaluator,
		Logger:         r.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(req.Bridges))
	for _, id := range req.Bridges {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, manager.OwnBridgeName())
	}

	if len(req.CSS) > 0 || len(req.JS) > 0 {
		first, err := manager.Get(ids[0])
		if err != nil {
			return nil, nil, err
		}
		first.AddCSS(req.CSS...)
		first.AddJS(req.JS...)
	}
	return manager, ids, nil
}
