package bridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"go.uber.org/zap"
)

// Options configures a Manager
type Options struct {
	// Invoker is the path of the script that asked for templating. When
	// empty it is taken from the outermost frame of the call stack.
	Invoker string

	Paths     Paths
	Variables map[string]any

	// Output receives Render output; defaults to os.Stdout
	Output io.Writer

	OpenDelimiter  string
	CloseDelimiter string

	// PrefixRules defaults to DefaultPrefixRules when nil
	PrefixRules []PrefixRule
	Evaluator   ConditionEvaluator

	Logger *zap.Logger
}

// Manager resolves, builds and memoizes the bridges of one request. It is
// not safe for concurrent use.
type Manager struct {
	engine   Engine
	registry *Registry
	invoker  string
	script   string
	prefix   string
	vars     *Variables
	paths    Paths
	out      io.Writer
	bridges  map[string]*Bridge
	logger   *zap.Logger
}

// NewManager creates a manager around a shared engine
func NewManager(engine Engine, registry *Registry, opts Options) (*Manager, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrConfiguration)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrConfiguration)
	}

	openDelim, closeDelim := opts.OpenDelimiter, opts.CloseDelimiter
	if openDelim == "" {
		openDelim = "{{"
	}
	if closeDelim == "" {
		closeDelim = "}}"
	}
	engine.SetDelimiters(openDelim, closeDelim)

	invoker := opts.Invoker
	if invoker == "" {
		invoker = CallerInvoker()
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := opts.PrefixRules
	if rules == nil {
		rules = DefaultPrefixRules()
	}

	script := opts.Paths.ScriptName(invoker)
	prefix, err := resolvePrefix(context.Background(), rules, opts.Evaluator, invoker, script)
	if err != nil {
		return nil, err
	}

	logger.Debug("template manager created",
		zap.String("invoker", invoker),
		zap.String("script", script),
		zap.String("prefix", prefix),
	)

	return &Manager{
		engine:   engine,
		registry: registry,
		invoker:  invoker,
		script:   script,
		prefix:   prefix,
		vars:     NewVariables(opts.Variables),
		paths:    opts.Paths,
		out:      out,
		bridges:  make(map[string]*Bridge),
		logger:   logger,
	}, nil
}

// Invoker returns the captured invoker path
func (m *Manager) Invoker() string { return m.invoker }

// ScriptName returns the invoker relative to the document root
func (m *Manager) ScriptName() string { return m.script }

// Prefix returns the common bridge prefix derived from the invoker
func (m *Manager) Prefix() string { return m.prefix }

// Variables returns the bag shared with every bridge of this manager
func (m *Manager) Variables() *Variables { return m.vars }

// SetVariables replaces the variable bag content
func (m *Manager) SetVariables(values map[string]any) { m.vars.Set(values) }

// AddVariables merges values over the variable bag
func (m *Manager) AddVariables(values map[string]any) { m.vars.Add(values) }

// Get returns the bridge registered under id, building it on first use.
// Later calls return the same instance.
func (m *Manager) Get(id string) (*Bridge, error) {
	if b, ok := m.bridges[id]; ok {
		return b, nil
	}

	factory, err := m.registry.Resolve(id)
	if err != nil {
		return nil, err
	}

	base := &Base{
		name:    id,
		engine:  m.engine,
		invoker: m.invoker,
		script:  m.script,
		vars:    m.vars,
		paths:   m.paths,
		out:     m.out,
		logger:  m.logger,
	}
	page := factory(base)
	if page == nil {
		return nil, fmt.Errorf("%w: factory for %q returned no page", ErrBridgeResolution, id)
	}

	b := &Bridge{Base: base, page: page}
	m.bridges[id] = b

	m.logger.Debug("bridge created", zap.String("bridge", id))
	return b, nil
}

// OwnBridgeName derives a bridge identifier from the script path itself:
// /admin/users/edit.php gives "AdminUsersEdit".
func (m *Manager) OwnBridgeName() string {
	return Identifier(m.script[:len(m.script)-len(path.Ext(m.script))])
}

// BaseBridgeName returns the conventional base bridge, e.g. "AdminBase"
func (m *Manager) BaseBridgeName() string { return m.prefix + SuffixBase }

// MenuBridgeName returns the conventional menu bridge
func (m *Manager) MenuBridgeName() string { return m.prefix + SuffixMenu }

// ValidateBridgeName returns the conventional validation bridge
func (m *Manager) ValidateBridgeName() string { return m.prefix + SuffixValidate }

// PagingBridgeName returns the conventional paging bridge
func (m *Manager) PagingBridgeName() string { return m.prefix + SuffixPaging }

// ErrorBridgeName returns the conventional error bridge
func (m *Manager) ErrorBridgeName() string { return m.prefix + SuffixError }

// RenderBridges renders each non-empty identifier in order with its default
// template. It stops at the first failure.
func (m *Manager) RenderBridges(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		b, err := m.Get(id)
		if err != nil {
			return err
		}
		if err := b.Render(""); err != nil {
			return fmt.Errorf("render bridge %q: %w", id, err)
		}
	}
	return nil
}
