package bridge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/aescanero/dago-template-bridge/internal/template"
)

// Engine is the block template engine a bridge renders into
type Engine interface {
	SetDelimiters(open, close string)
	LoadTemplateFile(path string, removeUnknownVariables, removeEmptyBlocks bool) error
	BlockExists(name string) bool
	SetCurrentBlock(name string) error
	SetVariable(name string, value interface{})
	SetVariables(values map[string]interface{})
	ParseCurrentBlock() error
	Parse(name string) error
	TouchBlock(name string) error
	Get(name string) (string, error)
	Show(w io.Writer) error
}

// Page is the page specific half of a bridge
type Page interface {
	// SetBlocks binds and parses nested blocks before the global block
	SetBlocks() error
	// SetGlobalVariables binds the global block's variables
	SetGlobalVariables() error
}

// DefaultTemplater lets a page choose its template when the caller gives
// none. Pages without it use the template mirroring the invoking script.
type DefaultTemplater interface {
	DefaultTemplate() (string, error)
}

// Initializer runs after the template is loaded and before CSS/JS injection
type Initializer interface {
	Init() error
}

// Base holds everything a bridge shares with its manager and exposes the
// engine to concrete pages.
type Base struct {
	name    string
	engine  Engine
	invoker string
	script  string
	vars    *Variables
	paths   Paths
	out     io.Writer
	logger  *zap.Logger
	css     []string
	js      []string
}

// Bridge couples a Base with its Page and runs the render lifecycle
type Bridge struct {
	*Base
	page Page
}

// Name returns the bridge identifier
func (b *Base) Name() string { return b.name }

// Invoker returns the invoker path captured by the manager
func (b *Base) Invoker() string { return b.invoker }

// ScriptName returns the invoker relative to the document root
func (b *Base) ScriptName() string { return b.script }

// Vars returns the variable bag shared with the manager
func (b *Base) Vars() *Variables { return b.vars }

// Logger returns the bridge logger
func (b *Base) Logger() *zap.Logger { return b.logger }

// AddCSS appends stylesheet references
func (b *Base) AddCSS(entries ...string) {
	b.css = append(b.css, entries...)
}

// AddJS appends script references
func (b *Base) AddJS(entries ...string) {
	b.js = append(b.js, entries...)
}

// CSS returns the stylesheet references in insertion order
func (b *Base) CSS() []string { return append([]string(nil), b.css...) }

// JS returns the script references in insertion order
func (b *Base) JS() []string { return append([]string(nil), b.js...) }

// Escape HTML-escapes s
func (b *Base) Escape(s string) string { return Escape(s) }

// TemplateRoot returns the root of the template tree
func (b *Base) TemplateRoot() (string, error) { return b.paths.TemplateRoot() }

// OwnTemplate returns the template mirroring the invoking script
func (b *Base) OwnTemplate() (string, error) { return b.paths.OwnTemplate(b.script) }

// BaseDir returns the template directory of the invoking script
func (b *Base) BaseDir() (string, error) { return b.paths.BaseDir(b.script) }

// TemplatePath resolves a template relative to the template root. Absolute
// paths are returned as they are.
func (b *Base) TemplatePath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return rel, nil
	}
	root, err := b.paths.TemplateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

// BlockExists reports whether the loaded template declares a block
func (b *Base) BlockExists(name string) bool { return b.engine.BlockExists(name) }

// SetCurrentBlock selects a block; "" selects the global block
func (b *Base) SetCurrentBlock(name string) error { return b.engine.SetCurrentBlock(name) }

// SetVariable binds a placeholder
func (b *Base) SetVariable(name string, value interface{}) { b.engine.SetVariable(name, value) }

// SetVariables binds several placeholders
func (b *Base) SetVariables(values map[string]interface{}) { b.engine.SetVariables(values) }

// ParseCurrentBlock parses the selected block
func (b *Base) ParseCurrentBlock() error { return b.engine.ParseCurrentBlock() }

// Parse parses a block by name
func (b *Base) Parse(name string) error { return b.engine.Parse(name) }

// TouchBlock forces a block to be emitted even without variables
func (b *Base) TouchBlock(name string) error { return b.engine.TouchBlock(name) }

// Get returns the output of a block; "" returns the global block
func (b *Base) Get(name string) (string, error) { return b.engine.Get(name) }

// Page returns the page half of the bridge
func (b *Bridge) Page() Page { return b.page }

// Render prepares the template and writes the result to the manager's
// output. An empty template selects the default one. Nothing is written
// when any step fails.
func (b *Bridge) Render(tmpl string) error {
	if err := b.prepare(tmpl); err != nil {
		return err
	}
	return b.engine.Show(b.out)
}

// Store prepares the template and returns the result instead of writing it
func (b *Bridge) Store(tmpl string) (string, error) {
	if err := b.prepare(tmpl); err != nil {
		return "", err
	}
	return b.engine.Get(template.GlobalBlock)
}

// DefaultTemplate resolves the template used when none is given
func (b *Bridge) DefaultTemplate() (string, error) {
	if d, ok := b.page.(DefaultTemplater); ok {
		return d.DefaultTemplate()
	}
	return b.OwnTemplate()
}

func (b *Bridge) prepare(tmpl string) error {
	if tmpl == "" {
		resolved, err := b.DefaultTemplate()
		if err != nil {
			return fmt.Errorf("bridge %s: %w", b.name, err)
		}
		tmpl = resolved
	}

	info, err := os.Stat(tmpl)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("bridge %s: %w: %s", b.name, ErrTemplateNotFound, tmpl)
	}

	if err := b.engine.LoadTemplateFile(tmpl, true, true); err != nil {
		return fmt.Errorf("bridge %s: %w: %s: %w", b.name, ErrTemplateLoad, tmpl, err)
	}

	b.logger.Debug("preparing bridge",
		zap.String("bridge", b.name),
		zap.String("template", tmpl),
		zap.Int("css", len(b.css)),
		zap.Int("js", len(b.js)),
	)

	if initializer, ok := b.page.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return fmt.Errorf("bridge %s: init: %w", b.name, err)
		}
	}

	if err := b.parseAssets("css", b.css); err != nil {
		return err
	}
	if err := b.parseAssets("js", b.js); err != nil {
		return err
	}

	if err := b.page.SetBlocks(); err != nil {
		return fmt.Errorf("bridge %s: set blocks: %w", b.name, err)
	}

	return b.setGlobalBlock()
}

// parseAssets emits one occurrence of the block per asset, in order
func (b *Bridge) parseAssets(blockName string, assets []string) error {
	for _, asset := range assets {
		if err := b.engine.SetCurrentBlock(blockName); err != nil {
			return fmt.Errorf("bridge %s: %w", b.name, err)
		}
		b.engine.SetVariable(blockName, asset)
		if err := b.engine.ParseCurrentBlock(); err != nil {
			return fmt.Errorf("bridge %s: %w", b.name, err)
		}
	}
	return nil
}

func (b *Bridge) setGlobalBlock() error {
	if err := b.engine.SetCurrentBlock(template.GlobalBlock); err != nil {
		return fmt.Errorf("bridge %s: %w", b.name, err)
	}
	if err := b.page.SetGlobalVariables(); err != nil {
		return fmt.Errorf("bridge %s: set global variables: %w", b.name, err)
	}
	if err := b.engine.ParseCurrentBlock(); err != nil {
		return fmt.Errorf("bridge %s: %w", b.name, err)
	}
	return nil
}
