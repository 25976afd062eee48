package template

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// GlobalBlock is the implicit block wrapping the whole template
const GlobalBlock = "__global__"

const (
	defaultOpenDelimiter  = "{{"
	defaultCloseDelimiter = "}}"
)

var (
	// ErrNotLoaded is returned by block operations before a template is loaded
	ErrNotLoaded = errors.New("no template loaded")

	// ErrUnknownBlock is returned when a block name is not declared in the template
	ErrUnknownBlock = errors.New("unknown block")
)

var (
	blockTag    = regexp.MustCompile(`<!--\s+(BEGIN|END)\s+([\w.\-]+)\s+-->`)
	placeholder = placeholderPattern(defaultOpenDelimiter, defaultCloseDelimiter)
	helperArg   = regexp.MustCompile(`"[^"]*"|([A-Za-z_][\w.\-]*)`)
)

// placeholderPattern matches a variable, or an inline helper call whose
// arguments are variables and quoted strings
func placeholderPattern(openDelim, closeDelim string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(openDelim) +
		`\s*(?:([A-Za-z_][\w.\-]*)|(uppercase|lowercase|trim|default|join|len)((?:\s+(?:[A-Za-z_][\w.\-]*|"[^"{}]*"))+))\s*` +
		regexp.QuoteMeta(closeDelim))
}

// Engine is a block oriented template engine. A template is split into
// nested blocks delimited by "<!-- BEGIN name -->" and "<!-- END name -->"
// comments; a block can be parsed any number of times and each parse appends
// one occurrence of it to the output. Placeholder substitution is done by
// Handlebars through the Compiler.
//
// An Engine carries a current-block cursor and a variable cache, so it must
// not be shared between goroutines.
type Engine struct {
	compiler *Compiler
	logger   *zap.Logger
	encoder  *encoding.Encoder
	charset  string

	openDelimiter  string
	closeDelimiter string

	removeUnknownVariables bool
	removeEmptyBlocks      bool

	file    string
	root    *block
	blocks  map[string]*block
	current *block
	vars    map[string]interface{}
}

// Option configures an Engine
type Option func(*Engine)

// WithCompiler shares a compiler (and its cache) with the engine
func WithCompiler(c *Compiler) Option {
	return func(e *Engine) {
		if c != nil {
			e.compiler = c
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCharset sets the charset Show transcodes output to. Names follow the
// WHATWG encoding labels ("utf-8", "shift_jis", "euc-jp", ...). Unknown names
// keep UTF-8.
func WithCharset(name string) Option {
	return func(e *Engine) {
		if name == "" {
			return
		}
		enc, err := htmlindex.Get(name)
		if err != nil {
			e.logger.Warn("unknown output charset, using utf-8",
				zap.String("charset", name),
				zap.Error(err),
			)
			return
		}
		canonical, _ := htmlindex.Name(enc)
		e.charset = canonical
		if canonical == "utf-8" {
			e.encoder = nil
			return
		}
		e.encoder = encoding.HTMLEscapeUnsupported(enc.NewEncoder())
	}
}

// NewEngine creates a new block engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:         zap.NewNop(),
		charset:        "utf-8",
		openDelimiter:  defaultOpenDelimiter,
		closeDelimiter: defaultCloseDelimiter,
		vars:           make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.compiler == nil {
		e.compiler = NewCompiler()
	}
	return e
}

// Charset returns the canonical name of the output charset
func (e *Engine) Charset() string {
	return e.charset
}

// SetDelimiters sets the placeholder markers used by templates loaded
// afterwards
func (e *Engine) SetDelimiters(open, close string) {
	if open == "" || close == "" {
		return
	}
	e.openDelimiter = open
	e.closeDelimiter = close
}

// Delimiters returns the placeholder markers
func (e *Engine) Delimiters() (string, string) {
	return e.openDelimiter, e.closeDelimiter
}

// LoadTemplateFile reads and loads a template file
func (e *Engine) LoadTemplateFile(path string, removeUnknownVariables, removeEmptyBlocks bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if err := e.LoadTemplate(string(content), removeUnknownVariables, removeEmptyBlocks); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	e.file = path

	e.logger.Debug("template loaded",
		zap.String("file", path),
		zap.Int("blocks", len(e.blocks)),
	)
	return nil
}

// LoadTemplate loads template content, discarding all state of the
// previously loaded template
func (e *Engine) LoadTemplate(content string, removeUnknownVariables, removeEmptyBlocks bool) error {
	root, blocks, err := e.parseBlocks(content)
	if err != nil {
		return err
	}

	// Compile every block up front so malformed templates fail at load time
	for name, b := range blocks {
		for _, p := range b.parts {
			if p.source == "" {
				continue
			}
			if err := e.compiler.Validate(p.source); err != nil {
				return fmt.Errorf("block %q: %w", name, err)
			}
		}
	}

	e.file = ""
	e.root = root
	e.blocks = blocks
	e.current = root
	e.vars = make(map[string]interface{})
	e.removeUnknownVariables = removeUnknownVariables
	e.removeEmptyBlocks = removeEmptyBlocks
	return nil
}

// File returns the path of the loaded template file, if any
func (e *Engine) File() string {
	return e.file
}

// BlockExists reports whether the loaded template declares the block
func (e *Engine) BlockExists(name string) bool {
	_, ok := e.blocks[blockName(name)]
	return ok
}

// SetCurrentBlock moves the cursor to a block. An empty name selects the
// global block.
func (e *Engine) SetCurrentBlock(name string) error {
	b, err := e.block(name)
	if err != nil {
		return err
	}
	e.current = b
	return nil
}

// SetVariable binds a placeholder value. Strings are emitted verbatim;
// callers escape where needed.
func (e *Engine) SetVariable(name string, value interface{}) {
	e.vars[name] = value
}

// SetVariables binds several placeholder values
func (e *Engine) SetVariables(values map[string]interface{}) {
	for name, value := range values {
		e.vars[name] = value
	}
}

// ParseCurrentBlock parses the block under the cursor
func (e *Engine) ParseCurrentBlock() error {
	if e.current == nil {
		return ErrNotLoaded
	}
	return e.parse(e.current)
}

// Parse renders one occurrence of a block into its output
func (e *Engine) Parse(name string) error {
	b, err := e.block(name)
	if err != nil {
		return err
	}
	return e.parse(b)
}

// TouchBlock marks a block so that it is emitted even when it holds no
// variables
func (e *Engine) TouchBlock(name string) error {
	b, err := e.block(name)
	if err != nil {
		return err
	}
	b.touched = true
	return nil
}

// Get returns the parsed output of a block. The global block is parsed on
// demand when nobody parsed it yet.
func (e *Engine) Get(name string) (string, error) {
	b, err := e.block(name)
	if err != nil {
		return "", err
	}
	if b == e.root && !b.parsed {
		if err := e.parse(b); err != nil {
			return "", err
		}
	}
	return b.output.String(), nil
}

// Show writes the global block to w, transcoded to the output charset
func (e *Engine) Show(w io.Writer) error {
	out, err := e.Get(GlobalBlock)
	if err != nil {
		return err
	}
	if e.encoder != nil {
		out, err = e.encoder.String(out)
		if err != nil {
			return fmt.Errorf("failed to encode output as %s: %w", e.charset, err)
		}
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (e *Engine) block(name string) (*block, error) {
	if e.root == nil {
		return nil, ErrNotLoaded
	}
	b, ok := e.blocks[blockName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	return b, nil
}

func (e *Engine) parse(b *block) error {
	out, empty, err := e.render(b)
	if err != nil {
		return fmt.Errorf("failed to parse block %q: %w", b.name, err)
	}

	if e.keep(b, empty) {
		b.output.WriteString(out)
	}
	b.parsed = true
	b.touched = false
	return nil
}

// keep reports whether an occurrence of b is added to its output
func (e *Engine) keep(b *block, empty bool) bool {
	return !empty || !e.removeEmptyBlocks || b.touched || b == e.root
}

// render renders one occurrence of b and consumes its variables. Children
// nobody parsed are rendered in place, so their variables and descendants
// count too. empty reports that neither a placeholder nor a child block
// contributed content.
func (e *Engine) render(b *block) (string, bool, error) {
	data := make(map[string]interface{}, len(b.placeholders))
	empty := true

	for _, name := range b.placeholders {
		key := rootKey(name)
		if value, ok := e.vars[key]; ok {
			data[key] = bind(value)
			empty = false
			continue
		}
		if !e.removeUnknownVariables && key == name {
			data[key] = raymond.SafeString(e.openDelimiter + name + e.closeDelimiter)
		}
	}

	children := make([]string, len(b.children))
	for i, child := range b.children {
		if child.output.Len() == 0 {
			rendered, childEmpty, err := e.render(child)
			if err != nil {
				return "", false, err
			}
			if e.keep(child, childEmpty) {
				child.output.WriteString(rendered)
			}
		}
		children[i] = child.output.String()
		if children[i] != "" {
			empty = false
		}
	}

	var out strings.Builder
	next := 0
	for _, p := range b.parts {
		if p.child != nil {
			out.WriteString(children[next])
			next++
			continue
		}
		if p.source == "" {
			out.WriteString(p.text)
			continue
		}
		rendered, err := e.compiler.Render(p.source, data)
		if err != nil {
			return "", false, err
		}
		out.WriteString(rendered)
	}

	for _, child := range b.children {
		child.reset()
	}
	for _, name := range b.placeholders {
		delete(e.vars, rootKey(name))
	}
	return out.String(), empty, nil
}

func (e *Engine) parseBlocks(content string) (*block, map[string]*block, error) {
	root := &block{name: GlobalBlock}
	blocks := map[string]*block{GlobalBlock: root}
	stack := []*block{root}

	pos := 0
	for _, m := range blockTag.FindAllStringSubmatchIndex(content, -1) {
		top := stack[len(stack)-1]
		top.text(content[pos:m[0]])
		pos = m[1]

		kind, name := content[m[2]:m[3]], content[m[4]:m[5]]
		switch kind {
		case "BEGIN":
			if _, dup := blocks[name]; dup {
				return nil, nil, fmt.Errorf("duplicate block %q", name)
			}
			child := &block{name: name}
			top.parts = append(top.parts, part{child: child})
			top.children = append(top.children, child)
			blocks[name] = child
			stack = append(stack, child)
		case "END":
			if top == root || top.name != name {
				return nil, nil, fmt.Errorf("unexpected END of block %q", name)
			}
			stack = stack[:len(stack)-1]
		}
	}
	stack[len(stack)-1].text(content[pos:])

	if len(stack) > 1 {
		return nil, nil, fmt.Errorf("block %q is not closed", stack[len(stack)-1].name)
	}

	for _, b := range blocks {
		e.compile(b)
	}
	return root, blocks, nil
}

// compile splits the text of a block into literal runs and placeholders and
// records the placeholder names. Only placeholders go through Handlebars, so
// any other mustache in the text is emitted as written. A backslash before a
// placeholder keeps it literal.
func (e *Engine) compile(b *block) {
	seen := make(map[string]bool)
	pattern := e.placeholderPattern()

	var parts []part
	for _, p := range b.parts {
		if p.child != nil {
			parts = append(parts, p)
			continue
		}

		text, pos := p.text, 0
		var literal strings.Builder
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			var source string
			var names []string
			if m[2] >= 0 {
				name := text[m[2]:m[3]]
				if reserved[rootKey(name)] {
					continue
				}
				source, names = "{{"+name+"}}", []string{name}
			} else {
				args := text[m[6]:m[7]]
				source = "{{" + text[m[4]:m[5]] + args + "}}"
				for _, arg := range helperArg.FindAllStringSubmatch(args, -1) {
					if arg[1] != "" && !reserved[rootKey(arg[1])] {
						names = append(names, arg[1])
					}
				}
			}

			if m[0] > 0 && text[m[0]-1] == '\\' {
				literal.WriteString(text[pos : m[0]-1])
				literal.WriteString(text[m[0]:m[1]])
				pos = m[1]
				continue
			}
			literal.WriteString(text[pos:m[0]])
			if literal.Len() > 0 {
				parts = append(parts, part{text: literal.String()})
				literal.Reset()
			}
			parts = append(parts, part{source: source})
			pos = m[1]
			for _, name := range names {
				if !seen[name] {
					seen[name] = true
					b.placeholders = append(b.placeholders, name)
				}
			}
		}
		literal.WriteString(text[pos:])
		if literal.Len() > 0 {
			parts = append(parts, part{text: literal.String()})
		}
	}
	b.parts = parts
}

func (e *Engine) placeholderPattern() *regexp.Regexp {
	if e.openDelimiter == defaultOpenDelimiter && e.closeDelimiter == defaultCloseDelimiter {
		return placeholder
	}
	return placeholderPattern(e.openDelimiter, e.closeDelimiter)
}

// reserved names are Handlebars keywords and stay literal text
var reserved = map[string]bool{
	"else":      true,
	"this":      true,
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
}

// part is a literal run, a placeholder (source) or a nested block
type part struct {
	text   string
	source string
	child  *block
}

type block struct {
	name         string
	parts        []part
	children     []*block
	placeholders []string
	output       strings.Builder
	parsed       bool
	touched      bool
}

func (b *block) text(s string) {
	if s != "" {
		b.parts = append(b.parts, part{text: s})
	}
}

func (b *block) reset() {
	b.output.Reset()
	b.touched = false
	for _, child := range b.children {
		child.reset()
	}
}

func blockName(name string) string {
	if name == "" {
		return GlobalBlock
	}
	return name
}

// rootKey maps a dotted placeholder to the variable holding its root value
func rootKey(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func bind(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return raymond.SafeString(v)
	case fmt.Stringer:
		return raymond.SafeString(v.String())
	default:
		return v
	}
}
