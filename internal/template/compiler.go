package template

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

var registerHelpersOnce sync.Once

// Compiler compiles and renders the Handlebars source of template blocks.
// Compiled templates are cached by source, so a Compiler is meant to be
// shared between the engines created for individual requests.
type Compiler struct {
	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

// NewCompiler creates a new compiler
func NewCompiler() *Compiler {
	// raymond keeps helpers in a global table and panics on re-registration
	registerHelpersOnce.Do(registerHelpers)

	return &Compiler{
		cache: make(map[string]*raymond.Template),
	}
}

// Render renders a template source with the given data
func (c *Compiler) Render(source string, data interface{}) (string, error) {
	// Get or compile template
	tmpl, err := c.getTemplate(source)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	// Execute the template
	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (c *Compiler) getTemplate(source string) (*raymond.Template, error) {
	// Check cache first (read lock)
	c.mu.RLock()
	if tmpl, ok := c.cache[source]; ok {
		c.mu.RUnlock()
		return tmpl, nil
	}
	c.mu.RUnlock()

	// Compile the template (write lock)
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := c.cache[source]; ok {
		return tmpl, nil
	}

	tmpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	c.cache[source] = tmpl

	return tmpl, nil
}

// Validate compiles a source without rendering it. Successful compilations
// are cached.
func (c *Compiler) Validate(source string) error {
	_, err := c.getTemplate(source)
	return err
}

// Cached reports how many compiled sources are held in the cache
func (c *Compiler) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// ClearCache clears the compiled template cache
func (c *Compiler) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*raymond.Template)
}

// registerHelpers registers the inline helpers placeholders may call. Results
// are SafeStrings, so helpers emit values verbatim like plain placeholders.
func registerHelpers() {
	raymond.RegisterHelper("uppercase", func(value interface{}) raymond.SafeString {
		return raymond.SafeString(strings.ToUpper(raymond.Str(value)))
	})

	raymond.RegisterHelper("lowercase", func(value interface{}) raymond.SafeString {
		return raymond.SafeString(strings.ToLower(raymond.Str(value)))
	})

	raymond.RegisterHelper("trim", func(value interface{}) raymond.SafeString {
		return raymond.SafeString(strings.TrimSpace(raymond.Str(value)))
	})

	// default returns the fallback when the value is empty
	raymond.RegisterHelper("default", func(value interface{}, defaultValue interface{}) raymond.SafeString {
		if value == nil || raymond.Str(value) == "" {
			return raymond.SafeString(raymond.Str(defaultValue))
		}
		return raymond.SafeString(raymond.Str(value))
	})

	raymond.RegisterHelper("join", func(arr interface{}, sep interface{}) raymond.SafeString {
		v := reflect.ValueOf(arr)
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return raymond.SafeString(raymond.Str(arr))
		}
		strs := make([]string, v.Len())
		for i := range strs {
			strs[i] = raymond.Str(v.Index(i).Interface())
		}
		return raymond.SafeString(strings.Join(strs, raymond.Str(sep)))
	})

	raymond.RegisterHelper("len", func(value interface{}) int {
		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			return v.Len()
		default:
			return 0
		}
	})
}
