package bridges

import (
	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// Page is a data driven bridge. Every list of rows in the variable bag fills
// the block of the same name, one occurrence per row; every other entry is
// bound on the global block.
type Page struct {
	*bridge.Base
	template string
}

// NewPage returns a factory for pages using template, relative to the
// template root. An empty template selects the invoker's own template.
func NewPage(template string) bridge.Factory {
	return func(base *bridge.Base) bridge.Page {
		return &Page{Base: base, template: template}
	}
}

// DefaultTemplate implements bridge.DefaultTemplater
func (p *Page) DefaultTemplate() (string, error) {
	if p.template == "" {
		return p.OwnTemplate()
	}
	return p.TemplatePath(p.template)
}

// SetBlocks parses one block occurrence per row. Lists without a matching
// block are left out.
func (p *Page) SetBlocks() error {
	bag := p.Vars().All()
	for _, key := range sortedKeys(bag) {
		list, ok := rows(bag[key])
		if !ok || !p.BlockExists(key) {
			continue
		}
		for _, row := range list {
			if err := p.SetCurrentBlock(key); err != nil {
				return err
			}
			p.SetVariables(values(row))
			if err := p.ParseCurrentBlock(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetGlobalVariables binds every entry that is not a list of rows
func (p *Page) SetGlobalVariables() error {
	for key, v := range p.Vars().All() {
		if _, ok := rows(v); ok {
			continue
		}
		p.SetVariable(key, value(key, v))
	}
	return nil
}
