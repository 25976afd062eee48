package bridges

import (
	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// MenuItem is one entry of the "menu" variable
type MenuItem struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Menu renders the "menu" variable into the menu_item block. The item whose
// URL equals the invoker's script name gets menu_active set to "active".
type Menu struct {
	*bridge.Base
	template string
	items    []MenuItem
}

// NewMenu returns a factory for menu bridges
func NewMenu(template string) bridge.Factory {
	return func(base *bridge.Base) bridge.Page {
		return &Menu{Base: base, template: template}
	}
}

// DefaultTemplate implements bridge.DefaultTemplater
func (m *Menu) DefaultTemplate() (string, error) {
	return m.TemplatePath(m.template)
}

// Init reads the menu items from the variable bag
func (m *Menu) Init() error {
	v, _ := m.Vars().Get("menu")
	m.items = menuItems(v)
	return nil
}

// SetBlocks parses one menu_item per entry
func (m *Menu) SetBlocks() error {
	for _, item := range m.items {
		if err := m.SetCurrentBlock("menu_item"); err != nil {
			return err
		}
		active := ""
		if item.URL == m.ScriptName() {
			active = "active"
		}
		m.SetVariable("menu_label", m.Escape(item.Label))
		m.SetVariable("menu_url", m.Escape(item.URL))
		m.SetVariable("menu_active", active)
		if err := m.ParseCurrentBlock(); err != nil {
			return err
		}
	}
	return nil
}

// SetGlobalVariables binds menu_count
func (m *Menu) SetGlobalVariables() error {
	m.SetVariable("menu_count", len(m.items))
	return nil
}

func menuItems(v any) []MenuItem {
	switch list := v.(type) {
	case []MenuItem:
		return list
	case []map[string]any:
		items := make([]MenuItem, 0, len(list))
		for _, row := range list {
			items = append(items, MenuItem{Label: str(row["label"]), URL: str(row["url"])})
		}
		return items
	}
	if list, ok := rows(v); ok {
		return menuItems(list)
	}
	return nil
}
