package bridges

import (
	"path"
	"strings"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// builtins pairs each conventional suffix with a constructor and template
var builtins = []struct {
	suffix   string
	template string
	factory  func(template string) bridge.Factory
}{
	{bridge.SuffixBase, "base.html", NewPage},
	{bridge.SuffixMenu, "menu.html", NewMenu},
	{bridge.SuffixValidate, "validate.html", NewValidation},
	{bridge.SuffixPaging, "paging.html", NewPaging},
	{bridge.SuffixError, "error.html", NewErrors},
}

// Register adds the built-in bridges without a prefix ("Base", "Menu", ...)
// and once more for every prefix ("AdminBase", "AdminMenu", ...). Prefixed
// bridges read their templates from the lowercased prefix directory:
// AdminMenu uses admin/menu.html.
func Register(reg *bridge.Registry, prefixes ...string) error {
	seen := make(map[string]bool)
	for _, prefix := range append([]string{""}, prefixes...) {
		if seen[prefix] {
			continue
		}
		seen[prefix] = true

		dir := strings.ToLower(prefix)
		for _, b := range builtins {
			if err := reg.Register(prefix+b.suffix, b.factory(path.Join(dir, b.template))); err != nil {
				return err
			}
		}
	}
	return nil
}
