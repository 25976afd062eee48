// Package bridges provides ready made bridges driven by the variable bag.
//
//   - Page - binds scalars globally and renders lists of rows into blocks
//   - Menu - "menu" items into menu_item
//   - Paging - page, per_page and total into page navigation
//   - Validation - "validation" field messages into field_error
//   - Errors - "errors" messages into error
//
// Register installs them under the conventional names of every area prefix,
// and a YAML manifest declares project bridges without Go code:
//
//	manifest, err := bridges.LoadManifest("bridges.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry := bridge.NewRegistry()
//	bridges.Register(registry, manifest.PrefixNames()...)
//	manifest.Register(registry)
package bridges
