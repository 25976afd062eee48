// Package bridge connects page logic to templates.
//
// A bridge is a small page object that knows which template to load and how
// to fill it. The manager derives everything a bridge needs from the script
// that asked for templating (the invoker): its path relative to the document
// root, the template mirroring it and the common prefix of its area.
//
// Example usage:
//
//	registry := bridge.NewRegistry()
//	registry.MustRegister("UsersList", func(base *bridge.Base) bridge.Page {
//	    return &usersList{Base: base}
//	})
//
//	manager, err := bridge.NewManager(template.NewEngine(), registry, bridge.Options{
//	    Invoker:   "/var/www/htdocs/users/list.php",
//	    Paths:     bridge.DefaultPaths("/var/www/htdocs"),
//	    Variables: map[string]any{"title": "Users"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := manager.RenderBridges(manager.OwnBridgeName()); err != nil {
//	    log.Fatal(err)
//	}
//
// Rendering a bridge runs, in order: template resolution and loading, the
// optional Init hook, one css/js block occurrence per registered asset,
// SetBlocks and finally SetGlobalVariables on the global block. Output is
// written only once every step succeeded.
package bridge
