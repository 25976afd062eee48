// Package template provides the block template engine bridges render into.
//
// Templates are split into named blocks with HTML comments. Every block can
// be selected, bound with variables and parsed any number of times; each
// parse appends one occurrence of the block to its parent:
//
//	<head>
//	<!-- BEGIN css --><link rel="stylesheet" href="{{css}}"><!-- END css -->
//	</head>
//
//	engine := template.NewEngine()
//	if err := engine.LoadTemplateFile("page.html", true, true); err != nil {
//	    log.Fatal(err)
//	}
//	for _, href := range []string{"/a.css", "/b.css"} {
//	    engine.SetCurrentBlock("css")
//	    engine.SetVariable("css", href)
//	    engine.ParseCurrentBlock()
//	}
//	engine.Show(os.Stdout)
//
// A placeholder is a variable name, dotted to reach into maps, or a call of
// one of the inline helpers with variables and quoted strings as arguments:
//   - uppercase, lowercase, trim
//   - default - Return default value if first arg is empty
//   - join - Join array elements with separator
//   - len - Get length of array/string/map
//
// Placeholders are rendered with raymond. Anything else between mustaches is
// plain text and is written out as is; a backslash before a placeholder keeps
// it literal too.
//
// String values are emitted verbatim; escaping is the caller's job.
package template
