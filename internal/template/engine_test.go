package template

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func load(t *testing.T, content string) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.LoadTemplate(content, true, true))
	return e
}

func TestEngine_GlobalPlaceholders(t *testing.T) {
	e := load(t, "<h1>{{title}}</h1><p>{{missing}}</p>")

	e.SetVariable("title", "Users & <Groups>")

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Users & <Groups></h1><p></p>", out)
}

func TestEngine_RepeatedBlock(t *testing.T) {
	e := load(t, `<head><!-- BEGIN css --><link href="{{css}}"><!-- END css --></head>`)

	for _, href := range []string{"/a.css", "/b.css", "/a.css"} {
		require.NoError(t, e.SetCurrentBlock("css"))
		e.SetVariable("css", href)
		require.NoError(t, e.ParseCurrentBlock())
	}
	require.NoError(t, e.SetCurrentBlock(""))
	require.NoError(t, e.ParseCurrentBlock())

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, `<head><link href="/a.css"><link href="/b.css"><link href="/a.css"></head>`, out)
}

func TestEngine_NestedBlocks(t *testing.T) {
	e := load(t, "<!-- BEGIN list --><ul class=\"{{kind}}\"><!-- BEGIN item --><li>{{v}}</li><!-- END item --></ul><!-- END list -->")

	for _, list := range [][]string{{"1", "2"}, {"3"}} {
		for _, v := range list {
			e.SetVariable("v", v)
			require.NoError(t, e.Parse("item"))
		}
		e.SetVariable("kind", "n")
		require.NoError(t, e.Parse("list"))
	}

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, `<ul class="n"><li>1</li><li>2</li></ul><ul class="n"><li>3</li></ul>`, out)
}

func TestEngine_EmptyBlocksRemoved(t *testing.T) {
	e := load(t, "a<!-- BEGIN row -->[{{x}}]<!-- END row -->b")

	require.NoError(t, e.Parse("row"))

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestEngine_UnparsedNestedBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		setup   func(t *testing.T, e *Engine)
		want    string
	}{
		{
			name:    "variable bound on the global block",
			content: "<p><!-- BEGIN user -->Hello {{name}}<!-- END user --></p>",
			setup: func(t *testing.T, e *Engine) {
				e.SetVariable("name", "Bob")
			},
			want: "<p>Hello Bob</p>",
		},
		{
			name:    "parsed block inside an unparsed parent",
			content: `<html><!-- BEGIN head --><!-- BEGIN css --><link href="{{css}}"><!-- END css --><!-- END head --></html>`,
			setup: func(t *testing.T, e *Engine) {
				for _, href := range []string{"/a.css", "/b.css"} {
					e.SetVariable("css", href)
					require.NoError(t, e.Parse("css"))
				}
			},
			want: `<html><link href="/a.css"><link href="/b.css"></html>`,
		},
		{
			name:    "touched grandchild",
			content: "a<!-- BEGIN outer -->(<!-- BEGIN inner -->static<!-- END inner -->)<!-- END outer -->b",
			setup: func(t *testing.T, e *Engine) {
				require.NoError(t, e.TouchBlock("inner"))
			},
			want: "a(static)b",
		},
		{
			name:    "nothing bound",
			content: "a<!-- BEGIN outer -->(<!-- BEGIN inner -->{{x}}<!-- END inner -->)<!-- END outer -->b",
			setup:   func(t *testing.T, e *Engine) {},
			want:    "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := load(t, tt.content)
			tt.setup(t, e)

			out, err := e.Get(GlobalBlock)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEngine_NestedBlockConsumesVariables(t *testing.T) {
	e := load(t, "<!-- BEGIN user -->[{{name}}]<!-- END user -->")
	e.SetVariable("name", "Bob")

	require.NoError(t, e.Parse(""))
	require.NoError(t, e.Parse(""))

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "[Bob]", out)
}

func TestEngine_LiteralMustaches(t *testing.T) {
	e := load(t, `<script>var t = "{{ not a var }}";{{#if x}}y{{/if}}{{else}}{{{raw}}}\{{name}}</script>{{name}}`)
	e.SetVariables(map[string]interface{}{"x": "1", "raw": "R", "name": "Bob"})

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, `<script>var t = "{{ not a var }}";{{#if x}}y{{/if}}{{else}}{R}{{name}}</script>Bob`, out)
}

func TestEngine_Helpers(t *testing.T) {
	e := load(t, `{{uppercase name}}|{{default title "Untitled"}}|{{join tags ", "}}|{{len tags}}`)
	e.SetVariables(map[string]interface{}{
		"name": "a&b",
		"tags": []string{"x", "y"},
	})

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "A&B|Untitled|x, y|2", out)
}

func TestEngine_TouchBlock(t *testing.T) {
	e := load(t, "a<!-- BEGIN notice -->[static]<!-- END notice -->b")

	require.NoError(t, e.TouchBlock("notice"))

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "a[static]b", out)
}

func TestEngine_KeepEmptyBlocks(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.LoadTemplate("a<!-- BEGIN notice -->[static]<!-- END notice -->b", true, false))

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "a[static]b", out)
}

func TestEngine_KeepUnknownVariables(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.LoadTemplate("{{known}} {{unknown}}", false, true))
	e.SetVariable("known", "k")

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "k {{unknown}}", out)
}

func TestEngine_VariablesConsumedByParse(t *testing.T) {
	e := load(t, "<!-- BEGIN row -->{{v}};<!-- END row -->")

	e.SetVariable("v", "1")
	require.NoError(t, e.Parse("row"))
	require.NoError(t, e.Parse("row"))

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "1;", out)
}

func TestEngine_NestedValues(t *testing.T) {
	e := load(t, "{{user.name}} ({{count}})")
	e.SetVariables(map[string]interface{}{
		"user":  map[string]interface{}{"name": "ann"},
		"count": 3,
	})

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "ann (3)", out)
}

func TestEngine_CustomDelimiters(t *testing.T) {
	e := NewEngine()
	e.SetDelimiters("[[", "]]")
	require.NoError(t, e.LoadTemplate("<b>[[ name ]]</b> {{name}}", true, true))
	e.SetVariable("name", "x")

	out, err := e.Get(GlobalBlock)
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b> {{name}}", out)
}

func TestEngine_Errors(t *testing.T) {
	e := NewEngine()

	assert.ErrorIs(t, e.SetCurrentBlock("css"), ErrNotLoaded)
	_, err := e.Get(GlobalBlock)
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, e.LoadTemplate("plain", true, true))
	assert.ErrorIs(t, e.SetCurrentBlock("css"), ErrUnknownBlock)
	assert.ErrorIs(t, e.TouchBlock("js"), ErrUnknownBlock)
	assert.False(t, e.BlockExists("css"))
	assert.True(t, e.BlockExists(""))
}

func TestEngine_MalformedTemplates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unclosed block", "<!-- BEGIN a -->x"},
		{"mismatched end", "<!-- BEGIN a -->x<!-- END b -->"},
		{"stray end", "x<!-- END a -->"},
		{"duplicate block", "<!-- BEGIN a --><!-- END a --><!-- BEGIN a --><!-- END a -->"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			assert.Error(t, e.LoadTemplate(tt.content, true, true))
		})
	}
}

func TestEngine_LoadTemplateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("hi {{who}}"), 0o644))

	e := NewEngine()
	require.NoError(t, e.LoadTemplateFile(path, true, true))
	assert.Equal(t, path, e.File())

	e.SetVariable("who", "there")
	var buf bytes.Buffer
	require.NoError(t, e.Show(&buf))
	assert.Equal(t, "hi there", buf.String())

	assert.Error(t, e.LoadTemplateFile(filepath.Join(dir, "missing.html"), true, true))
}

func TestEngine_ShowCharset(t *testing.T) {
	e := NewEngine(WithCharset("Shift_JIS"))
	assert.Equal(t, "shift_jis", e.Charset())
	require.NoError(t, e.LoadTemplate("<p>{{msg}}</p>", true, true))
	e.SetVariable("msg", "日本語")

	var buf bytes.Buffer
	require.NoError(t, e.Show(&buf))

	want, err := japanese.ShiftJIS.NewEncoder().String("<p>日本語</p>")
	require.NoError(t, err)
	assert.Equal(t, want, buf.String())
}

func TestEngine_UnknownCharsetFallsBack(t *testing.T) {
	e := NewEngine(WithCharset("no-such-charset"))
	assert.Equal(t, "utf-8", e.Charset())
}

func TestEngine_SharedCompiler(t *testing.T) {
	c := NewCompiler()
	first := NewEngine(WithCompiler(c))
	second := NewEngine(WithCompiler(c))

	require.NoError(t, first.LoadTemplate("<!-- BEGIN a -->{{x}}<!-- END a -->", true, true))
	cached := c.Cached()
	require.NoError(t, second.LoadTemplate("<!-- BEGIN a -->{{x}}<!-- END a -->", true, true))

	assert.Equal(t, 1, cached)
	assert.Equal(t, cached, c.Cached())
}
