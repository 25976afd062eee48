package bridges

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
	"github.com/aescanero/dago-template-bridge/internal/template"
)

// site is a docroot/template tree in a temp dir
type site struct {
	paths bridge.Paths
	root  string
}

func newSite(t *testing.T, templates map[string]string) *site {
	t.Helper()
	dir := t.TempDir()
	s := &site{
		paths: bridge.DefaultPaths(filepath.Join(dir, "htdocs")),
		root:  filepath.Join(dir, "templates"),
	}
	require.NoError(t, os.MkdirAll(s.paths.DocumentRoot, 0o755))
	for rel, content := range templates {
		path := filepath.Join(s.root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return s
}

func (s *site) manager(t *testing.T, reg *bridge.Registry, script string, vars map[string]any) *bridge.Manager {
	t.Helper()
	m, err := bridge.NewManager(template.NewEngine(), reg, bridge.Options{
		Invoker:   filepath.Join(s.paths.DocumentRoot, filepath.FromSlash(script)),
		Paths:     s.paths,
		Variables: vars,
	})
	require.NoError(t, err)
	return m
}

func (s *site) store(t *testing.T, script, id string, vars map[string]any) (string, error) {
	t.Helper()
	reg := bridge.NewRegistry()
	require.NoError(t, Register(reg, "Admin"))

	b, err := s.manager(t, reg, script, vars).Get(id)
	require.NoError(t, err)
	return b.Store("")
}

func TestPage(t *testing.T) {
	s := newSite(t, map[string]string{
		"base.html": `<title>{{title}}</title><ul><!-- BEGIN users --><li>{{name}}:{{age}}</li><!-- END users --></ul>{{body_html}}{{user.name}}`,
	})

	out, err := s.store(t, "/index.php", "Base", map[string]any{
		"title": "<T>",
		"users": []any{
			map[string]any{"name": "ann", "age": 31},
			map[string]any{"name": "b<o>b", "age": 42},
		},
		"items":     []map[string]any{{"name": "no block"}},
		"body_html": "<b>raw</b>",
		"user":      map[string]any{"name": "x&y"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<title>&lt;T&gt;</title><ul><li>ann:31</li><li>b&lt;o&gt;b:42</li></ul><b>raw</b>x&amp;y`,
		out)
}

func TestPage_EmptyRowsDropBlock(t *testing.T) {
	s := newSite(t, map[string]string{
		"base.html": `<ul><!-- BEGIN users --><li>{{name}}</li><!-- END users --></ul>`,
	})

	out, err := s.store(t, "/index.php", "Base", map[string]any{"users": []map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "<ul></ul>", out)
}

func TestPage_PrefixedTemplate(t *testing.T) {
	s := newSite(t, map[string]string{
		"base.html":       "public {{title}}",
		"admin/base.html": "admin {{title}}",
	})

	out, err := s.store(t, "/admin/users.php", "AdminBase", map[string]any{"title": "T"})
	require.NoError(t, err)
	assert.Equal(t, "admin T", out)
}

func TestPage_OwnTemplate(t *testing.T) {
	s := newSite(t, map[string]string{"users/list.html": "own {{title}}"})
	reg := bridge.NewRegistry()
	require.NoError(t, reg.Register("UsersList", NewPage("")))

	b, err := s.manager(t, reg, "/users/list.php", map[string]any{"title": "T"}).Get("UsersList")
	require.NoError(t, err)

	out, err := b.Store("")
	require.NoError(t, err)
	assert.Equal(t, "own T", out)
}

const menuTemplate = `<ul><!-- BEGIN menu_item --><li class="{{menu_active}}"><a href="{{menu_url}}">{{menu_label}}</a></li><!-- END menu_item --></ul>({{menu_count}})`

func TestMenu(t *testing.T) {
	s := newSite(t, map[string]string{"menu.html": menuTemplate})

	tests := []struct {
		name string
		menu any
	}{
		{"typed", []MenuItem{{Label: "Home", URL: "/index.php"}, {Label: "Users & co", URL: "/users/list.php"}}},
		{"maps", []map[string]any{{"label": "Home", "url": "/index.php"}, {"label": "Users & co", "url": "/users/list.php"}}},
		{"decoded json", []any{
			map[string]any{"label": "Home", "url": "/index.php"},
			map[string]any{"label": "Users & co", "url": "/users/list.php"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.store(t, "/users/list.php", "Menu", map[string]any{"menu": tt.menu})
			require.NoError(t, err)
			assert.Equal(t,
				`<ul><li class=""><a href="/index.php">Home</a></li>`+
					`<li class="active"><a href="/users/list.php">Users &amp; co</a></li></ul>(2)`,
				out)
		})
	}
}

func TestMenu_Empty(t *testing.T) {
	s := newSite(t, map[string]string{"menu.html": menuTemplate})

	out, err := s.store(t, "/index.php", "Menu", nil)
	require.NoError(t, err)
	assert.Equal(t, "<ul></ul>(0)", out)
}

const pagingTemplate = `<!-- BEGIN paging_prev --><a href="?p={{prev_page}}">prev</a><!-- END paging_prev -->` +
	`<!-- BEGIN paging_page -->[{{number}}{{current}}]<!-- END paging_page -->` +
	`<!-- BEGIN paging_next --><a href="?p={{next_page}}">next</a><!-- END paging_next -->` +
	` {{page}}/{{pages}} of {{total}}`

func TestPaging(t *testing.T) {
	s := newSite(t, map[string]string{"paging.html": pagingTemplate})

	tests := []struct {
		name string
		vars map[string]any
		want string
	}{
		{
			"middle page",
			map[string]any{"page": 2, "per_page": 10, "total": 25},
			`<a href="?p=1">prev</a>[1][2current][3]<a href="?p=3">next</a> 2/3 of 25`,
		},
		{
			"first page",
			map[string]any{"page": 1, "per_page": 10, "total": 20},
			`[1current][2]<a href="?p=2">next</a> 1/2 of 20`,
		},
		{
			"nothing to page",
			map[string]any{},
			`[1current] 1/1 of 0`,
		},
		{
			"clamped",
			map[string]any{"page": 9, "per_page": 10, "total": 30},
			`<a href="?p=2">prev</a>[1][2][3current] 3/3 of 30`,
		},
		{
			"json and flag numbers",
			map[string]any{"page": float64(2), "per_page": "5", "total": float64(10)},
			`<a href="?p=1">prev</a>[1][2current] 2/2 of 10`,
		},
		{
			"default page size",
			map[string]any{"page": 0, "total": 41},
			`[1current][2][3]<a href="?p=2">next</a> 1/3 of 41`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.store(t, "/list.php", "Paging", tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPaging_Window(t *testing.T) {
	s := newSite(t, map[string]string{
		"paging.html": `<!-- BEGIN paging_page -->[{{number}}{{current}}]<!-- END paging_page --> {{first_page}}-{{last_page}}/{{pages}}`,
	})

	tests := []struct {
		name string
		vars map[string]any
		want string
	}{
		{
			"centered",
			map[string]any{"page": 50, "per_page": 1, "total": 100, "page_window": 5},
			"[48][49][50current][51][52] 48-52/100",
		},
		{
			"start",
			map[string]any{"page": 1, "per_page": 1, "total": 100, "page_window": 3},
			"[1current][2][3] 1-3/100",
		},
		{
			"end",
			map[string]any{"page": 100, "per_page": 1, "total": 100, "page_window": 4},
			"[97][98][99][100current] 97-100/100",
		},
		{
			"wider than the page count",
			map[string]any{"page": 2, "per_page": 1, "total": 3, "page_window": 50},
			"[1][2current][3] 1-3/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.store(t, "/list.php", "Paging", tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPaging_HugeTotalIsCapped(t *testing.T) {
	s := newSite(t, map[string]string{
		"paging.html": `<!-- BEGIN paging_page -->[{{number}}]<!-- END paging_page -->`,
	})

	out, err := s.store(t, "/list.php", "Paging", map[string]any{
		"page": 1, "per_page": 1, "total": 1_000_000_000_000, "page_window": 1_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, MaxWindow, strings.Count(out, "["))

	out, err = s.store(t, "/list.php", "Paging", map[string]any{"per_page": 1, "total": 1_000_000_000_000})
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, strings.Count(out, "["))
}

func TestPaging_InvalidNumbers(t *testing.T) {
	s := newSite(t, map[string]string{"paging.html": pagingTemplate})

	_, err := s.store(t, "/list.php", "Paging", map[string]any{"page": "two"})
	assert.ErrorContains(t, err, "paging: page")

	_, err = s.store(t, "/list.php", "Paging", map[string]any{"total": -1})
	assert.ErrorContains(t, err, "total must not be negative")

	_, err = s.store(t, "/list.php", "Paging", map[string]any{"per_page": 2.5})
	assert.ErrorContains(t, err, "paging: per_page")
}

func TestValidation(t *testing.T) {
	s := newSite(t, map[string]string{
		"validate.html": `<!-- BEGIN field_error --><p>{{field}}: {{message}}</p><!-- END field_error -->{{validation_count}}`,
	})

	tests := []struct {
		name       string
		validation any
	}{
		{"typed", map[string][]string{"name": {"required"}, "email": {"invalid", "<taken>"}}},
		{"decoded json", map[string]any{"name": "required", "email": []any{"invalid", "<taken>"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.store(t, "/form.php", "Validate", map[string]any{"validation": tt.validation})
			require.NoError(t, err)
			assert.Equal(t, `<p>email: invalid</p><p>email: &lt;taken&gt;</p><p>name: required</p>3`, out)
		})
	}

	out, err := s.store(t, "/form.php", "Validate", map[string]any{"validation": map[string]string{"name": "required"}})
	require.NoError(t, err)
	assert.Equal(t, `<p>name: required</p>1`, out)
}

func TestErrors(t *testing.T) {
	s := newSite(t, map[string]string{
		"error.html":       `<!-- BEGIN error --><li>{{message}}</li><!-- END error -->{{error_count}}`,
		"admin/error.html": `admin:<!-- BEGIN error -->{{message}};<!-- END error -->`,
		"plain.html":       `no blocks`,
	})

	out, err := s.store(t, "/index.php", "Error", map[string]any{"errors": []string{"a", "b<"}})
	require.NoError(t, err)
	assert.Equal(t, `<li>a</li><li>b&lt;</li>2`, out)

	out, err = s.store(t, "/admin/index.php", "AdminError", map[string]any{"errors": "single"})
	require.NoError(t, err)
	assert.Equal(t, `admin:single;`, out)

	out, err = s.store(t, "/index.php", "Error", nil)
	require.NoError(t, err)
	assert.Equal(t, `0`, out)
}

func TestErrors_MissingBlock(t *testing.T) {
	s := newSite(t, map[string]string{"plain.html": "no blocks"})
	reg := bridge.NewRegistry()
	require.NoError(t, reg.Register("Plain", NewErrors("plain.html")))

	b, err := s.manager(t, reg, "/index.php", map[string]any{"errors": []string{"x"}}).Get("Plain")
	require.NoError(t, err)

	_, err = b.Store("")
	assert.ErrorIs(t, err, template.ErrUnknownBlock)
}

func TestRegister(t *testing.T) {
	reg := bridge.NewRegistry()
	require.NoError(t, Register(reg, "Admin", "Member", "Admin"))

	assert.Equal(t, []string{
		"AdminBase", "AdminError", "AdminMenu", "AdminPaging", "AdminValidate",
		"Base", "Error",
		"MemberBase", "MemberError", "MemberMenu", "MemberPaging", "MemberValidate",
		"Menu", "Paging", "Validate",
	}, reg.List())

	assert.Error(t, Register(reg))
}
