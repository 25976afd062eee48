package bridges

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
	"github.com/aescanero/dago-template-bridge/internal/eval/cel"
)

const manifestYAML = `
prefixes:
  - match: /admin/
  - condition: script.startsWith('/mypage/')
    prefix: Member
bridges:
  - name: UsersList
    template: users/list.html
    css: /css/users.css
    js: [/js/table.js, /js/users.js]
  - name: Profile
  - name: SideMenu
    kind: menu
    template: side.html
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	assert.Equal(t, []bridge.PrefixRule{
		{Match: "/admin/"},
		{Condition: "script.startsWith('/mypage/')", Prefix: "Member"},
	}, m.Prefixes)
	require.Len(t, m.Bridges, 3)
	assert.Equal(t, Definition{
		Name:     "UsersList",
		Template: "users/list.html",
		CSS:      StringOrSlice{"/css/users.css"},
		JS:       StringOrSlice{"/js/table.js", "/js/users.js"},
	}, m.Bridges[0])
	assert.Equal(t, []string{"Admin", "Member"}, m.PrefixNames())

	require.NoError(t, m.Validate(cel.NewEvaluator()))
}

func TestParseManifest_Empty(t *testing.T) {
	m, err := ParseManifest(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Bridges)
	assert.NoError(t, m.Validate(nil))
}

func TestParseManifest_UnknownField(t *testing.T) {
	_, err := ParseManifest([]byte("bridges:\n  - name: X\n    templte: x.html\n"))
	assert.ErrorIs(t, err, bridge.ErrConfiguration)
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
	}{
		{"unnamed bridge", Manifest{Bridges: []Definition{{Template: "x.html"}}}},
		{"duplicate bridge", Manifest{Bridges: []Definition{{Name: "X"}, {Name: "X"}}}},
		{"unknown kind", Manifest{Bridges: []Definition{{Name: "X", Kind: "table"}}}},
		{"menu without template", Manifest{Bridges: []Definition{{Name: "X", Kind: KindMenu}}}},
		{"empty prefix rule", Manifest{Prefixes: []bridge.PrefixRule{{Prefix: "X"}}}},
		{"invalid condition", Manifest{Prefixes: []bridge.PrefixRule{{Condition: "script.size()", Prefix: "X"}}}},
		{"syntax error", Manifest{Prefixes: []bridge.PrefixRule{{Condition: "script ==", Prefix: "X"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.manifest.Validate(cel.NewEvaluator()), bridge.ErrConfiguration)
		})
	}

	conditional := Manifest{Prefixes: []bridge.PrefixRule{{Condition: "true", Prefix: "X"}}}
	assert.ErrorIs(t, conditional.Validate(nil), bridge.ErrConfiguration)
}

func TestManifest_RegisterAndRender(t *testing.T) {
	s := newSite(t, map[string]string{
		"users/list.html": `<!-- BEGIN css -->[{{css}}]<!-- END css --><!-- BEGIN js -->({{js}})<!-- END js --> {{title}}`,
		"profile.html":    `profile {{title}}`,
		"side.html":       `<!-- BEGIN menu_item -->{{menu_label}} <!-- END menu_item -->`,
	})
	m, err := ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	reg := bridge.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Equal(t, []string{"Profile", "SideMenu", "UsersList"}, reg.List())

	mgr := s.manager(t, reg, "/profile.php", map[string]any{
		"title": "T",
		"menu":  []MenuItem{{Label: "A"}, {Label: "B"}},
	})

	users, err := mgr.Get("UsersList")
	require.NoError(t, err)
	assert.Equal(t, []string{"/css/users.css"}, users.CSS())

	out, err := users.Store("")
	require.NoError(t, err)
	assert.Equal(t, "[/css/users.css](/js/table.js)(/js/users.js) T", out)

	profile, err := mgr.Get(mgr.OwnBridgeName())
	require.NoError(t, err)
	out, err = profile.Store("")
	require.NoError(t, err)
	assert.Equal(t, "profile T", out)

	side, err := mgr.Get("SideMenu")
	require.NoError(t, err)
	out, err = side.Store("")
	require.NoError(t, err)
	assert.Equal(t, "A B ", out)

	assert.Error(t, m.Register(reg))
}

func TestLoadManifest(t *testing.T) {
	t.Setenv("USERS_CSS", "/css/v2/users.css")
	path := filepath.Join(t.TempDir(), "bridges.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bridges:\n  - name: UsersList\n    css: ${USERS_CSS}\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Bridges, 1)
	assert.Equal(t, StringOrSlice{"/css/v2/users.css"}, m.Bridges[0].CSS)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
