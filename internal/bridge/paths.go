package bridge

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Paths derives template locations from the invoking script. Templates live
// in a tree that mirrors the document root: the document root's
// DocumentBasename segment is swapped for TemplateBasename and the script's
// extension for TemplateExt.
type Paths struct {
	DocumentRoot     string `yaml:"document_root"`
	DocumentBasename string `yaml:"document_basename"`
	TemplateBasename string `yaml:"template_basename"`
	TemplateExt      string `yaml:"template_ext"`

	// Scripts under MobilePrefix get MobileSegment inserted right before
	// the template file name.
	MobilePrefix  string `yaml:"mobile_prefix"`
	MobileSegment string `yaml:"mobile_segment"`
}

// DefaultPaths returns the conventional htdocs/templates layout
func DefaultPaths(documentRoot string) Paths {
	return Paths{
		DocumentRoot:     documentRoot,
		DocumentBasename: "htdocs",
		TemplateBasename: "templates",
		TemplateExt:      ".html",
		MobilePrefix:     "/sp/",
		MobileSegment:    "sp",
	}
}

// TemplateRoot returns the template directory matching the document root
func (p Paths) TemplateRoot() (string, error) {
	if p.DocumentRoot == "" {
		return "", fmt.Errorf("%w: document root is not set", ErrConfiguration)
	}
	if p.TemplateBasename == "" {
		return "", fmt.Errorf("%w: template basename is not set", ErrConfiguration)
	}

	root := filepath.ToSlash(filepath.Clean(p.DocumentRoot))
	segments := strings.Split(root, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if p.DocumentBasename != "" && segments[i] == p.DocumentBasename {
			segments[i] = p.TemplateBasename
			return filepath.FromSlash(strings.Join(segments, "/")), nil
		}
	}

	return filepath.Join(filepath.Dir(filepath.FromSlash(root)), p.TemplateBasename), nil
}

// ScriptName returns the invoker relative to the document root, always
// starting with "/". Invokers outside the document root are kept as they are.
func (p Paths) ScriptName(invoker string) string {
	if invoker == "" {
		return "/"
	}
	if p.DocumentRoot != "" && filepath.IsAbs(invoker) {
		rel, err := filepath.Rel(filepath.Clean(p.DocumentRoot), invoker)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "/" + filepath.ToSlash(rel)
		}
	}
	script := filepath.ToSlash(invoker)
	if !strings.HasPrefix(script, "/") {
		script = "/" + script
	}
	return script
}

// IsMobile reports whether the script lives in the mobile tree
func (p Paths) IsMobile(script string) bool {
	return p.MobilePrefix != "" && p.MobileSegment != "" && strings.HasPrefix(script, p.MobilePrefix)
}

// OwnTemplate returns the template mirroring the script path:
// /users/list.php becomes <root>/users/list.html.
func (p Paths) OwnTemplate(script string) (string, error) {
	root, err := p.TemplateRoot()
	if err != nil {
		return "", err
	}

	rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(script)), "/")
	if rel == "" {
		return "", fmt.Errorf("%w: cannot derive a template from script %q", ErrConfiguration, script)
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel)) + p.templateExt()

	if p.IsMobile(script) {
		dir, file := path.Split(rel)
		rel = path.Join(dir, p.MobileSegment, file)
	}

	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

// BaseDir returns the template directory of the script's directory
func (p Paths) BaseDir(script string) (string, error) {
	root, err := p.TemplateRoot()
	if err != nil {
		return "", err
	}

	dir := strings.TrimPrefix(path.Dir(path.Clean("/"+filepath.ToSlash(script))), "/")
	if p.IsMobile(script) {
		dir = path.Join(dir, p.MobileSegment)
	}

	return filepath.Join(root, filepath.FromSlash(dir)), nil
}

func (p Paths) templateExt() string {
	if p.TemplateExt == "" {
		return ".html"
	}
	return p.TemplateExt
}
