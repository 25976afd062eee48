package bridges

import (
	"fmt"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

const (
	// DefaultPerPage is used when the bag has no positive per_page
	DefaultPerPage = 20

	// DefaultWindow is how many paging_page links are rendered around the
	// current page when the bag has no positive page_window
	DefaultWindow = 10

	// MaxWindow caps page_window
	MaxWindow = 100
)

// Paging renders page navigation from the page, per_page, total and
// page_window variables. Optional blocks: paging_prev, paging_page and
// paging_next. Only the window of pages around the current one gets a
// paging_page occurrence.
type Paging struct {
	*bridge.Base
	template string

	page    int
	perPage int
	total   int
	pages   int
	window  int
}

// NewPaging returns a factory for paging bridges
func NewPaging(template string) bridge.Factory {
	return func(base *bridge.Base) bridge.Page {
		return &Paging{Base: base, template: template}
	}
}

// DefaultTemplate implements bridge.DefaultTemplater
func (p *Paging) DefaultTemplate() (string, error) {
	return p.TemplatePath(p.template)
}

// Init computes the page count and clamps the current page into range
func (p *Paging) Init() error {
	var err error
	if p.page, err = p.number("page"); err != nil {
		return err
	}
	if p.perPage, err = p.number("per_page"); err != nil {
		return err
	}
	if p.total, err = p.number("total"); err != nil {
		return err
	}
	if p.window, err = p.number("page_window"); err != nil {
		return err
	}
	if p.total < 0 {
		return fmt.Errorf("paging: total must not be negative, got %d", p.total)
	}

	if p.perPage <= 0 {
		p.perPage = DefaultPerPage
	}
	if p.window <= 0 {
		p.window = DefaultWindow
	}
	if p.window > MaxWindow {
		p.window = MaxWindow
	}

	p.pages = p.total / p.perPage
	if p.total%p.perPage != 0 {
		p.pages++
	}
	if p.pages < 1 {
		p.pages = 1
	}
	if p.page < 1 {
		p.page = 1
	}
	if p.page > p.pages {
		p.page = p.pages
	}
	return nil
}

func (p *Paging) number(key string) (int, error) {
	v, _ := p.Vars().Get(key)
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("paging: %s: %w", key, err)
	}
	return n, nil
}

// SetBlocks parses the navigation blocks the template declares
func (p *Paging) SetBlocks() error {
	if p.page > 1 && p.BlockExists("paging_prev") {
		if err := p.parseWith("paging_prev", map[string]any{"prev_page": p.page - 1}); err != nil {
			return err
		}
	}

	if p.BlockExists("paging_page") {
		first, last := p.span()
		for n := first; n <= last; n++ {
			current := ""
			if n == p.page {
				current = "current"
			}
			if err := p.parseWith("paging_page", map[string]any{"number": n, "current": current}); err != nil {
				return err
			}
		}
	}

	if p.page < p.pages && p.BlockExists("paging_next") {
		if err := p.parseWith("paging_next", map[string]any{"next_page": p.page + 1}); err != nil {
			return err
		}
	}
	return nil
}

// span returns the first and last page of the window, keeping it full near
// either end
func (p *Paging) span() (int, int) {
	first := p.page - p.window/2
	if first < 1 {
		first = 1
	}
	last := first + p.window - 1
	if last > p.pages {
		last = p.pages
		first = last - p.window + 1
		if first < 1 {
			first = 1
		}
	}
	return first, last
}

func (p *Paging) parseWith(block string, vars map[string]any) error {
	if err := p.SetCurrentBlock(block); err != nil {
		return err
	}
	p.SetVariables(vars)
	return p.ParseCurrentBlock()
}

// SetGlobalVariables binds page, pages, per_page, total and the window
// bounds first_page and last_page
func (p *Paging) SetGlobalVariables() error {
	first, last := p.span()
	p.SetVariables(map[string]any{
		"page":       p.page,
		"pages":      p.pages,
		"per_page":   p.perPage,
		"total":      p.total,
		"first_page": first,
		"last_page":  last,
	})
	return nil
}
