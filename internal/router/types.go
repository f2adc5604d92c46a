package router

import (
	"context"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alphadocs/alphadocs/internal/store"
)

// Mount is the shared render target pages draw into (the main content
// region of the shell).
type Mount interface {
	SetHTML(html string)
	HTML() string
}

// BufferMount is the default Mount: it holds the rendered HTML of the
// current page.
type BufferMount struct {
	mu   sync.Mutex
	html string
}

func (m *BufferMount) SetHTML(html string) {
	m.mu.Lock()
	m.html = html
	m.mu.Unlock()
}

func (m *BufferMount) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.html
}

// HeaderConfig is the page-specific header chrome.
type HeaderConfig struct {
	Tagline   string
	PageTitle string
}

// FooterConfig is the page-specific footer chrome.
type FooterConfig struct {
	Note  string
	Extra string
}

// Chrome receives header/footer/nav-indicator updates around renders.
type Chrome interface {
	SetHeader(HeaderConfig)
	SetFooter(FooterConfig)
	SetActiveNav(navID string)
}

// ShellChrome is the default Chrome: it records the current state.
type ShellChrome struct {
	mu        sync.Mutex
	Header    HeaderConfig
	Footer    FooterConfig
	ActiveNav string
}

func (c *ShellChrome) SetHeader(h HeaderConfig) {
	c.mu.Lock()
	c.Header = h
	c.mu.Unlock()
}

func (c *ShellChrome) SetFooter(f FooterConfig) {
	c.mu.Lock()
	c.Footer = f
	c.mu.Unlock()
}

func (c *ShellChrome) SetActiveNav(navID string) {
	c.mu.Lock()
	c.ActiveNav = navID
	c.mu.Unlock()
}

// Current returns a consistent snapshot of the chrome state.
func (c *ShellChrome) Current() (HeaderConfig, FooterConfig, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Header, c.Footer, c.ActiveNav
}

// Context carries everything a page render needs. Mount is a staging
// buffer; the router commits it to the shared mount only if the
// navigation is still current.
type Context struct {
	Ctx        context.Context
	Mount      Mount
	Router     *Router
	Path       string
	Params     map[string]string
	Articles   []*store.Article
	ArticleMap map[string]*store.Article
	Tags       []string
}

// PageDescriptor is a registered page. Render is required; everything
// else is optional capability. Descriptors are immutable once
// registered and matched first-registered-first.
type PageDescriptor struct {
	Name  string
	NavID string

	// Exactly one way of matching: an exact Path, a doublestar
	// Pattern (e.g. "/docs/*"), or a custom Match predicate.
	Path    string
	Pattern string
	Match   func(path string) bool

	ParseParams func(path string) map[string]string
	Header      func(*Context) HeaderConfig
	Footer      func(*Context) FooterConfig
	Render      func(*Context) error
	AfterRender func(*Context)
}

// matches reports whether the descriptor accepts the path.
func (p *PageDescriptor) matches(path string) bool {
	switch {
	case p.Match != nil:
		return p.Match(path)
	case p.Pattern != "":
		ok, err := doublestar.Match(p.Pattern, path)
		return err == nil && ok
	default:
		return p.Path == path
	}
}
