// Package router matches paths to registered pages, orchestrates the
// exit/fetch/render/enter navigation cycle and owns the navigation
// state. It is constructed once at startup and handed to page
// collaborators; there is no ambient global.
package router

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/store"
)

// ErrDefaultRouteMissing means the default route itself has no
// registered page: a configuration failure, rendered as a fatal view
// instead of redirecting (which would loop forever).
var ErrDefaultRouteMissing = errors.New("default route is not registered")

// VisitReporter posts best-effort page-view telemetry.
type VisitReporter interface {
	ReportVisit(ctx context.Context, path string) error
}

// Options configures a Router.
type Options struct {
	// DefaultRoute is the canonical landing path, "/about" by default.
	DefaultRoute string
	// Transition is the fixed exit-animation duration; the render step
	// never starts before both the transition and the data fetch end.
	Transition time.Duration
}

// NavOptions modify a Navigate call.
type NavOptions struct {
	// Replace swaps the current history entry instead of pushing.
	Replace bool
	// Force re-renders even when the target equals the current path.
	Force bool
}

// Router is the navigation state machine.
type Router struct {
	store    *store.Store
	mount    Mount
	chrome   Chrome
	reporter VisitReporter
	log      *zap.Logger
	opts     Options

	mu          sync.Mutex
	pages       []*PageDescriptor
	currentPath string
	history     []string

	// generation invalidates superseded navigations: a render that
	// finishes with a stale generation is discarded, never committed
	// to the shared mount.
	generation atomic.Uint64

	renderWG sync.WaitGroup
}

// New creates a Router. The reporter may be nil to disable telemetry.
func New(st *store.Store, mount Mount, chrome Chrome, reporter VisitReporter, opts Options, log *zap.Logger) *Router {
	if opts.DefaultRoute == "" {
		opts.DefaultRoute = "/about"
	}
	return &Router{
		store:    st,
		mount:    mount,
		chrome:   chrome,
		reporter: reporter,
		log:      log,
		opts:     opts,
	}
}

// RegisterPage adds a page descriptor. Registration order determines
// match priority.
func (r *Router) RegisterPage(page *PageDescriptor) error {
	if page == nil || page.Render == nil {
		return fmt.Errorf("page %q: render is required", pageName(page))
	}
	r.mu.Lock()
	r.pages = append(r.pages, page)
	r.mu.Unlock()
	return nil
}

func pageName(p *PageDescriptor) string {
	if p == nil {
		return "<nil>"
	}
	return p.Name
}

// NormalizeRoute maps empty, root and index paths to the default route
// and strips trailing slashes, so the router never sees an ambiguous
// path.
func (r *Router) NormalizeRoute(path string) string {
	if path == "" || path == "/" || path == "/index.html" {
		return r.opts.DefaultRoute
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return r.opts.DefaultRoute
	}
	return trimmed
}

// CurrentPath returns the path of the last handled navigation.
func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentPath
}

// Navigate moves to path. Navigating to the current path is a no-op
// unless Force is set; otherwise the history stack is updated (push, or
// replace when requested) and the route is handled.
func (r *Router) Navigate(ctx context.Context, path string, opts NavOptions) error {
	normalized := r.NormalizeRoute(path)

	r.mu.Lock()
	if normalized == r.currentPath && !opts.Force {
		r.mu.Unlock()
		return nil
	}
	if opts.Replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = normalized
	} else {
		r.history = append(r.history, normalized)
	}
	r.mu.Unlock()

	return r.HandleRoute(ctx, normalized)
}

// Back re-handles the previous history entry, if any.
func (r *Router) Back(ctx context.Context) error {
	r.mu.Lock()
	if len(r.history) < 2 {
		r.mu.Unlock()
		return nil
	}
	r.history = r.history[:len(r.history)-1]
	target := r.history[len(r.history)-1]
	r.mu.Unlock()
	return r.HandleRoute(ctx, target)
}

// HandleRoute runs one navigation cycle for path: match, exit
// transition concurrent with data preparation, render, chrome, visit
// report. A navigation superseded mid-flight renders into its staging
// buffer and is discarded at commit time.
func (r *Router) HandleRoute(ctx context.Context, path string) error {
	normalized := r.NormalizeRoute(path)
	gen := r.generation.Add(1)

	r.mu.Lock()
	r.currentPath = normalized
	page := r.matchRoute(normalized)
	r.mu.Unlock()

	if page == nil {
		r.log.Warn("no route matched", zap.String("path", normalized))
		if normalized == r.opts.DefaultRoute {
			// The default page itself is missing: render the fatal
			// view rather than redirecting into a loop.
			r.mount.SetHTML(errorViewHTML("系统错误：默认页面未加载。"))
			return ErrDefaultRouteMissing
		}
		return r.Navigate(ctx, r.opts.DefaultRoute, NavOptions{Replace: true, Force: true})
	}

	// Exit transition and data preparation run concurrently; render is
	// strictly ordered after both.
	var (
		snap    *store.Snapshot
		dataErr error
		done    = make(chan struct{})
	)
	go func() {
		snap, dataErr = r.store.EnsureIndex(ctx)
		close(done)
	}()
	if r.opts.Transition > 0 {
		select {
		case <-time.After(r.opts.Transition):
		case <-ctx.Done():
		}
	}
	<-done

	if err := ctx.Err(); err != nil {
		return err
	}
	if dataErr != nil {
		if r.isCurrent(gen) {
			r.mount.SetHTML(errorViewHTML(dataErr.Error()))
		}
		return dataErr
	}

	var params map[string]string
	if page.ParseParams != nil {
		params = page.ParseParams(normalized)
	}

	staging := &BufferMount{}
	pageCtx := &Context{
		Ctx:        ctx,
		Mount:      staging,
		Router:     r,
		Path:       normalized,
		Params:     params,
		Articles:   snap.List,
		ArticleMap: snap.BySlug,
		Tags:       snap.Tags,
	}

	header := HeaderConfig{}
	if page.Header != nil {
		header = page.Header(pageCtx)
	}
	footer := FooterConfig{}
	if page.Footer != nil {
		footer = page.Footer(pageCtx)
	}

	if err := page.Render(pageCtx); err != nil {
		r.log.Error("page render failed",
			zap.String("page", page.Name),
			zap.String("path", normalized),
			zap.Error(err))
		if r.isCurrent(gen) {
			r.mount.SetHTML(errorViewHTML(err.Error()))
		}
		return err
	}

	if !r.isCurrent(gen) {
		r.log.Debug("stale render discarded",
			zap.String("page", page.Name),
			zap.Uint64("generation", gen))
		return nil
	}

	r.chrome.SetHeader(header)
	r.chrome.SetFooter(footer)
	r.mount.SetHTML(staging.HTML())

	if page.AfterRender != nil {
		page.AfterRender(pageCtx)
	}

	r.chrome.SetActiveNav(page.NavID)
	r.reportVisit(normalized)
	return nil
}

func (r *Router) isCurrent(gen uint64) bool {
	return r.generation.Load() == gen
}

func (r *Router) matchRoute(path string) *PageDescriptor {
	for _, page := range r.pages {
		if page.matches(path) {
			return page
		}
	}
	return nil
}

// reportVisit fires telemetry without blocking the navigation; failures
// are logged and swallowed.
func (r *Router) reportVisit(path string) {
	if r.reporter == nil {
		return
	}
	r.renderWG.Add(1)
	go func() {
		defer r.renderWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.reporter.ReportVisit(ctx, path); err != nil {
			r.log.Warn("visit report failed", zap.String("path", path), zap.Error(err))
		}
	}()
}

// Flush waits for in-flight background work (testing and shutdown).
func (r *Router) Flush() { r.renderWG.Wait() }

func errorViewHTML(message string) string {
	return fmt.Sprintf(`<section class="page-section">
    <h2>页面加载失败</h2>
    <p>%s</p>
</section>`, html.EscapeString(message))
}
