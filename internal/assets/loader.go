// Package assets boots the application shell: it fetches the resource
// manifest and loads the stylesheets and scripts it lists, signalling
// readiness to consumers that start independently (the router).
package assets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alphadocs/alphadocs/internal/fetch"
)

// Sink receives successfully loaded resources, in load-completion order.
// It is the stand-in for DOM insertion.
type Sink interface {
	AddStylesheet(ref, url string)
	AddScript(ref, url string)
}

// ShellRecorder is the default Sink: it records what the shell has
// loaded so pages and tests can inspect it.
type ShellRecorder struct {
	mu          sync.Mutex
	Stylesheets []string
	Scripts     []string
}

func (s *ShellRecorder) AddStylesheet(ref, url string) {
	s.mu.Lock()
	s.Stylesheets = append(s.Stylesheets, ref)
	s.mu.Unlock()
}

func (s *ShellRecorder) AddScript(ref, url string) {
	s.mu.Lock()
	s.Scripts = append(s.Scripts, ref)
	s.mu.Unlock()
}

var absoluteURL = regexp.MustCompile(`(?i)^https?:`)

// WithBase resolves a resource path against a base URL. Absolute URLs
// pass through verbatim.
func WithBase(base, path string) string {
	if path == "" {
		return ""
	}
	if absoluteURL.MatchString(path) {
		return path
	}
	base = strings.TrimRight(base, "/")
	clean := strings.TrimLeft(path, "/")
	if base == "" {
		return "/" + clean
	}
	return base + "/" + clean
}

type manifestCall struct {
	done     chan struct{}
	manifest *Manifest
	err      error
}

// Loader fetches manifests and loads the resources they reference.
type Loader struct {
	client *fetch.Client
	base   string
	sink   Sink
	log    *zap.Logger

	mu        sync.Mutex
	manifests map[string]*Manifest
	inflight  map[string]*manifestCall
	loaded    map[string]bool

	readyOnce sync.Once
	done      chan struct{}
}

// NewLoader creates a Loader resolving relative refs against base.
func NewLoader(client *fetch.Client, base string, sink Sink, log *zap.Logger) *Loader {
	return &Loader{
		client:    client,
		base:      base,
		sink:      sink,
		log:       log,
		manifests: make(map[string]*Manifest),
		inflight:  make(map[string]*manifestCall),
		loaded:    make(map[string]bool),
		done:      make(chan struct{}),
	}
}

// FetchManifest returns the manifest for key (e.g. "index" fetches
// index-map.json). Results are memoized; concurrent calls for the same
// key share a single network fetch.
func (l *Loader) FetchManifest(ctx context.Context, key string) (*Manifest, error) {
	l.mu.Lock()
	if m, ok := l.manifests[key]; ok {
		l.mu.Unlock()
		return m, nil
	}
	if call, ok := l.inflight[key]; ok {
		l.mu.Unlock()
		select {
		case <-call.done:
			return call.manifest, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &manifestCall{done: make(chan struct{})}
	l.inflight[key] = call
	l.mu.Unlock()

	url := WithBase(l.base, strings.TrimLeft(key, "/")+"-map.json")
	var m Manifest
	err := l.client.GetJSON(ctx, url, &m)

	l.mu.Lock()
	delete(l.inflight, key)
	if err != nil {
		call.err = fmt.Errorf("loading manifest %s: %w", url, err)
	} else {
		call.manifest = &m
		l.manifests[key] = &m
	}
	l.mu.Unlock()
	close(call.done)

	return call.manifest, call.err
}

// Boot fetches the manifest for key and loads everything it lists:
// stylesheets in parallel, scripts strictly in manifest order. On
// success the ready signal fires. The caller reveals the shell whether
// or not Boot fails; a failed resource load is degraded, not fatal.
func (l *Loader) Boot(ctx context.Context, key string) error {
	manifest, err := l.FetchManifest(ctx, key)
	if err != nil {
		return err
	}

	// Stylesheet application order does not matter, so they race.
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range manifest.CSS {
		entry := entry
		g.Go(func() error {
			return l.loadEntry(gctx, entry, "css")
		})
	}

	// Scripts register page descriptors that assume earlier scripts
	// already executed, so each load completes before the next begins.
	var jsErr error
	for _, entry := range manifest.JS {
		if err := l.loadEntry(ctx, entry, "js"); err != nil {
			jsErr = err
			break
		}
	}

	// The stylesheet goroutines must finish before Boot returns, even
	// when a script failed, so their results and errors are not lost.
	if err := errors.Join(jsErr, g.Wait()); err != nil {
		return err
	}

	l.markReady()
	return nil
}

func (l *Loader) loadEntry(ctx context.Context, entry Entry, kind string) error {
	l.mu.Lock()
	if l.loaded[entry.Ref] {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	url := entry.Ref
	if !entry.Absolute {
		url = WithBase(l.base, entry.Ref)
	}

	resp, err := l.client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("%s resource %s: %w", kind, entry.Ref, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s resource %s: status %d", kind, entry.Ref, resp.StatusCode)
	}

	l.mu.Lock()
	already := l.loaded[entry.Ref]
	l.loaded[entry.Ref] = true
	l.mu.Unlock()
	if already {
		return nil
	}

	switch kind {
	case "css":
		l.sink.AddStylesheet(entry.Ref, url)
	default:
		l.sink.AddScript(entry.Ref, url)
	}
	l.log.Debug("resource loaded", zap.String("kind", kind), zap.String("ref", entry.Ref))
	return nil
}

func (l *Loader) markReady() {
	l.readyOnce.Do(func() { close(l.done) })
}

// Ready reports whether Boot has completed successfully at least once.
func (l *Loader) Ready() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when resources are ready. Consumers can
// either poll Ready or block on Done, covering both sides of the
// "loader finished before I subscribed" race.
func (l *Loader) Done() <-chan struct{} { return l.done }
