// Package store caches the article index and document bodies behind a
// layered lookup: memory, then the persistent client cache, then the
// network.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/assets"
	"github.com/alphadocs/alphadocs/internal/cachedb"
	"github.com/alphadocs/alphadocs/internal/fetch"
)

var (
	// ErrNotFound means no article carries the requested slug.
	ErrNotFound = errors.New("document not found")
	// ErrContentLoad means the article body could not be fetched.
	ErrContentLoad = errors.New("content load failed")
)

// Options configures a Store.
type Options struct {
	// CDNBase is prepended to relative index and article paths.
	CDNBase string
	// IndexTTL bounds reuse of the persisted index. Zero disables reuse.
	IndexTTL time.Duration
	// ContentCacheLimit caps persisted per-article entries (LRU).
	ContentCacheLimit int
}

// Store is the process-wide article cache.
type Store struct {
	client *fetch.Client
	cache  *cachedb.Store
	opts   Options
	log    *zap.Logger

	mu       sync.Mutex
	snapshot *Snapshot
	content  map[string]string
}

// New creates a Store. The cache may be nil, in which case only the
// in-memory tier is used.
func New(client *fetch.Client, cache *cachedb.Store, opts Options, log *zap.Logger) *Store {
	return &Store{
		client:  client,
		cache:   cache,
		opts:    opts,
		log:     log,
		content: make(map[string]string),
	}
}

// EnsureIndex returns the built index snapshot, populating it on first
// access: memory, then persisted cache within TTL, then the network.
// The snapshot is replaced as a unit and referentially stable across
// calls until invalidated.
func (s *Store) EnsureIndex(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		return s.snapshot, nil
	}

	raw, fromCache := s.readPersistedIndex()
	if !fromCache {
		fetched, err := s.fetchIndex(ctx)
		if err != nil {
			return nil, err
		}
		raw = fetched
		s.persistIndex(raw)
	}

	list, err := parseIndex([]byte(raw))
	if err != nil {
		if fromCache {
			// Corrupted persisted cache counts as a miss.
			s.log.Warn("persisted index corrupted, refetching", zap.Error(err))
			fetched, ferr := s.fetchIndex(ctx)
			if ferr != nil {
				return nil, ferr
			}
			raw = fetched
			s.persistIndex(raw)
			if list, err = parseIndex([]byte(raw)); err != nil {
				return nil, fmt.Errorf("parsing article index: %w", err)
			}
		} else {
			return nil, fmt.Errorf("parsing article index: %w", err)
		}
	}

	s.snapshot = s.build(list)
	return s.snapshot, nil
}

// Invalidate drops the in-memory snapshot so the next EnsureIndex
// re-reads the persisted or network copy.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

func (s *Store) readPersistedIndex() (string, bool) {
	if s.cache == nil {
		return "", false
	}
	return s.cache.GetFresh(cachedb.NSIndex, cachedb.IndexKey, s.opts.IndexTTL)
}

func (s *Store) persistIndex(raw string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(cachedb.NSIndex, cachedb.IndexKey, raw); err != nil {
		s.log.Warn("could not persist article index", zap.Error(err))
	}
}

func (s *Store) fetchIndex(ctx context.Context) (string, error) {
	url := assets.WithBase(s.opts.CDNBase, "md-map.json")
	raw, err := s.client.GetText(ctx, url)
	if err != nil {
		return "", fmt.Errorf("loading article index: %w", err)
	}
	return raw, nil
}

// build derives slugs, the slug map and the tag universe from the flat
// list. Derived-slug collisions keep last-write-wins lookup but are
// logged with both paths so upstream index bugs are detectable.
func (s *Store) build(list []*Article) *Snapshot {
	snap := &Snapshot{
		List:   list,
		BySlug: make(map[string]*Article, len(list)),
	}
	seenTags := make(map[string]bool)

	for i, article := range list {
		if article.Slug == "" {
			article.Slug = deriveSlug(article.Path, i)
		}
		if article.Tags == nil {
			article.Tags = []string{}
		}
		if prior, ok := snap.BySlug[article.Slug]; ok {
			s.log.Warn("duplicate article slug, later entry wins",
				zap.String("slug", article.Slug),
				zap.String("kept", article.Path),
				zap.String("shadowed", prior.Path))
		}
		snap.BySlug[article.Slug] = article
		for _, tag := range article.Tags {
			if !seenTags[tag] {
				seenTags[tag] = true
				snap.Tags = append(snap.Tags, tag)
			}
		}
	}
	return snap
}

// deriveSlug falls back to the last path segment minus a known content
// extension, or doc-<index> when there is no path at all.
func deriveSlug(path string, index int) string {
	if path == "" {
		return fmt.Sprintf("doc-%d", index)
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, ".md"), ".html")
	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	if last == "" {
		return fmt.Sprintf("doc-%d", index)
	}
	return last
}

// GetArticle returns the article for slug, or nil when the index is not
// built yet or the slug is unknown.
func (s *Store) GetArticle(slug string) *Article {
	if slug == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.BySlug[slug]
}

// GetContent returns the raw document body for slug: memory first, then
// the persisted per-article slot, then the network. A network success
// populates both caches.
func (s *Store) GetContent(ctx context.Context, slug string) (string, error) {
	if slug == "" {
		return "", fmt.Errorf("%w: empty slug", ErrNotFound)
	}

	s.mu.Lock()
	if body, ok := s.content[slug]; ok {
		s.mu.Unlock()
		return body, nil
	}
	s.mu.Unlock()

	if s.cache != nil {
		if body, _, ok := s.cache.Get(cachedb.NSContent, slug); ok {
			s.mu.Lock()
			s.content[slug] = body
			s.mu.Unlock()
			return body, nil
		}
	}

	article := s.GetArticle(slug)
	if article == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	url := assets.WithBase(s.opts.CDNBase, article.Path)
	body, err := s.client.GetText(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrContentLoad, slug, err)
	}

	s.mu.Lock()
	s.content[slug] = body
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Put(cachedb.NSContent, slug, body); err != nil {
			s.log.Warn("could not persist document body", zap.String("slug", slug), zap.Error(err))
		} else if err := s.cache.Trim(cachedb.NSContent, s.opts.ContentCacheLimit); err != nil {
			s.log.Warn("could not trim content cache", zap.Error(err))
		}
	}
	return body, nil
}
