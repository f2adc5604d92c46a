package store

import (
	"encoding/json"
	"fmt"
)

// Type discriminates how a document body is rendered.
type Type string

const (
	// TypeMarkdown bodies are parsed markdown text.
	TypeMarkdown Type = "md"
	// TypeHTML bodies are raw HTML text.
	TypeHTML Type = "html"
	// TypeEmbeddedFrame documents render an embedded external page.
	TypeEmbeddedFrame Type = "ifmhtml"
)

// Article is one document entry of the index.
type Article struct {
	Slug        string   `json:"slug,omitempty"`
	Path        string   `json:"path,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Date        string   `json:"date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Type        Type     `json:"type,omitempty"`
}

// Snapshot is the fully built index state. List order is the index file
// order; BySlug and Tags are derived from List and always rebuilt
// together, never patched incrementally.
type Snapshot struct {
	List   []*Article
	BySlug map[string]*Article
	Tags   []string
}

// keyedIndex is the newer index shape with one sequence per type.
type keyedIndex struct {
	MD      []*Article `json:"md"`
	HTML    []*Article `json:"html"`
	IfmHTML []*Article `json:"ifmhtml"`
}

// parseIndex accepts either the legacy flat array (implicitly all
// markdown) or the keyed object, concatenated in md, html, ifmhtml
// order into one flat list.
func parseIndex(raw []byte) ([]*Article, error) {
	var flat []*Article
	if err := json.Unmarshal(raw, &flat); err == nil {
		out := flat[:0]
		for _, a := range flat {
			if a == nil {
				continue
			}
			a.Type = TypeMarkdown
			out = append(out, a)
		}
		return out, nil
	}

	var keyed keyedIndex
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("index is neither an array nor a keyed object: %w", err)
	}
	if keyed.MD == nil && keyed.HTML == nil && keyed.IfmHTML == nil {
		return nil, fmt.Errorf("index object has none of md/html/ifmhtml")
	}

	list := make([]*Article, 0, len(keyed.MD)+len(keyed.HTML)+len(keyed.IfmHTML))
	for _, a := range keyed.MD {
		if a == nil {
			continue
		}
		a.Type = TypeMarkdown
		list = append(list, a)
	}
	for _, a := range keyed.HTML {
		if a == nil {
			continue
		}
		a.Type = TypeHTML
		list = append(list, a)
	}
	for _, a := range keyed.IfmHTML {
		if a == nil {
			continue
		}
		a.Type = TypeEmbeddedFrame
		list = append(list, a)
	}
	return list, nil
}
