package pages

import (
	"strings"
	"testing"

	"github.com/alphadocs/alphadocs/internal/store"
)

func TestRenderMarkdown(t *testing.T) {
	r := NewRenderer()
	a := &store.Article{Slug: "intro", Type: store.TypeMarkdown}
	got, err := r.Render(a, "## Getting Started\n\nSome *text*.")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, `<h2 id="getting-started">Getting Started</h2>`) {
		t.Errorf("heading with auto id missing: %q", got)
	}
	if !strings.Contains(got, "<em>text</em>") {
		t.Errorf("emphasis not rendered: %q", got)
	}
}

func TestRenderHTMLPassthrough(t *testing.T) {
	r := NewRenderer()
	a := &store.Article{Slug: "page", Type: store.TypeHTML}
	raw := `<div class="custom">already html</div>`
	got, err := r.Render(a, raw)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != raw {
		t.Errorf("html document modified: %q", got)
	}
}

func TestRenderEmbeddedFrame(t *testing.T) {
	r := NewRenderer()
	a := &store.Article{Slug: "frame", Title: "Frame Doc", Type: store.TypeEmbeddedFrame}
	got, err := r.Render(a, `<html><body>"inner"</body></html>`)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(got, `<iframe class="doc-frame"`) {
		t.Errorf("no frame wrapper: %q", got)
	}
	// The inner document must be escaped inside srcdoc.
	if strings.Contains(got, `srcdoc="<html>`) {
		t.Errorf("srcdoc not escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;html&gt;") {
		t.Errorf("escaped content missing: %q", got)
	}
}

func TestBuildTOC(t *testing.T) {
	doc := `<h2 id="first">First</h2><p>x</p><h3>Sub <em>point</em></h3><h2>Second</h2>`
	withIDs, entries := BuildTOC(doc)

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].ID != "first" || entries[0].Level != 2 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	// Headings without ids get generated ones, tags inside are stripped.
	if entries[1].ID != "heading-1" || entries[1].Title != "Sub point" || entries[1].Level != 3 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[2].ID != "heading-2" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
	if !strings.Contains(withIDs, `<h3 id="heading-1"`) {
		t.Errorf("generated id not written back: %q", withIDs)
	}
	// Existing ids stay untouched.
	if !strings.Contains(withIDs, `<h2 id="first">`) {
		t.Errorf("existing id lost: %q", withIDs)
	}
}

func TestBuildTOCNoHeadings(t *testing.T) {
	doc := "<p>just text</p><h1>top title is not a toc entry</h1>"
	withIDs, entries := BuildTOC(doc)
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
	if withIDs != doc {
		t.Errorf("document modified: %q", withIDs)
	}
	if tocHTML(entries) != "" {
		t.Error("tocHTML must be empty without headings")
	}
}
