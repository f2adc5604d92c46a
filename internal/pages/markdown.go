package pages

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/alphadocs/alphadocs/internal/store"
)

// Renderer turns raw document bodies into display HTML according to
// the article type.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates the shared markdown renderer.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			ghtml.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// Render produces the article body HTML. HTML documents pass through
// verbatim, embedded-frame documents are wrapped in a sandboxed frame,
// everything else is treated as markdown.
func (r *Renderer) Render(article *store.Article, raw string) (string, error) {
	switch article.Type {
	case store.TypeHTML:
		return raw, nil
	case store.TypeEmbeddedFrame:
		return fmt.Sprintf(`<iframe class="doc-frame" title=%q srcdoc="%s"></iframe>`,
			article.Title, html.EscapeString(raw)), nil
	default:
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(raw), &buf); err != nil {
			return "", fmt.Errorf("rendering markdown for %s: %w", article.Slug, err)
		}
		return buf.String(), nil
	}
}

// TOCEntry is one table-of-contents row derived from an h2/h3 heading.
type TOCEntry struct {
	ID    string
	Title string
	Level int
}

var (
	headingRE = regexp.MustCompile(`(?is)<h([23])([^>]*)>(.*?)</h[23]>`)
	idAttrRE  = regexp.MustCompile(`id="([^"]*)"`)
	tagRE     = regexp.MustCompile(`<[^>]+>`)
)

// BuildTOC extracts h2/h3 headings from rendered HTML and returns the
// document with every heading carrying an id, plus the entries in
// document order. Headings without an id get heading-<n>.
func BuildTOC(doc string) (string, []TOCEntry) {
	var entries []TOCEntry
	index := 0
	out := headingRE.ReplaceAllStringFunc(doc, func(match string) string {
		groups := headingRE.FindStringSubmatch(match)
		level := 2
		if groups[1] == "3" {
			level = 3
		}
		attrs, inner := groups[2], groups[3]

		id := ""
		if m := idAttrRE.FindStringSubmatch(attrs); m != nil {
			id = m[1]
		}
		if id == "" {
			id = fmt.Sprintf("heading-%d", index)
			attrs = fmt.Sprintf(` id=%q%s`, id, attrs)
			match = fmt.Sprintf("<h%d%s>%s</h%d>", level, attrs, inner, level)
		}
		index++

		title := strings.TrimSpace(html.UnescapeString(tagRE.ReplaceAllString(inner, "")))
		entries = append(entries, TOCEntry{ID: id, Title: title, Level: level})
		return match
	})
	return out, entries
}

// tocHTML renders the sidebar list. Empty input yields an empty string
// so the layout can omit the sidebar entirely.
func tocHTML(entries []TOCEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<h4>目录</h4>\n<ul>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, `<li class="toc-h%d"><a href="#%s">%s</a></li>`+"\n",
			e.Level, e.ID, html.EscapeString(e.Title))
	}
	b.WriteString("</ul>")
	return b.String()
}
