package pages

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/alphadocs/alphadocs/internal/fuzzy"
	"github.com/alphadocs/alphadocs/internal/router"
	"github.com/alphadocs/alphadocs/internal/store"
)

// Sort modes for search results. SortSimilarityDesc is only meaningful
// in fuzzy mode; outside it the similarity of every result is zero.
const (
	SortDateDesc       = "date-desc"
	SortDateAsc        = "date-asc"
	SortTitleAsc       = "title-asc"
	SortTitleDesc      = "title-desc"
	SortSimilarityDesc = "similarity-desc"
)

// Thresholds of the fuzzy result pool.
const (
	strongSimilarity   = 0.7
	fallbackSimilarity = 0.3
	minFuzzyResults    = 3
)

// uncategorized labels articles without a category so the category
// filter always has a bucket for them.
const uncategorized = "未分类"

// Query is one search over the article list. Zero value matches
// everything, newest first.
type Query struct {
	Keyword    string
	Tags       []string
	Categories []string
	Sort       string
	Fuzzy      bool
}

// Result pairs an article with its similarity score. Similarity is
// zero outside fuzzy mode.
type Result struct {
	Article    *store.Article
	Similarity float64
}

// Run filters and sorts articles. Keyword matching is substring over
// title, description and category; fuzzy mode instead scores title and
// description similarity, keeping strong matches and topping the list
// up to a minimum with the best weaker ones.
func (q Query) Run(articles []*store.Article) []Result {
	tags := toSet(q.Tags)
	categories := toSet(q.Categories)
	keyword := strings.TrimSpace(q.Keyword)

	passesTaxonomy := func(a *store.Article) bool {
		if len(categories) > 0 && !categories[normalizeCategory(a.Category)] {
			return false
		}
		if len(tags) > 0 {
			found := false
			for _, t := range a.Tags {
				if tags[t] {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	var results []Result
	if q.Fuzzy && keyword != "" {
		var strong, fallback []Result
		for _, a := range articles {
			if !passesTaxonomy(a) {
				continue
			}
			sim := similarityScore(a, keyword)
			switch {
			case sim >= strongSimilarity:
				strong = append(strong, Result{Article: a, Similarity: sim})
			case sim >= fallbackSimilarity:
				fallback = append(fallback, Result{Article: a, Similarity: sim})
			}
		}
		sort.SliceStable(fallback, func(i, j int) bool {
			return fallback[i].Similarity > fallback[j].Similarity
		})
		results = strong
		if needed := minFuzzyResults - len(strong); needed > 0 {
			if needed > len(fallback) {
				needed = len(fallback)
			}
			results = append(results, fallback[:needed]...)
		}
	} else {
		lowered := strings.ToLower(keyword)
		for _, a := range articles {
			if !passesTaxonomy(a) {
				continue
			}
			if lowered != "" && !matchesKeyword(a, lowered) {
				continue
			}
			results = append(results, Result{Article: a})
		}
	}

	q.sortResults(results)
	return results
}

func (q Query) sortResults(results []Result) {
	mode := q.Sort
	if mode == "" {
		if q.Fuzzy {
			mode = SortSimilarityDesc
		} else {
			mode = SortDateDesc
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch mode {
		case SortDateAsc:
			return parseDate(a.Article.Date).Before(parseDate(b.Article.Date))
		case SortTitleAsc:
			return a.Article.Title < b.Article.Title
		case SortTitleDesc:
			return a.Article.Title > b.Article.Title
		case SortSimilarityDesc:
			return a.Similarity > b.Similarity
		default: // SortDateDesc
			return parseDate(b.Article.Date).Before(parseDate(a.Article.Date))
		}
	})
}

func matchesKeyword(a *store.Article, lowered string) bool {
	for _, field := range []string{a.Title, a.Description, a.Category} {
		if field != "" && strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// similarityScore is the best of the title and description scores.
func similarityScore(a *store.Article, keyword string) float64 {
	score := fuzzy.Similarity(a.Title, keyword)
	if d := fuzzy.Similarity(a.Description, keyword); d > score {
		score = d
	}
	return score
}

func normalizeCategory(category string) string {
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		return trimmed
	}
	return uncategorized
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

func parseDate(value string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Categories returns the distinct normalized categories in first-seen
// order, for the filter chip row.
func Categories(articles []*store.Article) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range articles {
		c := normalizeCategory(a.Category)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Search is the /docs search page. The initial render lists every
// document newest first with the filter chips for each category and
// tag.
func (p *Pages) Search() *router.PageDescriptor {
	return &router.PageDescriptor{
		Name:  "docs-search",
		NavID: "docs-search",
		Path:  "/docs",
		Header: func(ctx *router.Context) router.HeaderConfig {
			return router.HeaderConfig{
				Tagline:   "快速检索 · 标签联动 · 本地缓存",
				PageTitle: "文档搜索 · Alpha Docs",
			}
		},
		Footer: func(ctx *router.Context) router.FooterConfig {
			return router.FooterConfig{
				Note:  fmt.Sprintf("目前共收录 %d 篇文档，%d 个标签", len(ctx.Articles), len(ctx.Tags)),
				Extra: "<small>提示：输入多个关键字可使用空格分隔，系统会自动做包含匹配。</small>",
			}
		},
		Render: func(ctx *router.Context) error {
			results := Query{}.Run(ctx.Articles)

			var b strings.Builder
			b.WriteString(`<div id="doc-search" class="cardgroup">` + "\n")
			b.WriteString(`<div class="card-t"><div class="cardhead">文档标题 / 描述</div><div class="cardbody search-input-panel">` + "\n")
			b.WriteString(`<input id="doc-search-input" type="search" placeholder="例如：Python、部署、架构..." autocomplete="off" />` + "\n")

			b.WriteString(`<div class="filter-group"><div class="filter-label">主题筛选</div><div class="tag-group" id="doc-category-filter">`)
			b.WriteString(`<button type="button" class="tag-chip is-active" data-category="all">全部</button>`)
			for _, c := range Categories(ctx.Articles) {
				fmt.Fprintf(&b, `<button type="button" class="tag-chip" data-category=%q>%s</button>`, c, html.EscapeString(c))
			}
			b.WriteString(`</div></div>` + "\n")

			b.WriteString(`<div class="filter-group"><div class="filter-label">标签筛选</div><div class="tag-group" id="doc-tag-filter">`)
			b.WriteString(`<button type="button" class="tag-chip is-active" data-tag="all">全部</button>`)
			for _, t := range ctx.Tags {
				fmt.Fprintf(&b, `<button type="button" class="tag-chip" data-tag=%q>%s</button>`, t, html.EscapeString(t))
			}
			b.WriteString(`</div></div></div></div>` + "\n")

			fmt.Fprintf(&b, `<div class="card-t"><div class="cardhead" id="search-result-head">搜索结果 <span class="count-num">%d</span> / <span class="count-num">%d</span></div>`,
				len(results), len(ctx.Articles))
			b.WriteString(`<div id="doc-search-results" class="cardbody doc-list">` + "\n")
			b.WriteString(resultListHTML(results, false))
			b.WriteString(`</div></div></div>`)

			ctx.Mount.SetHTML(b.String())
			return nil
		},
	}
}

// resultListHTML renders the doc cards. Similarity badges appear only
// in fuzzy mode.
func resultListHTML(results []Result, fuzzyMode bool) string {
	if len(results) == 0 {
		return `<p class="text-muted">暂无匹配结果，换个关键词试试吧。</p>`
	}
	var b strings.Builder
	for _, r := range results {
		a := r.Article
		desc := a.Description
		if desc == "" {
			desc = "这篇文档还没有简介。"
		}
		date := a.Date
		if date == "" {
			date = "时间未知"
		}
		fmt.Fprintf(&b, `<article class="doc-card" data-doc-slug=%q>`+"\n", a.Slug)
		fmt.Fprintf(&b, "<h3>%s</h3>\n<p>%s</p>\n", html.EscapeString(a.Title), html.EscapeString(desc))
		fmt.Fprintf(&b, `<div class="doc-meta"><span>🗂 %s</span><span>🕒 %s</span><span>🏷 %s</span>`,
			html.EscapeString(normalizeCategory(a.Category)), html.EscapeString(date),
			html.EscapeString(strings.Join(a.Tags, " · ")))
		if fuzzyMode {
			fmt.Fprintf(&b, `<span>✨ 相似度 %.2f</span>`, r.Similarity)
		}
		b.WriteString("</div>\n</article>\n")
	}
	return b.String()
}
