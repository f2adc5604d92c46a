package pages

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/router"
	"github.com/alphadocs/alphadocs/internal/store"
)

// Document is the /docs/{slug} reading view: rendered body, table of
// contents, visit statistics and the comment thread.
func (p *Pages) Document() *router.PageDescriptor {
	return &router.PageDescriptor{
		Name:    "doc-view",
		NavID:   "docs-view",
		Pattern: "/docs/*",
		ParseParams: func(path string) map[string]string {
			slug := path[strings.LastIndex(path, "/")+1:]
			if decoded, err := url.PathUnescape(slug); err == nil {
				slug = decoded
			}
			return map[string]string{"slug": slug}
		},
		Header: func(ctx *router.Context) router.HeaderConfig {
			if a := ctx.ArticleMap[ctx.Params["slug"]]; a != nil {
				return router.HeaderConfig{
					Tagline:   "正在阅读：" + a.Title,
					PageTitle: a.Title + " · Alpha Docs",
				}
			}
			return router.HeaderConfig{Tagline: "文档详情", PageTitle: "文档详情 · Alpha Docs"}
		},
		Footer: func(ctx *router.Context) router.FooterConfig {
			a := ctx.ArticleMap[ctx.Params["slug"]]
			if a == nil {
				return router.FooterConfig{Note: "文档暂无更多信息"}
			}
			tags := strings.Join(a.Tags, " / ")
			if tags == "" {
				tags = "暂无"
			}
			date := a.Date
			if date == "" {
				date = "日期未知"
			}
			return router.FooterConfig{
				Note:  "标签：" + tags,
				Extra: "<small>最后更新：" + html.EscapeString(date) + "</small>",
			}
		},
		Render: p.renderDocument,
	}
}

func (p *Pages) renderDocument(ctx *router.Context) error {
	slug := ctx.Params["slug"]
	article := ctx.ArticleMap[slug]
	if article == nil {
		ctx.Mount.SetHTML(`<section class="page-section">
<h2>未找到文档</h2>
<p>可能已经被移动或还没同步到 CDN。返回 <a href="/docs" data-route="/docs">文档搜索</a> 再试一次。</p>
</section>`)
		return nil
	}

	bodyHTML, toc := p.documentBody(ctx, article)
	visits := p.visitCount(ctx)
	comments := p.commentListHTML(ctx, article)

	date := article.Date
	if date == "" {
		date = "日期未知"
	}
	tagsHTML := "<span>暂无标签</span>"
	if len(article.Tags) > 0 {
		var parts []string
		for _, t := range article.Tags {
			parts = append(parts, "<span>#"+html.EscapeString(t)+"</span>")
		}
		tagsHTML = strings.Join(parts, "")
	}

	var b strings.Builder
	b.WriteString(`<div class="doc-layout">` + "\n")
	if toc != "" {
		fmt.Fprintf(&b, `<aside class="doc-toc-container" id="doc-toc">%s</aside>`+"\n", toc)
	}
	b.WriteString(`<section class="doc-view">` + "\n")
	b.WriteString(`<div class="doc-toolbar"><button type="button" data-route="/docs">← 返回搜索</button></div>` + "\n")
	fmt.Fprintf(&b, `<header><p class="text-muted">%s · %s · <span id="visit-count">%s</span> 次阅读</p>`+"\n",
		html.EscapeString(normalizeCategory(article.Category)), html.EscapeString(date), visits)
	fmt.Fprintf(&b, `<h1 class="doc-title">%s</h1>`+"\n", html.EscapeString(article.Title))
	fmt.Fprintf(&b, `<div class="doc-meta">%s</div></header>`+"\n", tagsHTML)
	fmt.Fprintf(&b, `<article id="doc-markdown" class="article-content">%s</article>`+"\n", bodyHTML)
	b.WriteString(`<hr class="doc-divider">` + "\n")
	fmt.Fprintf(&b, `<section class="comments-section"><h3>评论</h3><div id="comments-list" class="comments-list">%s</div></section>`+"\n", comments)
	b.WriteString(`</section>` + "\n</div>")

	ctx.Mount.SetHTML(b.String())
	return nil
}

// documentBody loads and renders the article content. Load or render
// failures become an inline message, never a failed navigation.
func (p *Pages) documentBody(ctx *router.Context, article *store.Article) (string, string) {
	raw, err := p.store.GetContent(ctx.Ctx, article.Slug)
	if err != nil {
		p.log.Warn("document content unavailable", zap.String("slug", article.Slug), zap.Error(err))
		return `<p class="text-muted">加载失败：` + html.EscapeString(err.Error()) + `</p>`, ""
	}
	rendered, err := p.md.Render(article, raw)
	if err != nil {
		p.log.Warn("document render failed", zap.String("slug", article.Slug), zap.Error(err))
		return `<p class="text-muted">加载失败：` + html.EscapeString(err.Error()) + `</p>`, ""
	}
	withIDs, entries := BuildTOC(rendered)
	return withIDs, tocHTML(entries)
}

// visitCount fetches the total reads for this path. Stats are
// best-effort decoration.
func (p *Pages) visitCount(ctx *router.Context) string {
	if p.api == nil {
		return "…"
	}
	summary, err := p.api.Summary(ctx.Ctx, ctx.Path)
	if err != nil {
		p.log.Warn("stats summary unavailable", zap.String("path", ctx.Path), zap.Error(err))
		return "…"
	}
	return fmt.Sprintf("%d", summary.TotalVisits)
}

func (p *Pages) commentListHTML(ctx *router.Context, article *store.Article) string {
	if p.api == nil {
		return `<p class="text-muted">评论暂不可用</p>`
	}
	comments, err := p.api.ListComments(ctx.Ctx, article.Path)
	if err != nil {
		p.log.Warn("comments unavailable", zap.String("path", article.Path), zap.Error(err))
		return `<p class="text-muted">加载评论失败</p>`
	}
	if len(comments) == 0 {
		return `<p class="text-muted">暂无评论，快来抢沙发吧！</p>`
	}
	var b strings.Builder
	for _, c := range comments {
		fmt.Fprintf(&b, `<div class="comment-item"><div class="comment-header"><span class="comment-author">%s</span><span>%s</span></div><div class="comment-content">%s</div></div>`+"\n",
			html.EscapeString(c.Author), html.EscapeString(c.Timestamp), html.EscapeString(c.Content))
	}
	return b.String()
}

// SubmitComment posts a comment on article's thread with the current
// auth token and returns the stored comment, whose status tells the
// caller whether it went straight to approved or awaits review.
func (p *Pages) SubmitComment(ctx *router.Context, article *store.Article, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("comment content is empty")
	}
	if p.api == nil {
		return "", fmt.Errorf("comments are not available")
	}
	comment, err := p.api.PostComment(ctx.Ctx, article.Path, content)
	if err != nil {
		return "", err
	}
	return comment.Status, nil
}
