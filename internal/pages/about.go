package pages

import (
	"fmt"
	"strings"

	"github.com/alphadocs/alphadocs/internal/router"
)

// wordsPerArticle is the rough per-document word estimate behind the
// "累计字数" stat card.
const wordsPerArticle = 1200

// About is the default landing page.
func (p *Pages) About() *router.PageDescriptor {
	return &router.PageDescriptor{
		Name:  "about",
		NavID: "about",
		Path:  "/about",
		Header: func(ctx *router.Context) router.HeaderConfig {
			return router.HeaderConfig{
				Tagline:   "资源分享 · 经验分享",
				PageTitle: "关于本站 · Alpha Docs",
			}
		},
		Footer: func(ctx *router.Context) router.FooterConfig {
			return router.FooterConfig{
				Note:  "保持好奇，持续递归自我",
				Extra: "<small>© 2025 Alpha Docs · Crafted with caffeine & curiosity.</small>",
			}
		},
		Render: func(ctx *router.Context) error {
			totalWords := len(ctx.Articles) * wordsPerArticle

			var b strings.Builder
			b.WriteString(`<section class="page-section hero">
<p class="text-muted">Hi there 👋</p>
<h1 class="hero-title">Alpha Docs 是一个专注于资源整理与个人经验分享的知识小站。</h1>
<p>这里收录我在学习与工作中遇到的高质量资料、踩坑记录和复盘心得，按照主题分类整理，方便自己与朋友随时查阅。</p>
<div class="hero-stats">
`)
			fmt.Fprintf(&b, `<article class="stat-card"><span>精选文档</span><strong>%d</strong><small>篇内容在 CDN 上实时更新</small></article>`+"\n", len(ctx.Articles))
			fmt.Fprintf(&b, `<article class="stat-card"><span>涵盖标签</span><strong>%d</strong><small>多维视角记录学习路径</small></article>`+"\n", len(ctx.Tags))
			fmt.Fprintf(&b, `<article class="stat-card"><span>累计字数</span><strong>%.1fk</strong><small>持续更新中</small></article>`+"\n", float64(totalWords)/1000)
			b.WriteString(`</div>
</section>

<section class="page-section glow-card">
<h2>站点定位</h2>
<p>聚焦三个方向：<strong>精选资源沉淀</strong>、<strong>实战经验复盘</strong>和<strong>长期学习记录</strong>。</p>
<div class="doc-meta">
<span>🧠 资源共享 · 经验互助</span>
<span>🛠️ Build in public</span>
<span>📚 Personal Knowledge Hub</span>
</div>
</section>

<section class="page-section">
<h2>近期计划</h2>
<ul>
<li>持续整理开发、设计、效率等方向的资源清单，并补充个人注释。</li>
<li>把真实项目中的经验与踩坑案例写成文章，帮助后来者少走弯路。</li>
<li>完善互动与统计机制，了解大家最想要的资源类型并持续迭代。</li>
</ul>
</section>`)

			ctx.Mount.SetHTML(b.String())
			return nil
		},
	}
}
