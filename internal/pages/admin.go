package pages

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/fetch"
	"github.com/alphadocs/alphadocs/internal/router"
)

// Admin is the /admin moderation console: user approval, pending
// comments and the mutable site configuration. Rendering verifies the
// current token against /api/auth/me before showing anything.
func (p *Pages) Admin() *router.PageDescriptor {
	return &router.PageDescriptor{
		Name:  "admin",
		NavID: "admin",
		Path:  "/admin",
		Header: func(ctx *router.Context) router.HeaderConfig {
			return router.HeaderConfig{
				Tagline:   "用户审批 · 评论审核 · 站点设置",
				PageTitle: "管理员后台 · Alpha Docs",
			}
		},
		Render: p.renderAdmin,
	}
}

func (p *Pages) renderAdmin(ctx *router.Context) error {
	if p.api == nil || p.api.Token() == "" {
		ctx.Mount.SetHTML(accessDeniedHTML)
		return nil
	}
	me, err := p.api.Me(ctx.Ctx)
	if err != nil || !me.IsAdmin {
		if err != nil {
			p.log.Warn("admin identity check failed", zap.Error(err))
		}
		ctx.Mount.SetHTML(accessDeniedHTML)
		return nil
	}

	var b strings.Builder
	b.WriteString(`<div class="admin-container">` + "\n<h1>管理员后台</h1>\n")

	b.WriteString(`<section class="admin-section" id="admin-users">` + "\n<h2>用户管理</h2>\n")
	if users, err := p.api.AdminListUsers(ctx.Ctx); err != nil {
		p.log.Warn("admin user list unavailable", zap.Error(err))
		b.WriteString(`<p class="error">加载失败</p>` + "\n")
	} else {
		b.WriteString(userTableHTML(users))
	}
	b.WriteString("</section>\n")

	b.WriteString(`<section class="admin-section" id="admin-comments">` + "\n<h2>待审核评论</h2>\n")
	if pending, err := p.api.AdminPendingComments(ctx.Ctx); err != nil {
		p.log.Warn("pending comments unavailable", zap.Error(err))
		b.WriteString(`<p class="error">加载失败</p>` + "\n")
	} else if len(pending) == 0 {
		b.WriteString(`<p class="text-muted">没有待审核的评论</p>` + "\n")
	} else {
		for _, c := range pending {
			fmt.Fprintf(&b, `<div class="comment-item" data-comment-id=%q><div class="comment-header"><span>%s</span><span>%s</span></div><div class="comment-content">%s</div></div>`+"\n",
				c.ID, html.EscapeString(c.Author), html.EscapeString(c.ArticlePath), html.EscapeString(c.Content))
		}
	}
	b.WriteString("</section>\n")

	b.WriteString(`<section class="admin-section" id="admin-settings">` + "\n<h2>系统设置</h2>\n")
	if cfg, err := p.api.AdminGetConfig(ctx.Ctx); err != nil {
		p.log.Warn("site config unavailable", zap.Error(err))
		b.WriteString(`<p class="error">加载失败</p>` + "\n")
	} else {
		fmt.Fprintf(&b, `<label><input type="checkbox" id="auto-approve-users"%s> 自动批准新用户注册</label>`+"\n", checkedAttr(cfg["auto_approve_users"]))
		fmt.Fprintf(&b, `<label><input type="checkbox" id="auto-approve-comments"%s> 自动批准所有评论（无需审核）</label>`+"\n", checkedAttr(cfg["auto_approve_comments"]))
	}
	b.WriteString("</section>\n</div>")

	ctx.Mount.SetHTML(b.String())
	return nil
}

const accessDeniedHTML = `<section class="page-section">
<h2>无权访问</h2>
<p>您没有权限访问此页面。</p>
</section>`

func userTableHTML(users []fetch.User) string {
	if len(users) == 0 {
		return `<p class="text-muted">暂无用户</p>` + "\n"
	}
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr><th>用户名</th><th>邮箱</th><th>状态</th><th>评论审核</th></tr></thead>\n<tbody>\n")
	for _, u := range users {
		status := "待审批"
		if u.IsApproved {
			status = "已批准"
		}
		if u.IsAdmin {
			status = "管理员"
		}
		review := "免审"
		if u.CommentNeedsReview {
			review = "需审核"
		}
		fmt.Fprintf(&b, `<tr data-user-id=%q><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`+"\n",
			u.ID, html.EscapeString(u.Username), html.EscapeString(u.Email), status, review)
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String()
}

func checkedAttr(value string) string {
	if value == "true" || value == "1" {
		return " checked"
	}
	return ""
}

// Moderation actions forwarded to the admin API.

// ApproveUser flips a pending registration to approved.
func (p *Pages) ApproveUser(ctx *router.Context, userID string) error {
	return p.adminAction(func() error { return p.api.AdminUserAction(ctx.Ctx, userID, "approve") })
}

// RejectUser declines a pending registration.
func (p *Pages) RejectUser(ctx *router.Context, userID string) error {
	return p.adminAction(func() error { return p.api.AdminUserAction(ctx.Ctx, userID, "reject") })
}

// ApproveComment publishes a pending comment.
func (p *Pages) ApproveComment(ctx *router.Context, commentID string) error {
	return p.adminAction(func() error { return p.api.AdminCommentAction(ctx.Ctx, commentID, "approve") })
}

// RejectComment discards a pending comment.
func (p *Pages) RejectComment(ctx *router.Context, commentID string) error {
	return p.adminAction(func() error { return p.api.AdminCommentAction(ctx.Ctx, commentID, "reject") })
}

// SaveSettings writes the site configuration toggles.
func (p *Pages) SaveSettings(ctx *router.Context, autoApproveUsers, autoApproveComments bool) error {
	return p.adminAction(func() error {
		return p.api.AdminPutConfig(ctx.Ctx, map[string]string{
			"auto_approve_users":    fmt.Sprintf("%t", autoApproveUsers),
			"auto_approve_comments": fmt.Sprintf("%t", autoApproveComments),
		})
	})
}

func (p *Pages) adminAction(fn func() error) error {
	if p.api == nil {
		return fmt.Errorf("管理接口不可用")
	}
	return fn()
}
