package pages

import (
	"fmt"
	"strings"

	"github.com/alphadocs/alphadocs/internal/fetch"
	"github.com/alphadocs/alphadocs/internal/router"
)

// minPasswordLength matches the backend registration rule so obviously
// bad input never leaves the client.
const minPasswordLength = 6

// Auth is the /auth login and registration page.
func (p *Pages) Auth() *router.PageDescriptor {
	return &router.PageDescriptor{
		Name:  "auth",
		NavID: "auth",
		Path:  "/auth",
		Header: func(ctx *router.Context) router.HeaderConfig {
			return router.HeaderConfig{
				Tagline:   "登录后可以发表评论",
				PageTitle: "用户认证 · Alpha Docs",
			}
		},
		Render: func(ctx *router.Context) error {
			ctx.Mount.SetHTML(`<div class="page-section auth-container">
<div class="auth-tabs">
<button class="auth-tab is-active" data-tab="login">登录</button>
<button class="auth-tab" data-tab="register">注册</button>
</div>
<div class="auth-form" id="login-form">
<h2>用户登录</h2>
<label for="login-username">用户名</label>
<input type="text" id="login-username" required>
<label for="login-password">密码</label>
<input type="password" id="login-password" required>
<div id="login-error" class="error-message"></div>
<button id="login-btn" class="primary-btn">登录</button>
</div>
<div class="auth-form hidden" id="register-form">
<h2>用户注册</h2>
<label for="register-username">用户名</label>
<input type="text" id="register-username" required>
<label for="register-email">邮箱（可选）</label>
<input type="email" id="register-email">
<label for="register-password">密码</label>
<input type="password" id="register-password" required>
<label for="register-password-confirm">确认密码</label>
<input type="password" id="register-password-confirm" required>
<div id="register-error" class="error-message"></div>
<button id="register-btn" class="primary-btn">注册</button>
</div>
</div>`)
			return nil
		},
	}
}

// Login validates the form input and exchanges it for a session. On
// success the API bindings hold the token for subsequent calls.
func (p *Pages) Login(ctx *router.Context, username, password string) (*fetch.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("请填写用户名和密码")
	}
	if p.api == nil {
		return nil, fmt.Errorf("认证服务不可用")
	}
	return p.api.Login(ctx.Ctx, username, password)
}

// RegisterAccount validates the form input and creates an account. The
// returned message carries the backend's approval hint.
func (p *Pages) RegisterAccount(ctx *router.Context, username, email, password, confirm string) (*fetch.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("请填写用户名和密码")
	}
	if password != confirm {
		return nil, "", fmt.Errorf("两次输入的密码不一致")
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("密码长度至少为 %d 位", minPasswordLength)
	}
	if p.api == nil {
		return nil, "", fmt.Errorf("认证服务不可用")
	}
	return p.api.Register(ctx.Ctx, username, strings.TrimSpace(email), password)
}

// ChangePassword rotates the password of the logged-in user.
func (p *Pages) ChangePassword(ctx *router.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("请填写旧密码和新密码")
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("密码长度至少为 %d 位", minPasswordLength)
	}
	if p.api == nil {
		return fmt.Errorf("认证服务不可用")
	}
	return p.api.ChangePassword(ctx.Ctx, oldPassword, newPassword)
}
