package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// API provides typed bindings to the alphadocs backend endpoints.
// The auth token is optional; endpoints that require it fail with an
// APIError when it is missing or expired.
type API struct {
	base string
	http *Client

	mu    sync.RWMutex
	token string
}

// NewAPI creates API bindings rooted at base (e.g. http://localhost:8080).
func NewAPI(base string, client *Client) *API {
	return &API{base: strings.TrimRight(base, "/"), http: client}
}

// SetToken installs the bearer token used for authenticated calls.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Token returns the current bearer token, empty when logged out.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) url(path string) string { return a.base + path }

// ReportVisit records a page visit. Best-effort: callers are expected
// to log and swallow the returned error.
func (a *API) ReportVisit(ctx context.Context, path string) error {
	return a.http.postJSON(ctx, http.MethodPost, a.url("/api/stats/visit"), "",
		map[string]string{"path": path}, nil)
}

// DailyCount is one day of visit counts.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatsSummary aggregates visits for a path (or the whole site).
type StatsSummary struct {
	TotalVisits int          `json:"total_visits"`
	DailyVisits []DailyCount `json:"daily_visits"`
}

// Summary fetches visit statistics, optionally scoped to one path.
func (a *API) Summary(ctx context.Context, path string) (*StatsSummary, error) {
	u := a.url("/api/stats/summary")
	if path != "" {
		u += "?path=" + url.QueryEscape(path)
	}
	var out StatsSummary
	if err := a.http.GetJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopArticle is one entry of the most-visited list.
type TopArticle struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// TopArticles fetches the most visited document paths.
func (a *API) TopArticles(ctx context.Context) ([]TopArticle, error) {
	var out []TopArticle
	if err := a.http.GetJSON(ctx, a.url("/api/stats/top"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Comment mirrors the backend comment shape.
type Comment struct {
	ID          string `json:"id"`
	ArticlePath string `json:"article_path"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// ListComments returns the approved comments for an article path.
func (a *API) ListComments(ctx context.Context, articlePath string) ([]Comment, error) {
	u := a.url("/api/comments") + "?article_path=" + url.QueryEscape(articlePath)
	var out []Comment
	if err := a.http.GetJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type commentResponse struct {
	Message string  `json:"message"`
	Comment Comment `json:"comment"`
}

// PostComment submits a comment. Requires a token.
func (a *API) PostComment(ctx context.Context, articlePath, content string) (*Comment, error) {
	var out commentResponse
	err := a.http.postJSON(ctx, http.MethodPost, a.url("/api/comments"), a.Token(),
		map[string]string{"article_path": articlePath, "content": content}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// User mirrors the backend user shape.
type User struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email,omitempty"`
	IsAdmin            bool   `json:"is_admin"`
	IsApproved         bool   `json:"is_approved"`
	CommentNeedsReview bool   `json:"comment_needs_approval"`
	CreatedAt          string `json:"created_at,omitempty"`
	LastLogin          string `json:"last_login,omitempty"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a token and stores it on the API.
func (a *API) Login(ctx context.Context, username, password string) (*User, error) {
	var out sessionResponse
	err := a.http.postJSON(ctx, http.MethodPost, a.url("/api/auth/login"), "",
		map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	a.SetToken(out.AccessToken)
	return &out.User, nil
}

type registerResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Register creates an account. The returned user may still await approval.
func (a *API) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	var out registerResponse
	err := a.http.postJSON(ctx, http.MethodPost, a.url("/api/auth/register"), "",
		map[string]string{"username": username, "email": email, "password": password}, &out)
	if err != nil {
		return nil, "", err
	}
	return &out.User, out.Message, nil
}

// Me returns the profile behind the current token.
func (a *API) Me(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url("/api/auth/me"), nil)
	if err != nil {
		return nil, err
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(http.MethodGet, "/api/auth/me", resp)
	}
	var out User
	if err := jsonDecode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the password behind the current token.
func (a *API) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return a.http.postJSON(ctx, http.MethodPost, a.url("/api/auth/change-password"), a.Token(),
		map[string]string{"old_password": oldPassword, "new_password": newPassword}, nil)
}

// Admin endpoints. All require an admin token.

// AdminListUsers returns every registered user.
func (a *API) AdminListUsers(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url("/api/admin/users"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token())
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(http.MethodGet, "/api/admin/users", resp)
	}
	var out []User
	if err := jsonDecode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminUserAction hits approve/reject style user endpoints.
func (a *API) AdminUserAction(ctx context.Context, userID, action string) error {
	u := fmt.Sprintf("%s/api/admin/users/%s/%s", a.base, userID, action)
	return a.http.postJSON(ctx, http.MethodPost, u, a.Token(), nil, nil)
}

// AdminDeleteUser removes a user account.
func (a *API) AdminDeleteUser(ctx context.Context, userID string) error {
	u := fmt.Sprintf("%s/api/admin/users/%s", a.base, userID)
	return a.http.postJSON(ctx, http.MethodDelete, u, a.Token(), nil, nil)
}

// AdminSetPermissions updates per-user moderation flags.
func (a *API) AdminSetPermissions(ctx context.Context, userID string, commentNeedsApproval bool) error {
	u := fmt.Sprintf("%s/api/admin/users/%s/permissions", a.base, userID)
	return a.http.postJSON(ctx, http.MethodPut, u, a.Token(),
		map[string]bool{"comment_needs_approval": commentNeedsApproval}, nil)
}

// AdminPendingComments lists comments awaiting moderation.
func (a *API) AdminPendingComments(ctx context.Context) ([]Comment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url("/api/admin/comments/pending"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token())
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(http.MethodGet, "/api/admin/comments/pending", resp)
	}
	var out []Comment
	if err := jsonDecode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminCommentAction hits approve/reject comment endpoints.
func (a *API) AdminCommentAction(ctx context.Context, commentID, action string) error {
	u := fmt.Sprintf("%s/api/admin/comments/%s/%s", a.base, commentID, action)
	return a.http.postJSON(ctx, http.MethodPost, u, a.Token(), nil, nil)
}

// AdminDeleteComment removes a comment outright.
func (a *API) AdminDeleteComment(ctx context.Context, commentID string) error {
	u := fmt.Sprintf("%s/api/admin/comments/%s", a.base, commentID)
	return a.http.postJSON(ctx, http.MethodDelete, u, a.Token(), nil, nil)
}

// AdminGetConfig returns the mutable site configuration map.
func (a *API) AdminGetConfig(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url("/api/admin/config"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token())
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(http.MethodGet, "/api/admin/config", resp)
	}
	var out map[string]string
	if err := jsonDecode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminPutConfig updates site configuration keys.
func (a *API) AdminPutConfig(ctx context.Context, values map[string]string) error {
	return a.http.postJSON(ctx, http.MethodPut, a.url("/api/admin/config"), a.Token(), values, nil)
}
