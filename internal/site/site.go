// Package site serves the static half of the application: the shell
// page, the article index maps, and the raw document files under the
// content directory. Anything that is not an API call or a known file
// falls through to the shell so client-side routes deep-link cleanly.
package site

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options configures the static site handler.
type Options struct {
	// ContentDir holds index.html, the index maps, and article files.
	ContentDir string
	// CDNBaseURL, when set, redirects content files to the CDN instead
	// of serving them from ContentDir.
	CDNBaseURL string
}

// contentExtensions are the file types the content dir may serve.
var contentExtensions = map[string]string{
	".md":   "text/markdown; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// defaultShell is served when ContentDir carries no index.html of its
// own, which is the usual case in development.
const defaultShell = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Alpha Docs</title>
</head>
<body>
<div id="app"></div>
</body>
</html>
`

type handler struct {
	opts Options
	log  *zap.Logger
}

// RegisterRoutes mounts the static site. It installs the router's
// NotFound handler, so it must be registered after the API packages.
func RegisterRoutes(r chi.Router, opts Options, log *zap.Logger) {
	h := &handler{opts: opts, log: log}
	r.Get("/", h.serveShell)
	r.Get("/index.html", h.serveShell)
	r.NotFound(h.serveCatchAll)
}

func (h *handler) serveShell(w http.ResponseWriter, r *http.Request) {
	shell := filepath.Join(h.opts.ContentDir, "index.html")
	if _, err := os.Stat(shell); err == nil {
		http.ServeFile(w, r, shell)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(defaultShell))
}

// serveCatchAll resolves everything the API routes did not claim:
// content files first, the CDN next, the shell last. API paths never
// fall through to the shell so missing endpoints stay visible as 404s.
func (h *handler) serveCatchAll(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
		return
	}

	rel, ok := h.contentPath(r.URL.Path)
	if ok {
		local := filepath.Join(h.opts.ContentDir, filepath.FromSlash(rel))
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			if ctype := contentExtensions[strings.ToLower(path.Ext(rel))]; ctype != "" {
				w.Header().Set("Content-Type", ctype)
			}
			http.ServeFile(w, r, local)
			return
		}
		if h.opts.CDNBaseURL != "" {
			target := strings.TrimRight(h.opts.CDNBaseURL, "/") + "/" + rel
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		if contentExtensions[strings.ToLower(path.Ext(rel))] != "" {
			h.log.Debug("content file missing", zap.String("path", rel))
			http.NotFound(w, r)
			return
		}
	}

	// Extension-less paths are client-side routes.
	h.serveShell(w, r)
}

// contentPath normalizes a request path into a content-dir relative
// path, rejecting traversal outside the directory.
func (h *handler) contentPath(reqPath string) (string, bool) {
	cleaned := path.Clean("/" + reqPath)
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		return "", false
	}
	return strings.TrimPrefix(cleaned, "/"), true
}
