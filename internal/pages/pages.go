// Package pages holds the page renderers registered into the router:
// the about page, document search, document view, auth forms and the
// admin console. Each page is a PageDescriptor built from shared
// collaborators (article store, API bindings, markdown renderer).
package pages

import (
	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/fetch"
	"github.com/alphadocs/alphadocs/internal/router"
	"github.com/alphadocs/alphadocs/internal/store"
)

// Pages builds the page descriptors. The API bindings may be nil, in
// which case stats, comments and auth surfaces degrade to placeholders.
type Pages struct {
	store *store.Store
	api   *fetch.API
	md    *Renderer
	log   *zap.Logger
}

// New creates the page set.
func New(st *store.Store, api *fetch.API, log *zap.Logger) *Pages {
	return &Pages{
		store: st,
		api:   api,
		md:    NewRenderer(),
		log:   log,
	}
}

// RegisterAll registers every page. Order matters: the exact /docs
// search route must be tried before the /docs/* document pattern.
func (p *Pages) RegisterAll(r *router.Router) error {
	for _, d := range []*router.PageDescriptor{
		p.About(),
		p.Search(),
		p.Document(),
		p.Auth(),
		p.Admin(),
	} {
		if err := r.RegisterPage(d); err != nil {
			return err
		}
	}
	return nil
}
