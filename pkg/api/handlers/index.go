package handlers

import (
	"net/http"

	"github.com/marmos91/sharegate/pkg/registry"
	"github.com/marmos91/sharegate/pkg/session"
)

// IndexHandler renders the landing page: the open form, the configured
// bookmarks, the credentials form and any pending flash messages.
type IndexHandler struct {
	sessionSaver
	registry *registry.Registry
	pages    pages
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(registry *registry.Registry, sessions *session.Manager) (*IndexHandler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &IndexHandler{sessionSaver: sessionSaver{sessions}, registry: registry, pages: p}, nil
}

type bookmarkView struct {
	Name   string
	Target string
}

type indexPage struct {
	Title      string
	Flash      []string
	LastTarget string
	Bookmarks  []bookmarkView
	User       string
	Domain     string
}

// Index handles GET /.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	rc := requestContext(r)

	page := indexPage{
		Title:      "Open",
		Flash:      rc.Session.PopFlash(),
		LastTarget: rc.Session.LastTarget,
		User:       rc.Session.Credentials.User,
		Domain:     rc.Session.Credentials.Domain,
	}
	if h.registry != nil {
		for _, b := range h.registry.ListBookmarks() {
			page.Bookmarks = append(page.Bookmarks, bookmarkView{Name: b.Name, Target: b.Location.String()})
		}
	}

	if len(page.Flash) > 0 {
		_ = h.save(w, r, rc.Session)
	}
	h.pages.render(w, r, "index", page)
}
