package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/internal/telemetry"
	"github.com/marmos91/sharegate/pkg/content"
	"github.com/marmos91/sharegate/pkg/httprange"
	"github.com/marmos91/sharegate/pkg/registry"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/session"
)

// AuthRequiredHint is flashed after a share rejected the credentials.
const AuthRequiredHint = "please supply valid credentials"

// BrowseHandler serves /get: directory listings and file content, full or
// by byte range.
type BrowseHandler struct {
	sessionSaver
	registry *registry.Registry
	full     *content.FullStreamer
	partial  *content.RangeStreamer
	pages    pages
}

// NewBrowseHandler creates a new browse handler.
func NewBrowseHandler(
	registry *registry.Registry,
	sessions *session.Manager,
	full *content.FullStreamer,
	partial *content.RangeStreamer,
) (*BrowseHandler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &BrowseHandler{
		sessionSaver: sessionSaver{sessions},
		registry:     registry,
		full:         full,
		partial:      partial,
		pages:        p,
	}, nil
}

// Open handles GET /get?file=<target>. The target may be a UNC path, a
// //host/share path or a URL; it is normalized and the browser is sent to
// its canonical /get/<target> link.
func (h *BrowseHandler) Open(w http.ResponseWriter, r *http.Request) {
	rc := requestContext(r)

	loc, err := remotefs.ParseLocation(r.URL.Query().Get("file"))
	if err != nil {
		h.fail(w, r, rc, err)
		return
	}
	redirect(w, GetLink(loc.String()), http.StatusFound)
}

// redirect sets Location verbatim. http.Redirect cleans the path, which
// would fold the "//" after an escaped scheme.
func redirect(w http.ResponseWriter, link string, code int) {
	w.Header().Set("Location", link)
	w.WriteHeader(code)
}

// Get handles GET and HEAD /get/<target>.
func (h *BrowseHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc := requestContext(r)

	// chi's wildcard param is still escaped when the request carried a raw
	// path, so read the decoded path instead.
	loc, err := remotefs.ParseLocation(strings.TrimPrefix(r.URL.Path, "/get/"))
	if err != nil {
		h.fail(w, r, rc, err)
		return
	}

	ctx := r.Context()
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithTarget(loc.Scheme+"://"+loc.Host, loc.Path))
	}
	telemetry.SetAttributes(ctx, telemetry.Scheme(loc.Scheme), telemetry.Host(loc.Host), telemetry.Path(loc.Path))
	r = r.WithContext(ctx)

	sess, err := h.registry.Connect(ctx, loc, rc.Credentials)
	if err != nil {
		h.fail(w, r, rc, err)
		return
	}
	defer func() { _ = sess.Close() }()

	f, err := sess.Stat(ctx, loc)
	if err != nil {
		h.fail(w, r, rc, err)
		return
	}

	switch {
	case f.Kind().IsContainer():
		if !loc.IsDirPath() {
			redirect(w, GetLink(loc.AsDir().String()), http.StatusMovedPermanently)
			return
		}
		h.remember(w, r, rc, loc)
		h.list(w, r, rc, loc, f)
	case f.IsFile():
		h.remember(w, r, rc, loc)
		h.serve(w, r, rc, f)
	default:
		h.fail(w, r, rc, remotefs.NewError(remotefs.ErrCodeIO, "get", loc.Path,
			fmt.Errorf("cannot open %s entries", f.Kind())))
	}
}

// remember records the last opened target so the index form can offer it.
func (h *BrowseHandler) remember(w http.ResponseWriter, r *http.Request, rc RequestContext, loc remotefs.Location) {
	target := loc.String()
	if rc.JSON || rc.Session.LastTarget == target {
		return
	}
	rc.Session.LastTarget = target
	_ = h.save(w, r, rc.Session)
}

type directoryPage struct {
	Title    string
	Flash    []string
	Location string
	Parent   string
	Entries  []remotefs.FileInfo
}

func (h *BrowseHandler) list(w http.ResponseWriter, r *http.Request, rc RequestContext, loc remotefs.Location, dir remotefs.File) {
	children, err := remotefs.List(r.Context(), dir)
	if err != nil {
		h.fail(w, r, rc, err)
		return
	}

	entries := make([]remotefs.FileInfo, len(children))
	for i, c := range children {
		entries[i] = remotefs.Info(c)
	}
	logger.DebugCtx(r.Context(), "Directory listed", logger.Entries(len(entries)))

	if rc.JSON {
		WriteJSON(w, http.StatusOK, entries)
		return
	}

	page := directoryPage{
		Title:    loc.Base(),
		Location: loc.String(),
		Entries:  entries,
	}
	if parent, ok := parentOf(loc); ok {
		page.Parent = parent.String()
	}
	h.pages.render(w, r, "directory", page)
}

// parentOf returns the directory containing loc; a host root has none.
func parentOf(loc remotefs.Location) (remotefs.Location, bool) {
	if loc.IsRoot() {
		return remotefs.Location{}, false
	}
	p := path.Dir(strings.TrimSuffix(loc.Path, "/"))
	if p != "/" {
		p += "/"
	}
	return remotefs.Location{Scheme: loc.Scheme, Host: loc.Host, Path: p}, true
}

func (h *BrowseHandler) serve(w http.ResponseWriter, r *http.Request, rc RequestContext, f remotefs.File) {
	ctx := r.Context()
	rangeHeader := r.Header.Get("Range")

	c, err := content.ForRequest(h.full, h.partial, rangeHeader).Open(ctx, f, rangeHeader)
	if err != nil {
		if httprange.IsRangeError(err) {
			rangeNotSatisfiable(w, r, f, err)
			return
		}
		h.fail(w, r, rc, err)
		return
	}
	defer func() { _ = c.Close() }()

	for k, v := range c.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(c.Status)
	if c.Range != nil {
		telemetry.SetAttributes(ctx, telemetry.ContentRange(c.Range.ContentRange()))
	}
	if r.Method == http.MethodHead {
		return
	}

	n, err := c.WriteTo(ctx, w)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.DebugCtx(ctx, "Client went away mid-stream", logger.BytesWritten(n))
	default:
		// Headers are gone; all that is left is to cut the body short.
		logger.WarnCtx(ctx, "Stream aborted", logger.BytesWritten(n), logger.Size(c.Length), logger.Err(err))
	}
}

// rangeNotSatisfiable answers 416 with the reason as plain text.
func rangeNotSatisfiable(w http.ResponseWriter, r *http.Request, f remotefs.File, err error) {
	logger.InfoCtx(r.Context(), "Range rejected", logger.Size(f.Size()), logger.Err(err))

	w.Header().Set("Content-Range", httprange.UnsatisfiedContentRange(f.Size()))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	if r.Method != http.MethodHead {
		_, _ = fmt.Fprintln(w, err.Error())
	}
}

// fail maps an error to a response. Browsers are sent back to the index
// with the error flashed; JSON clients get a problem document.
func (h *BrowseHandler) fail(w http.ResponseWriter, r *http.Request, rc RequestContext, err error) {
	code := remotefs.CodeOf(err)
	if code == remotefs.ErrCodeIO {
		logger.WarnCtx(r.Context(), "Remote share failed", logger.ErrorCode(code.String()), logger.Err(err))
	} else {
		logger.InfoCtx(r.Context(), "Request rejected", logger.ErrorCode(code.String()), logger.Err(err))
	}

	if rc.JSON {
		switch code {
		case remotefs.ErrCodeInvalidLocation:
			BadRequest(w, err.Error())
		case remotefs.ErrCodeNotFound:
			NotFound(w, err.Error())
		case remotefs.ErrCodeAuthRequired:
			w.Header().Set("WWW-Authenticate", `Basic realm="sharegate", charset="UTF-8"`)
			Unauthorized(w, err.Error())
		default:
			BadGateway(w, err.Error())
		}
		return
	}

	if code == remotefs.ErrCodeAuthRequired {
		h.flashRedirect(w, r, rc.Session, err.Error(), AuthRequiredHint)
		return
	}
	h.flashRedirect(w, r, rc.Session, err.Error())
}
