package handlers

import (
	"net/http"
	"strings"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/api/middleware"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/session"
)

// RequestContext is what a handler knows about the caller: the browser
// session (never nil), the credentials to present to shares and whether
// the client asked for JSON.
type RequestContext struct {
	Session     *session.Session
	Credentials remotefs.Credentials
	JSON        bool
}

func requestContext(r *http.Request) RequestContext {
	s := session.FromContext(r.Context())
	if s == nil {
		s = session.New(session.DefaultTTL)
	}
	return RequestContext{
		Session:     s,
		Credentials: middleware.CredentialsFromContext(r.Context()),
		JSON:        wantsJSON(r),
	}
}

// wantsJSON reports whether the Accept header prefers JSON over HTML.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// sessionSaver persists sessions after a handler changed them.
type sessionSaver struct {
	sessions *session.Manager
}

func (h sessionSaver) save(w http.ResponseWriter, r *http.Request, s *session.Session) error {
	if h.sessions == nil {
		return nil
	}
	err := h.sessions.Save(r.Context(), w, s)
	if err != nil {
		logger.WarnCtx(r.Context(), "Failed to save session", logger.SessionID(s.ID), logger.Err(err))
	}
	return err
}

// flashRedirect queues msgs on the session and sends the browser back to
// the index page, where they are shown once.
func (h sessionSaver) flashRedirect(w http.ResponseWriter, r *http.Request, s *session.Session, msgs ...string) {
	for _, msg := range msgs {
		s.AddFlash(msg)
	}
	_ = h.save(w, r, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
