package handlers

import (
	"net/http"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/session"
)

// CredentialsHandler stores and forgets the share credentials of a
// browser session.
type CredentialsHandler struct {
	sessionSaver
}

// NewCredentialsHandler creates a new credentials handler.
func NewCredentialsHandler(sessions *session.Manager) *CredentialsHandler {
	return &CredentialsHandler{sessionSaver{sessions}}
}

// credentialsView is the JSON answer to credential changes. The password is
// never echoed.
type credentialsView struct {
	Domain string `json:"domain,omitempty"`
	User   string `json:"user,omitempty"`
}

// Set handles POST /credentials/set with form fields user, pass and domain.
func (h *CredentialsHandler) Set(w http.ResponseWriter, r *http.Request) {
	rc := requestContext(r)
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, rc.Session, "invalid form: "+err.Error())
		return
	}

	rc.Session.Credentials = remotefs.Credentials{
		Domain:   r.PostFormValue("domain"),
		User:     r.PostFormValue("user"),
		Password: r.PostFormValue("pass"),
	}
	logger.InfoCtx(r.Context(), "Credentials set",
		logger.SessionID(rc.Session.ID),
		logger.Username(rc.Session.Credentials.User),
		logger.Domain(rc.Session.Credentials.Domain))

	h.respond(w, r, rc)
}

// Remove handles POST /credentials/remove.
func (h *CredentialsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	rc := requestContext(r)
	rc.Session.Credentials = remotefs.Credentials{}
	logger.InfoCtx(r.Context(), "Credentials removed", logger.SessionID(rc.Session.ID))

	h.respond(w, r, rc)
}

// respond saves the session. Browsers go back to the index; JSON clients
// get the stored account, or a 500 when it could not be kept.
func (h *CredentialsHandler) respond(w http.ResponseWriter, r *http.Request, rc RequestContext) {
	err := h.save(w, r, rc.Session)
	if !rc.JSON {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		InternalServerError(w, "session could not be saved")
		return
	}
	writeJSON(w, http.StatusOK, okResponse(credentialsView{
		Domain: rc.Session.Credentials.Domain,
		User:   rc.Session.Credentials.User,
	}))
}
