// Package panel serves the editorial panel: the pages staff use to write, edit and
// delete articles, manage accounts and maintain their author profile.
//
// The panel lives under an obfuscated base path and every page but the login form is
// behind a session.Guard. Neither is access control; the news API authorizes every
// action the panel takes on the visitor's behalf, and its refusals are shown inline.
package panel

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/drafts"
	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metrics"
	"github.com/radioconexion/site/internal/news"
	"github.com/radioconexion/site/internal/session"
	"github.com/radioconexion/site/internal/web"
)

// Role requirements of the panel's pages
var (
	adminsOnly = []session.Role{session.RoleAdmin}
	editors    = []session.Role{session.RoleAdmin, session.RoleEditor}
	writers    = []session.Role{session.RoleAdmin, session.RoleEditor, session.Role("REDACTOR")}
)

// Server serves the editorial panel
type Server struct {
	r           *web.Renderer
	api         *api.Client
	base        string
	defaultRole string
	guard       *session.Guard
	// autosaver is nil when draft storage is not configured
	autosaver *drafts.Autosaver
}

// NewServer serves the panel under base. autosaver may be nil, in which case the
// editor doesn't keep drafts.
func NewServer(r *web.Renderer, client *api.Client, base string, defaultRole string, autosaver *drafts.Autosaver) *Server {
	s := &Server{
		r:           r,
		api:         client,
		base:        strings.TrimRight(base, "/"),
		defaultRole: defaultRole,
		autosaver:   autosaver,
	}
	s.guard = &session.Guard{
		PanelBase:    s.base,
		DefaultRole:  defaultRole,
		RenderLogin:  s.renderGuardLogin,
		RenderDenied: s.renderDenied,
		Observe: func(d session.Decision) {
			metrics.RecordGuardDecision(string(d))
		},
	}
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path(s.base + "/login").Methods("GET").HandlerFunc(s.handleLoginPage)
	r.Path(s.base + "/login").Methods("POST").HandlerFunc(s.handleLogin)
	r.Path(s.base + "/logout").Methods("POST").HandlerFunc(s.handleLogout)

	s.handle(r, "", "GET", s.handleList, editors)
	s.handle(r, "/historial/{id:[0-9]+}", "GET", s.handleHistory, editors)

	s.handle(r, "/agregar", "GET", s.handleCreatePage, editors)
	s.handle(r, "/agregar", "POST", s.handleCreate, editors)
	if s.autosaver != nil {
		s.handle(r, "/agregar/borrador", "GET", s.handleGetDraft, editors)
		s.handle(r, "/agregar/borrador", "PUT", s.handlePutDraft, editors)
		s.handle(r, "/agregar/borrador", "DELETE", s.handleDeleteDraft, editors)
	}

	s.handle(r, "/editar/{id:[0-9]+}", "GET", s.handleEditPage, writers)
	s.handle(r, "/editar/{id:[0-9]+}", "POST", s.handleEdit, writers)

	s.handle(r, "/eliminar/{id:[0-9]+}", "GET", s.handleDeletePage, editors)
	s.handle(r, "/eliminar/{id:[0-9]+}", "POST", s.handleDelete, editors)

	s.handle(r, "/mi-perfil", "GET", s.handleProfilePage, editors)
	s.handle(r, "/mi-perfil", "POST", s.handleProfile, editors)

	s.handle(r, "/admin", "GET", s.handleDashboard, adminsOnly)
	s.handle(r, "/admin/usuarios", "POST", s.handleCreateUser, adminsOnly)
	s.handle(r, "/admin/usuarios/{id}/rol", "POST", s.handleSetRole, adminsOnly)
	s.handle(r, "/admin/usuarios/{id}/estado", "POST", s.handleToggleUser, adminsOnly)
	s.handle(r, "/admin/usuarios/{id}/password", "POST", s.handleResetPassword, adminsOnly)
}

// handle registers a page that requires the given roles
func (s *Server) handle(r *mux.Router, path string, method string, h http.HandlerFunc, roles []session.Role) {
	r.Path(s.base + path).Methods(method).Handler(s.guard.Require(roles...)(h))
}

// visitor is everything a guarded handler needs to act for the current visitor
type visitor struct {
	session  *session.Session
	news     *news.Client
	accounts *Accounts
	fetcher  news.Fetcher
}

// visitorFor binds the API client to the session the guard resolved, or to a fresh
// one for unguarded pages
func (s *Server) visitorFor(res http.ResponseWriter, req *http.Request) visitor {
	sess, err := session.GetSession(req)
	if err != nil {
		sess = session.FromRequest(res, req, s.defaultRole)
	}
	f := s.api.As(sess.Store())
	return visitor{
		session:  sess,
		news:     news.NewClient(f),
		accounts: NewAccounts(f),
		fetcher:  f,
	}
}

func (v visitor) isAdmin() bool {
	role, ok := v.session.Role()
	return ok && role == session.RoleAdmin
}

// page prepares the data common to every panel page
func (s *Server) page(req *http.Request, v visitor, title string) web.Page {
	p := web.Page{
		Title:     title,
		Path:      req.URL.Path,
		PanelBase: s.base,
	}
	if role, ok := v.session.Role(); ok {
		p.Role = string(role)
	}
	if notice, ok := notices[req.URL.Query().Get("aviso")]; ok {
		p.Notice = notice
	}
	return p
}

func (s *Server) redirect(res http.ResponseWriter, req *http.Request, path string, notice string) {
	target := s.base + path
	if notice != "" {
		target += "?aviso=" + notice
	}
	http.Redirect(res, req, target, http.StatusSeeOther)
}

func (s *Server) renderDenied(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	s.r.Render(res, 0, "denied", s.page(req, v, "Acceso denegado"))
}

// apiErrorMessage describes an API failure for display
func apiErrorMessage(prefix string, err error) string {
	if errors.Is(err, api.ErrUnavailable) {
		return prefix + ": el servidor de noticias no está disponible"
	}
	return prefix + ": " + err.Error()
}

// apiErrorStatus picks the status of a page whose main request failed
func apiErrorStatus(err error) int {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func logAPIError(err error, msg string) {
	logging.With("panel").Warn().Err(err).Msg(msg)
}
