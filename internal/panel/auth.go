package panel

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/session"
)

// LoginView is the data of the login form
type LoginView struct {
	Action   string
	Next     string
	Username string
}

func (s *Server) renderLogin(res http.ResponseWriter, req *http.Request, status int, username string, errMsg string) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Iniciar sesión")
	page.Role = ""
	page.Error = errMsg
	page.Data = LoginView{
		Action:   s.base + "/login",
		Next:     s.nextPath(req),
		Username: username,
	}
	s.r.Render(res, status, "login", page)
}

// renderGuardLogin shows the login form in place of a page the visitor may not see
// yet; the guard has already written the status line
func (s *Server) renderGuardLogin(res http.ResponseWriter, req *http.Request) {
	s.renderLogin(res, req, 0, "", "")
}

// nextPath is where to go after logging in: back to the guarded page the form was
// shown on, or to the panel base
func (s *Server) nextPath(req *http.Request) string {
	next := req.URL.Path
	if req.Method == http.MethodPost {
		next = req.PostFormValue("next")
	}
	if next == s.base || strings.HasPrefix(next, s.base+"/") && !strings.HasPrefix(next, s.base+"/login") {
		return next
	}
	return s.base
}

func (s *Server) handleLoginPage(res http.ResponseWriter, req *http.Request) {
	s.renderLogin(res, req, http.StatusOK, "", "")
}

func (s *Server) handleLogin(res http.ResponseWriter, req *http.Request) {
	username := strings.TrimSpace(req.PostFormValue("username"))
	password := req.PostFormValue("password")
	if username == "" || password == "" {
		s.renderLogin(res, req, http.StatusBadRequest, username, "Usuario y contraseña son obligatorios")
		return
	}

	v := s.visitorFor(res, req)
	login, err := v.accounts.Login(req.Context(), username, password)
	if err != nil || login.AccessToken == "" {
		var httpErr *api.HTTPError
		if err == nil || errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			s.renderLogin(res, req, http.StatusUnauthorized, username, "Credenciales inválidas")
			return
		}
		logAPIError(err, "login failed")
		s.renderLogin(res, req, http.StatusBadGateway, username, "Error de autenticación")
		return
	}

	role := s.resolveRole(req.Context(), v, login, username)
	if err := v.session.Login(login.AccessToken, role); err != nil {
		s.renderLogin(res, req, http.StatusInternalServerError, username, "No se pudo guardar la sesión")
		return
	}
	logging.With("panel").Info().Str("username", username).Str("role", role).Msg("panel login")
	http.Redirect(res, req, s.nextPath(req), http.StatusSeeOther)
}

// resolveRole works out which role to remember for a freshly logged-in user: the
// role named by the login response, then by the token, then by the user's profile.
// A user named "admin" with no discoverable role is assumed to be an admin.
func (s *Server) resolveRole(ctx context.Context, v visitor, login *LoginResponse, username string) string {
	if role := login.ReportedRole(); role != "" {
		return role
	}
	if role, ok := session.ClaimedRole(login.AccessToken); ok {
		return role
	}
	if me, err := v.accounts.Me(ctx, login.AccessToken); err == nil {
		if role := me.ReportedRole(); role != "" {
			return role
		}
	}
	if strings.EqualFold(username, "admin") {
		return string(session.RoleAdmin)
	}
	return ""
}

func (s *Server) handleLogout(res http.ResponseWriter, req *http.Request) {
	sess := session.FromRequest(res, req, s.defaultRole)
	if err := sess.Logout(); err != nil {
		logging.With("panel").Warn().Err(err).Msg("failed to clear session")
	}
	http.Redirect(res, req, s.base+"/login", http.StatusSeeOther)
}
