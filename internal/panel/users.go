package panel

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// DashboardView is the data of the account administration page
type DashboardView struct {
	Users      []User
	Roles      []string
	Query      string
	RoleFilter string
	Total      int
	Active     int
	// NewUser repopulates the creation form after a failed attempt
	NewUser NewUser
}

func (s *Server) handleDashboard(res http.ResponseWriter, req *http.Request) {
	s.renderDashboard(res, req, http.StatusOK, "", "", NewUser{Role: "EDITOR"})
}

// renderDashboard lists accounts, reporting the outcome of any action just taken
func (s *Server) renderDashboard(res http.ResponseWriter, req *http.Request, status int, notice string, errMsg string, draft NewUser) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Administración de usuarios")
	page.Notice = notice
	page.Error = errMsg

	query := strings.TrimSpace(req.URL.Query().Get("q"))
	roleFilter := strings.ToUpper(strings.TrimSpace(req.URL.Query().Get("rol")))
	view := DashboardView{
		Users:      []User{},
		Roles:      accountRoles,
		Query:      query,
		RoleFilter: roleFilter,
		NewUser:    draft,
	}

	users, err := v.accounts.Users(req.Context())
	if err != nil {
		logAPIError(err, "failed to list users")
		if page.Error == "" {
			page.Error = apiErrorMessage("No se pudo cargar usuarios", err)
		}
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
	}
	needle := strings.ToLower(query)
	for _, u := range users {
		if needle != "" && !matches(needle, u.Name, u.Email, u.Role) {
			continue
		}
		if roleFilter != "" && u.Role != roleFilter {
			continue
		}
		view.Users = append(view.Users, u)
		view.Total++
		if u.Active {
			view.Active++
		}
	}
	page.Data = view
	s.r.Render(res, status, "panel_dashboard", page)
}

func (s *Server) handleCreateUser(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	u := NewUser{
		Name:     strings.TrimSpace(req.PostFormValue("nombre")),
		Email:    strings.TrimSpace(req.PostFormValue("email")),
		Password: req.PostFormValue("password"),
		Role:     strings.ToUpper(strings.TrimSpace(req.PostFormValue("rol"))),
	}
	if u.Name == "" || u.Email == "" || u.Password == "" {
		s.renderDashboard(res, req, http.StatusUnprocessableEntity, "", "Nombre, email y contraseña son obligatorios", u)
		return
	}
	if !isAccountRole(u.Role) {
		s.renderDashboard(res, req, http.StatusUnprocessableEntity, "", "Rol no válido", u)
		return
	}

	created, err := v.accounts.CreateUser(req.Context(), u)
	if err != nil {
		logAPIError(err, "failed to create user")
		s.renderDashboard(res, req, http.StatusBadGateway, "", apiErrorMessage("No se pudo crear el usuario", err), u)
		return
	}
	name := firstNonEmpty(created.Name, u.Name)
	s.renderDashboard(res, req, http.StatusOK, "Usuario "+name+" creado", "", NewUser{Role: "EDITOR"})
}

func (s *Server) handleSetRole(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	role := strings.ToUpper(strings.TrimSpace(req.PostFormValue("rol")))
	if !isAccountRole(role) {
		s.renderDashboard(res, req, http.StatusUnprocessableEntity, "", "Rol no válido", NewUser{Role: "EDITOR"})
		return
	}
	if err := v.accounts.SetRole(req.Context(), mux.Vars(req)["id"], role); err != nil {
		logAPIError(err, "failed to change user role")
		s.renderDashboard(res, req, http.StatusBadGateway, "", apiErrorMessage("No se pudo actualizar el rol", err), NewUser{Role: "EDITOR"})
		return
	}
	s.renderDashboard(res, req, http.StatusOK, "Rol actualizado", "", NewUser{Role: "EDITOR"})
}

func (s *Server) handleToggleUser(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	if err := v.accounts.ToggleActive(req.Context(), mux.Vars(req)["id"]); err != nil {
		logAPIError(err, "failed to toggle user")
		s.renderDashboard(res, req, http.StatusBadGateway, "", apiErrorMessage("No se pudo cambiar estado", err), NewUser{Role: "EDITOR"})
		return
	}
	s.renderDashboard(res, req, http.StatusOK, "Estado del usuario actualizado", "", NewUser{Role: "EDITOR"})
}

func (s *Server) handleResetPassword(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	temp, err := v.accounts.ResetPassword(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		logAPIError(err, "failed to reset password")
		s.renderDashboard(res, req, http.StatusBadGateway, "", apiErrorMessage("No se pudo resetear la contraseña", err), NewUser{Role: "EDITOR"})
		return
	}
	notice := "Contraseña actualizada"
	if temp != "" {
		notice = "Contraseña temporal: " + temp
	}
	s.renderDashboard(res, req, http.StatusOK, notice, "", NewUser{Role: "EDITOR"})
}
