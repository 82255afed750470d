package panel

import (
	"net/http"
	"strings"
)

// ProfileView is the data of the profile editor
type ProfileView struct {
	Profile     *Profile
	SocialLinks string
}

func (s *Server) handleProfilePage(res http.ResponseWriter, req *http.Request) {
	s.renderProfile(res, req, http.StatusOK, "", "")
}

func (s *Server) renderProfile(res http.ResponseWriter, req *http.Request, status int, notice string, errMsg string) {
	v := s.visitorFor(res, req)
	page := s.page(req, v, "Mi perfil")
	page.Notice = notice
	page.Error = errMsg

	profile, err := v.accounts.Me(req.Context(), "")
	if err != nil {
		logAPIError(err, "failed to load profile")
		if page.Error == "" {
			page.Error = apiErrorMessage("No se pudo cargar el perfil", err)
		}
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
		profile = &Profile{}
	}
	page.Data = ProfileView{
		Profile:     profile,
		SocialLinks: formatSocialLinks(profile.SocialLinks),
	}
	s.r.Render(res, status, "panel_profile", page)
}

func (s *Server) handleProfile(res http.ResponseWriter, req *http.Request) {
	v := s.visitorFor(res, req)
	field := func(name string) string {
		return strings.TrimSpace(req.PostFormValue(name))
	}
	update := ProfileUpdate{
		FullName:    field("nombre_completo"),
		Avatar:      field("avatar"),
		Title:       field("titulo"),
		Biography:   field("biografia"),
		Quote:       field("frase_personal"),
		SocialLinks: parseSocialLinks(req.PostFormValue("redes_sociales")),
	}
	if err := v.accounts.SaveProfile(req.Context(), update); err != nil {
		logAPIError(err, "failed to save profile")
		s.renderProfile(res, req, http.StatusBadGateway, "", apiErrorMessage("Error al guardar el perfil", err))
		return
	}
	s.renderProfile(res, req, http.StatusOK, "Perfil actualizado", "")
}
