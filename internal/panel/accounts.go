package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/radioconexion/site/internal/api"
	"github.com/radioconexion/site/internal/news"
)

// roleFields are the places the API may report a user's role
type roleFields struct {
	Role string `json:"role"`
	Rol  string `json:"rol"`
}

func (r *roleFields) first() string {
	if r == nil {
		return ""
	}
	return firstNonEmpty(r.Role, r.Rol)
}

// LoginResponse is the API's answer to a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	roleFields
	User   *roleFields `json:"user"`
	Roles  []string    `json:"roles"`
	Scopes []string    `json:"scopes"`
}

// ReportedRole returns the role the response names for the user, if any
func (r *LoginResponse) ReportedRole() string {
	role := firstNonEmpty(r.roleFields.first(), r.User.first())
	if role == "" && len(r.Roles) > 0 {
		role = r.Roles[0]
	}
	if role == "" && len(r.Scopes) > 0 {
		role = r.Scopes[0]
	}
	return role
}

// Profile is the logged-in user's public author profile
type Profile struct {
	roleFields
	User        *roleFields       `json:"user,omitempty"`
	Username    string            `json:"nombre_usuario,omitempty"`
	Email       string            `json:"email,omitempty"`
	FullName    string            `json:"nombre_completo"`
	Avatar      string            `json:"avatar"`
	Title       string            `json:"titulo"`
	Biography   string            `json:"biografia"`
	Quote       string            `json:"frase_personal"`
	SocialLinks map[string]string `json:"redes_sociales,omitempty"`
}

// ReportedRole returns the role the profile names for the user, if any
func (p *Profile) ReportedRole() string {
	return firstNonEmpty(p.roleFields.first(), p.User.first())
}

// ProfileUpdate carries the fields a user may change about themselves
type ProfileUpdate struct {
	FullName    string            `json:"nombre_completo"`
	Avatar      string            `json:"avatar"`
	Title       string            `json:"titulo"`
	Biography   string            `json:"biografia"`
	Quote       string            `json:"frase_personal"`
	SocialLinks map[string]string `json:"redes_sociales,omitempty"`
}

// User is a panel account as listed by the admin API. Deployments disagree on field
// names, so decoding accepts each known alias.
type User struct {
	Id     string
	Name   string
	Email  string
	Role   string
	Active bool
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		Id            json.RawMessage `json:"id"`
		UserId        json.RawMessage `json:"user_id"`
		Uid           json.RawMessage `json:"uid"`
		Nombre        string          `json:"nombre"`
		Name          string          `json:"name"`
		Username      string          `json:"username"`
		NombreUsuario string          `json:"nombre_usuario"`
		Email         string          `json:"email"`
		Rol           string          `json:"rol"`
		Role          string          `json:"role"`
		Activo        *bool           `json:"activo"`
		Active        *bool           `json:"active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Id = firstNonEmpty(rawId(raw.Id), rawId(raw.UserId), rawId(raw.Uid))
	u.Name = firstNonEmpty(raw.Nombre, raw.Name, raw.Username, raw.NombreUsuario)
	u.Email = raw.Email
	u.Role = strings.ToUpper(firstNonEmpty(raw.Rol, raw.Role, "VIEWER"))
	u.Active = true
	if raw.Activo != nil {
		u.Active = *raw.Activo
	} else if raw.Active != nil {
		u.Active = *raw.Active
	}
	return nil
}

// rawId renders a JSON string or number id as a string
func rawId(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// NewUser is the data needed to create a panel account
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Accounts calls the authentication and user administration endpoints of the API
type Accounts struct {
	f news.Fetcher
}

func NewAccounts(f news.Fetcher) *Accounts {
	return &Accounts{f: f}
}

// Login exchanges a username and password for an access token
func (a *Accounts) Login(ctx context.Context, username string, password string) (*LoginResponse, error) {
	var res LoginResponse
	r := &api.Request{
		Method: http.MethodPost,
		Form:   map[string]string{"username": strings.TrimSpace(username), "password": password},
	}
	if err := a.f.FetchJSON(ctx, "/api/auth/login", r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Me returns the logged-in user's profile. If token is empty, the visitor's stored
// token is used.
func (a *Accounts) Me(ctx context.Context, token string) (*Profile, error) {
	r := &api.Request{}
	if token != "" {
		r.Header = http.Header{"Authorization": {"Bearer " + token}}
	}
	var profile Profile
	if err := a.f.FetchJSON(ctx, "/api/auth/me", r, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile updates the logged-in user's profile
func (a *Accounts) SaveProfile(ctx context.Context, update ProfileUpdate) error {
	return a.f.FetchJSON(ctx, "/api/auth/me/profile", &api.Request{Method: http.MethodPatch, JSON: update}, nil)
}

// Users lists every panel account. The API answers with either a bare array or an
// object holding a "users" array.
func (a *Accounts) Users(ctx context.Context) ([]User, error) {
	var raw json.RawMessage
	if err := a.f.FetchJSON(ctx, "/api/admin/users", nil, &raw); err != nil {
		return nil, err
	}
	users := make([]User, 0)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return users, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, err
		}
		return users, nil
	}
	var wrapped struct {
		Users []User `json:"users"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Users != nil {
		users = wrapped.Users
	}
	return users, nil
}

// CreateUser creates a panel account. The role is sent under both of the names
// deployments accept.
func (a *Accounts) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	body := map[string]string{
		"nombre_usuario": u.Name,
		"email":          u.Email,
		"password":       u.Password,
		"role":           u.Role,
		"rol":            u.Role,
	}
	var created User
	if err := a.f.FetchJSON(ctx, "/api/admin/users", &api.Request{Method: http.MethodPost, JSON: body}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SetRole changes the role of a panel account
func (a *Accounts) SetRole(ctx context.Context, id string, role string) error {
	body := map[string]string{"rol": role}
	return a.f.FetchJSON(ctx, userPath(id, "role"), &api.Request{Method: http.MethodPut, JSON: body}, nil)
}

// ToggleActive enables a disabled account or disables an enabled one
func (a *Accounts) ToggleActive(ctx context.Context, id string) error {
	return a.f.FetchJSON(ctx, userPath(id, "toggle"), &api.Request{Method: http.MethodPatch}, nil)
}

// ResetPassword resets an account's password, returning the temporary password if
// the API generated one
func (a *Accounts) ResetPassword(ctx context.Context, id string) (string, error) {
	var res struct {
		TempPassword string `json:"temp_password"`
	}
	r := &api.Request{Method: http.MethodPatch, JSON: struct{}{}}
	if err := a.f.FetchJSON(ctx, userPath(id, "reset_password"), r, &res); err != nil {
		return "", err
	}
	return res.TempPassword, nil
}

func userPath(id string, action string) string {
	return "/api/admin/users/" + url.PathEscape(id) + "/" + action
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
