package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

var ErrNoSession = errors.New("no session in request context")

// Decision is the outcome of a guard check
type Decision string

const (
	// DecisionAllow renders the guarded page
	DecisionAllow Decision = "allow"
	// DecisionLogin renders the login view in place of the guarded page
	DecisionLogin Decision = "login"
	// DecisionRedirect sends the visitor back to the panel base
	DecisionRedirect Decision = "redirect"
	// DecisionDenied renders a static access-denied page
	DecisionDenied Decision = "denied"
)

// Guard decides, synchronously and without any network call, whether a panel page
// may render for the current visitor
type Guard struct {
	// PanelBase is where visitors who hit an admin-only page without being an admin
	// are sent
	PanelBase string
	// DefaultRole is passed to every Session the guard creates
	DefaultRole string

	// RenderLogin writes the login view; the requested URL stays unchanged
	RenderLogin http.HandlerFunc
	// RenderDenied writes the access-denied page
	RenderDenied http.HandlerFunc
	// Observe, if set, is told about every decision
	Observe func(d Decision)
}

// Check determines what should happen for a visitor requiring the given roles
func (g *Guard) Check(s *Session, required []Role) Decision {
	if _, ok := s.Token(); !ok {
		return DecisionLogin
	}
	if !s.HasRole(required...) {
		if IsAdminOnly(required) {
			return DecisionRedirect
		}
		return DecisionDenied
	}
	return DecisionAllow
}

// Require returns middleware that only lets through visitors holding a token that
// satisfies the given roles. With no roles, any token will do.
func (g *Guard) Require(roles ...Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			s := FromRequest(res, req, g.DefaultRole)
			decision := g.Check(s, roles)
			if g.Observe != nil {
				g.Observe(decision)
			}
			switch decision {
			case DecisionLogin:
				writeStatus(res, http.StatusUnauthorized)
				g.renderLogin(res, req)
			case DecisionRedirect:
				http.Redirect(res, req, g.PanelBase, http.StatusFound)
			case DecisionDenied:
				writeStatus(res, http.StatusForbidden)
				g.renderDenied(res, req)
			default:
				next.ServeHTTP(res, req.WithContext(WithSession(req.Context(), s)))
			}
		})
	}
}

// writeStatus sends the status line for a page the guard renders itself. Headers
// set after this are dropped, so the content type goes first.
func writeStatus(res http.ResponseWriter, status int) {
	res.Header().Set("content-type", "text/html; charset=utf-8")
	res.WriteHeader(status)
}

func (g *Guard) renderLogin(res http.ResponseWriter, req *http.Request) {
	if g.RenderLogin != nil {
		g.RenderLogin(res, req)
		return
	}
	res.Write([]byte("login required\n"))
}

func (g *Guard) renderDenied(res http.ResponseWriter, req *http.Request) {
	if g.RenderDenied != nil {
		g.RenderDenied(res, req)
		return
	}
	res.Write([]byte("access denied\n"))
}

type contextKey struct{}

// WithSession attaches a Session to a context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// GetSession returns the Session that a guard attached to the request
func GetSession(req *http.Request) (*Session, error) {
	s, ok := req.Context().Value(contextKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
